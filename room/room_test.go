package room

import (
	"encoding/json"
	"testing"

	"github.com/wfunc/baucua-server/state"
)

// stubRoller feeds a scripted sequence of draws into the room.
type stubRoller struct {
	draws [][DiceCount]Symbol
	next  int
}

func (s *stubRoller) Roll() [DiceCount]Symbol {
	if len(s.draws) == 0 {
		return [DiceCount]Symbol{Bau, Bau, Bau}
	}
	d := s.draws[s.next%len(s.draws)]
	s.next++
	return d
}

func newTestRoom(banker int64, draws ...[DiceCount]Symbol) *Room {
	return NewRoom("ROOM01", "host-1", "Host", banker, Config{
		Roller: &stubRoller{draws: draws},
	})
}

func totalMoney(r *Room) int64 {
	total := r.BankerBalance()
	for _, p := range r.State().Players {
		total += p.Balance
	}
	return total
}

func TestRoom_SettlementExactAmounts(t *testing.T) {
	// 初始骰面一次，结算骰面 [ca ca cua] 一次
	r := newTestRoom(100000, [DiceCount]Symbol{Bau, Bau, Bau}, [DiceCount]Symbol{Ca, Ca, Cua})

	if _, _, err := r.AddPlayer("player-a", "Anna", 1000); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if _, err := r.SetWager("player-a", Ca, 50); err != nil {
		t.Fatalf("SetWager failed: %v", err)
	}
	if _, err := r.ConfirmWager("player-a"); err != nil {
		t.Fatalf("ConfirmWager failed: %v", err)
	}
	if err := r.StartRoll("host-1"); err != nil {
		t.Fatalf("StartRoll failed: %v", err)
	}

	// 开掷后注金已划入庄家池
	if p, _ := r.GetPlayer("player-a"); p.Balance != 950 {
		t.Errorf("Expected balance 950 after stake debit, got %d", p.Balance)
	}
	if got := r.BankerBalance(); got != 100050 {
		t.Errorf("Expected banker 100050 after stake debit, got %d", got)
	}

	result, err := r.FinishRoll()
	if err != nil {
		t.Fatalf("FinishRoll failed: %v", err)
	}

	// 鱼中两粒：赢 50*2，拿回本金 50
	if p, _ := r.GetPlayer("player-a"); p.Balance != 1100 {
		t.Errorf("Expected balance 1100 after settlement, got %d", p.Balance)
	}
	if got := r.BankerBalance(); got != 99900 {
		t.Errorf("Expected banker 99900 after settlement, got %d", got)
	}
	if result.History.BankerDelta != -100 {
		t.Errorf("Expected banker delta -100, got %d", result.History.BankerDelta)
	}
	if len(result.Results) != 1 {
		t.Fatalf("Expected 1 player result, got %d", len(result.Results))
	}
	res := result.Results[0]
	if res.WinAmount != 100 || res.Profit != 100 || res.TotalStake != 50 {
		t.Errorf("Unexpected result: win=%d profit=%d stake=%d", res.WinAmount, res.Profit, res.TotalStake)
	}
}

func TestRoom_MoneyConservation(t *testing.T) {
	r := newTestRoom(100000,
		[DiceCount]Symbol{Bau, Bau, Bau},
		[DiceCount]Symbol{Ca, Nai, Ga},
		[DiceCount]Symbol{Bau, Bau, Cua},
	)
	r.AddPlayer("player-a", "Anna", 1000)
	r.AddPlayer("player-b", "Bela", 2000)

	before := totalMoney(r)

	for round := 0; round < 2; round++ {
		if _, err := r.SetWager("player-a", Ca, 100); err != nil {
			t.Fatalf("SetWager failed: %v", err)
		}
		if _, err := r.SetWager("player-b", Bau, 250); err != nil {
			t.Fatalf("SetWager failed: %v", err)
		}
		r.ConfirmWager("player-a")
		r.ConfirmWager("player-b")
		if err := r.StartRoll("host-1"); err != nil {
			t.Fatalf("StartRoll failed: %v", err)
		}
		if got := totalMoney(r); got != before {
			t.Errorf("Money not conserved mid-roll: %d != %d", got, before)
		}
		if _, err := r.FinishRoll(); err != nil {
			t.Fatalf("FinishRoll failed: %v", err)
		}
		if got := totalMoney(r); got != before {
			t.Errorf("Money not conserved after round %d: %d != %d", round+1, got, before)
		}
	}
}

func TestRoom_LosingStakeGoesToBanker(t *testing.T) {
	r := newTestRoom(100000, [DiceCount]Symbol{Bau, Bau, Bau}, [DiceCount]Symbol{Nai, Nai, Nai})
	r.AddPlayer("player-a", "Anna", 1000)

	r.SetWager("player-a", Ca, 200)
	r.ConfirmWager("player-a")
	r.StartRoll("host-1")
	result, err := r.FinishRoll()
	if err != nil {
		t.Fatalf("FinishRoll failed: %v", err)
	}

	if p, _ := r.GetPlayer("player-a"); p.Balance != 800 {
		t.Errorf("Expected balance 800 after loss, got %d", p.Balance)
	}
	if got := r.BankerBalance(); got != 100200 {
		t.Errorf("Expected banker 100200 after loss, got %d", got)
	}
	if result.History.BankerDelta != 200 {
		t.Errorf("Expected banker delta 200, got %d", result.History.BankerDelta)
	}
}

func TestRoom_ConfirmationFreezesWager(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)

	r.SetWager("player-a", Bau, 10)
	if _, err := r.ConfirmWager("player-a"); err != nil {
		t.Fatalf("ConfirmWager failed: %v", err)
	}

	if _, err := r.SetWager("player-a", Cua, 20); err != ErrAlreadyConfirmed {
		t.Errorf("Expected ErrAlreadyConfirmed, got %v", err)
	}
	if _, err := r.ResetWager("player-a"); err != ErrAlreadyConfirmed {
		t.Errorf("Expected ErrAlreadyConfirmed on reset, got %v", err)
	}

	// Unconfirm lifts the freeze.
	if _, err := r.UnconfirmWager("player-a"); err != nil {
		t.Fatalf("UnconfirmWager failed: %v", err)
	}
	if _, err := r.SetWager("player-a", Cua, 20); err != nil {
		t.Errorf("SetWager after unconfirm should succeed, got %v", err)
	}
}

func TestRoom_ConfirmRequiresWager(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)

	if _, err := r.ConfirmWager("player-a"); err != ErrNoWagerPlaced {
		t.Errorf("Expected ErrNoWagerPlaced, got %v", err)
	}
}

func TestRoom_InsufficientBalanceAcrossSymbols(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 100)

	if _, err := r.SetWager("player-a", Bau, 30); err != nil {
		t.Fatalf("First wager failed: %v", err)
	}
	if _, err := r.SetWager("player-a", Cua, 80); err != ErrInsufficientBalance {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
	// Replacing the same symbol's stake is judged against the rest.
	if _, err := r.SetWager("player-a", Bau, 100); err != nil {
		t.Errorf("Raising bau to full balance should succeed, got %v", err)
	}
}

func TestRoom_ConfirmRechecksBalance(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 100)

	if _, err := r.SetWager("player-a", Bau, 100); err != nil {
		t.Fatalf("SetWager failed: %v", err)
	}
	// Balance drops between staking and confirming.
	if err := r.SetBalance("player-a", 50); err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}
	if _, err := r.ConfirmWager("player-a"); err != ErrInsufficientBalance {
		t.Errorf("Expected ErrInsufficientBalance at confirm time, got %v", err)
	}

	// Restoring the balance lets the same wager confirm.
	if err := r.SetBalance("player-a", 100); err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}
	if _, err := r.ConfirmWager("player-a"); err != nil {
		t.Errorf("Confirm after balance restore should succeed, got %v", err)
	}
}

func TestRoom_HostCannotBet(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)

	if _, err := r.SetWager("host-1", Bau, 10); err != ErrHostCannotBet {
		t.Errorf("Expected ErrHostCannotBet, got %v", err)
	}
	if _, err := r.ConfirmWager("host-1"); err != ErrHostCannotBet {
		t.Errorf("Expected ErrHostCannotBet on confirm, got %v", err)
	}
}

func TestRoom_StartRollGuards(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)

	if err := r.StartRoll("player-a"); err != ErrNotHost {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}
	if err := r.StartRoll("host-1"); err != ErrNoPlayersConfirmed {
		t.Errorf("Expected ErrNoPlayersConfirmed, got %v", err)
	}

	r.SetWager("player-a", Ga, 10)
	r.ConfirmWager("player-a")
	if err := r.StartRoll("host-1"); err != nil {
		t.Fatalf("StartRoll failed: %v", err)
	}

	// Roll in flight: no wagers, no second roll.
	if _, err := r.SetWager("player-a", Bau, 10); err != ErrNotBettingPhase {
		t.Errorf("Expected ErrNotBettingPhase during roll, got %v", err)
	}
	if err := r.StartRoll("host-1"); err != ErrAlreadyRolling {
		t.Errorf("Expected ErrAlreadyRolling, got %v", err)
	}
}

func TestRoom_FinishRollSettlesAtMostOnce(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)
	r.SetWager("player-a", Tom, 10)
	r.ConfirmWager("player-a")
	r.StartRoll("host-1")

	if _, err := r.FinishRoll(); err != nil {
		t.Fatalf("FinishRoll failed: %v", err)
	}
	if _, err := r.FinishRoll(); err != ErrNoRollInFlight {
		t.Errorf("Second FinishRoll should fail, got %v", err)
	}
}

func TestRoom_FinishRollClearsRoundState(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)
	r.SetWager("player-a", Tom, 10)
	r.ConfirmWager("player-a")
	r.StartRoll("host-1")
	r.FinishRoll()

	if r.Phase() != state.PhaseBetting {
		t.Errorf("Expected betting phase after settlement, got %s", r.Phase())
	}
	if st := r.StakesFor("player-a"); !st.IsZero() {
		t.Error("Stakes should be cleared after settlement")
	}
	if got := r.ConfirmedPlayers(); len(got) != 0 {
		t.Errorf("Confirmations should be cleared, got %v", got)
	}
	if p, _ := r.GetPlayer("player-a"); p.IsConfirmed {
		t.Error("Player confirmation flag should be cleared")
	}
}

func TestRoom_RejoinKeepsSeatState(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 777)
	r.SetWager("player-a", Nai, 70)
	r.DisconnectPlayer("player-a")

	p, existed, err := r.AddPlayer("player-a", "Anna", 0)
	if err != nil {
		t.Fatalf("Rejoin failed: %v", err)
	}
	if !existed {
		t.Error("Rejoin should report the existing seat")
	}
	if p.Balance != 777 {
		t.Errorf("Balance should survive rejoin, got %d", p.Balance)
	}
	if st := r.StakesFor("player-a"); st[Nai] != 70 {
		t.Errorf("Stakes should survive rejoin, got %d on nai", st[Nai])
	}
	if !p.IsConnected {
		t.Error("Rejoin should restore the liveness flag")
	}
}

func TestRoom_RoomFull(t *testing.T) {
	r := NewRoom("ROOM01", "host-1", "Host", 0, Config{MaxPlayers: 2})
	r.AddPlayer("player-1", "A", 0)
	r.AddPlayer("player-2", "B", 0)

	if _, _, err := r.AddPlayer("player-3", "C", 0); err != ErrRoomFull {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}
	// A seated player is never bounced by the cap.
	if _, existed, err := r.AddPlayer("player-1", "A", 0); err != nil || !existed {
		t.Errorf("Seated player rejoin should succeed, got existed=%v err=%v", existed, err)
	}
}

func TestRoom_HistoryBounded(t *testing.T) {
	r := NewRoom("ROOM01", "host-1", "Host", 0, Config{
		MaxHistory: 3,
		Roller:     &stubRoller{},
	})
	r.AddPlayer("player-a", "Anna", 1_000_000)

	for i := 0; i < 5; i++ {
		r.SetWager("player-a", Bau, 10)
		r.ConfirmWager("player-a")
		if err := r.StartRoll("host-1"); err != nil {
			t.Fatalf("StartRoll round %d failed: %v", i+1, err)
		}
		if _, err := r.FinishRoll(); err != nil {
			t.Fatalf("FinishRoll round %d failed: %v", i+1, err)
		}
	}

	st := r.State()
	if len(st.History) != 3 {
		t.Fatalf("Expected history capped at 3, got %d", len(st.History))
	}
	// Newest first.
	if st.History[0].RoundNumber != 5 || st.History[2].RoundNumber != 3 {
		t.Errorf("Unexpected history order: %d..%d", st.History[0].RoundNumber, st.History[2].RoundNumber)
	}
	if st.CurrentRound != 5 {
		t.Errorf("Expected round counter 5, got %d", st.CurrentRound)
	}
}

func TestRoom_TransferHostKeepsPhase(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)
	r.AddPlayer("player-b", "Bela", 0)

	newHostID, newHostName, ok := r.TransferHost()
	if !ok || newHostID != "player-a" || newHostName != "Anna" {
		t.Fatalf("Expected player-a to take over, got %s/%s ok=%v", newHostID, newHostName, ok)
	}
	if _, exists := r.GetPlayer("player-a"); exists {
		t.Error("New host must leave the player list")
	}
	if r.Phase() != state.PhaseBetting {
		t.Errorf("Host transfer must not reset the phase, got %s", r.Phase())
	}
	if !r.IsHost("player-a") {
		t.Error("IsHost should recognize the new host")
	}
}

func TestRoom_TransferHostSkipsDisconnected(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)
	r.AddPlayer("player-b", "Bela", 0)
	r.DisconnectPlayer("player-a")

	newHostID, _, ok := r.TransferHost()
	if !ok || newHostID != "player-b" {
		t.Errorf("Expected player-b to take over, got %s ok=%v", newHostID, ok)
	}
}

func TestRoom_TransferHostNoCandidate(t *testing.T) {
	r := newTestRoom(0)
	if _, _, ok := r.TransferHost(); ok {
		t.Error("Empty room must not produce a host")
	}

	r.AddPlayer("player-a", "Anna", 0)
	r.DisconnectPlayer("player-a")
	if _, _, ok := r.TransferHost(); ok {
		t.Error("Room with only disconnected players must not produce a host")
	}
}

func TestRoom_LastPlayerLeavingResetsPhase(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)
	if r.Phase() != state.PhaseBetting {
		t.Fatalf("Expected betting phase after first join, got %s", r.Phase())
	}

	r.RemovePlayer("player-a")
	if r.Phase() != state.PhaseWaiting {
		t.Errorf("Expected waiting phase after last leave, got %s", r.Phase())
	}
}

func TestRoom_SetBalanceGuards(t *testing.T) {
	r := newTestRoom(0)
	r.AddPlayer("player-a", "Anna", 0)

	if err := r.SetBalance("player-a", 5000); err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}
	if p, _ := r.GetPlayer("player-a"); p.Balance != 5000 {
		t.Errorf("Expected balance 5000, got %d", p.Balance)
	}
	if err := r.SetBalance("player-a", -1); err != ErrInvalidBalance {
		t.Errorf("Expected ErrInvalidBalance, got %v", err)
	}
	if err := r.SetBalance("ghost", 100); err != ErrPlayerNotFound {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
	if err := r.SetBankerBalance(0); err != ErrInvalidBalance {
		t.Errorf("Expected ErrInvalidBalance for banker, got %v", err)
	}
}

func TestRoom_StateRoundTrip(t *testing.T) {
	r := newTestRoom(50000, [DiceCount]Symbol{Bau, Bau, Bau}, [DiceCount]Symbol{Ca, Ca, Cua})
	r.AddPlayer("player-a", "Anna", 1000)
	r.AddPlayer("player-b", "Bela", 2000)
	r.SetWager("player-a", Ca, 50)
	r.ConfirmWager("player-a")

	st := r.State()

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded RoomState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	restored := Restore(decoded, Config{
		Roller: &stubRoller{draws: [][DiceCount]Symbol{{Ca, Ca, Cua}}},
	})

	// The restored room behaves exactly like the original would.
	if err := restored.StartRoll("host-1"); err != nil {
		t.Fatalf("StartRoll on restored room failed: %v", err)
	}
	result, err := restored.FinishRoll()
	if err != nil {
		t.Fatalf("FinishRoll on restored room failed: %v", err)
	}
	if p, _ := restored.GetPlayer("player-a"); p.Balance != 1100 {
		t.Errorf("Expected restored settlement balance 1100, got %d", p.Balance)
	}
	if result.BankerBalance != 49900 {
		t.Errorf("Expected restored banker 49900, got %d", result.BankerBalance)
	}
	if b, _ := restored.GetPlayer("player-b"); b.Balance != 2000 {
		t.Errorf("Unconfirmed player must be untouched, got %d", b.Balance)
	}
}
