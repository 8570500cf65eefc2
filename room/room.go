// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/baucua-server/state"
)

// Config 房间规则参数，零值字段回退到默认值
type Config struct {
	MaxPlayers           int   // 不含庄家
	MaxHistory           int
	InitialPlayerBalance int64
	InitialBankerBalance int64
	Roller               Roller
}

const (
	defaultMaxPlayers           = 10
	defaultMaxHistory           = 50
	defaultInitialPlayerBalance = 1000
	defaultInitialBankerBalance = 1_000_000
)

func (c Config) withDefaults() Config {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = defaultMaxPlayers
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = defaultMaxHistory
	}
	if c.InitialPlayerBalance <= 0 {
		c.InitialPlayerBalance = defaultInitialPlayerBalance
	}
	if c.InitialBankerBalance <= 0 {
		c.InitialBankerBalance = defaultInitialBankerBalance
	}
	if c.Roller == nil {
		c.Roller = NewRoller(0)
	}
	return c
}

// Room 是一局游戏的核心结构：玩家、注单、确认集合、庄家余额、骰子、
// 回合计数与有界历史。所有修改操作都持有同一把锁，对外表现为原子操作。
type Room struct {
	ID        string
	CreatedAt time.Time

	hostID        string
	hostName      string
	hostConnected bool

	bankerBalance int64
	players       map[string]*Player
	order         []string // join order
	stakes        map[string]*Stakes
	confirmed     map[string]bool
	dice          [DiceCount]Symbol
	round         int
	history       []RoundHistory // newest first

	phase  *state.Machine
	cfg    Config
	roller Roller
	mutex  sync.Mutex
}

// NewRoom 创建一个新房间。bankerBalance <= 0 时使用默认庄家余额。
func NewRoom(id, hostID, hostName string, bankerBalance int64, cfg Config) *Room {
	cfg = cfg.withDefaults()
	if bankerBalance <= 0 {
		bankerBalance = cfg.InitialBankerBalance
	}
	r := &Room{
		ID:            id,
		CreatedAt:     time.Now(),
		hostID:        hostID,
		hostName:      hostName,
		hostConnected: true,
		bankerBalance: bankerBalance,
		players:       make(map[string]*Player),
		stakes:        make(map[string]*Stakes),
		confirmed:     make(map[string]bool),
		phase:         state.NewMachine(state.PhaseWaiting),
		cfg:           cfg,
		roller:        cfg.Roller,
	}
	r.dice = r.roller.Roll()
	return r
}

// --- 只读访问 ---

func (r *Room) HostID() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.hostID
}

func (r *Room) HostName() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.hostName
}

func (r *Room) IsHost(playerID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return playerID == r.hostID
}

func (r *Room) Phase() state.Phase {
	return r.phase.Current()
}

func (r *Room) BankerBalance() int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.bankerBalance
}

func (r *Room) PlayerCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.players)
}

// GetPlayer returns a copy of the player record.
func (r *Room) GetPlayer(playerID string) (Player, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	p, exists := r.players[playerID]
	if !exists {
		return Player{}, false
	}
	return *p, true
}

// StakesFor returns a copy of the player's current stakes.
func (r *Room) StakesFor(playerID string) Stakes {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if st, exists := r.stakes[playerID]; exists {
		return *st
	}
	return Stakes{}
}

// ConfirmedPlayers returns the ids of confirmed players in join order.
func (r *Room) ConfirmedPlayers() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.confirmedLocked()
}

func (r *Room) confirmedLocked() []string {
	ids := make([]string, 0, len(r.confirmed))
	for _, id := range r.order {
		if r.confirmed[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// --- 玩家管理 ---

// AddPlayer adds a player, or reactivates the existing record when the id is
// already seated (the reconnection path: balance, stakes and confirmation
// state are kept untouched). The returned flag reports reactivation.
func (r *Room) AddPlayer(playerID, name string, startingBalance int64) (Player, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.players[playerID]; ok {
		existing.IsConnected = true
		return *existing, true, nil
	}
	if len(r.players) >= r.cfg.MaxPlayers {
		return Player{}, false, ErrRoomFull
	}

	balance := r.cfg.InitialPlayerBalance
	if startingBalance > 0 {
		balance = startingBalance
	}
	p := &Player{
		ID:          playerID,
		Name:        name,
		Balance:     balance,
		IsConnected: true,
	}
	r.players[playerID] = p
	r.order = append(r.order, playerID)
	r.stakes[playerID] = &Stakes{}

	if r.phase.Is(state.PhaseWaiting) {
		_ = r.phase.Transition(state.PhaseBetting)
	}
	return *p, false, nil
}

// RemovePlayer deletes the player, their stakes and confirmation flag. When
// the last player leaves the phase resets to waiting.
func (r *Room) RemovePlayer(playerID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.players[playerID]; !exists {
		return
	}
	delete(r.players, playerID)
	delete(r.stakes, playerID)
	delete(r.confirmed, playerID)
	r.order = removeID(r.order, playerID)

	if len(r.players) == 0 && !r.phase.Is(state.PhaseWaiting) {
		_ = r.phase.Transition(state.PhaseWaiting)
	}
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// DisconnectPlayer clears the liveness flag; the seat, balance and wagers
// are held for the grace window.
func (r *Room) DisconnectPlayer(playerID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	p, exists := r.players[playerID]
	if !exists {
		return false
	}
	p.IsConnected = false
	return true
}

// ReconnectPlayer restores liveness without touching any other state.
func (r *Room) ReconnectPlayer(playerID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	p, exists := r.players[playerID]
	if !exists {
		return false
	}
	p.IsConnected = true
	return true
}

func (r *Room) DisconnectHost() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.hostConnected = false
}

func (r *Room) ReconnectHost() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.hostConnected = true
}

func (r *Room) HostConnected() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.hostConnected
}

// SetBalance 外部直接改写玩家余额（守恒性质之外唯一的资金入口）
func (r *Room) SetBalance(playerID string, amount int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, exists := r.players[playerID]
	if !exists {
		return ErrPlayerNotFound
	}
	if amount < 0 {
		return ErrInvalidBalance
	}
	p.Balance = amount
	return nil
}

// SetBankerBalance replaces the banker pool. Only positive amounts apply.
func (r *Room) SetBankerBalance(amount int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if amount <= 0 {
		return ErrInvalidBalance
	}
	r.bankerBalance = amount
	return nil
}

// --- 下注 ---

// SetWager sets the player's stake on one symbol to an absolute amount.
func (r *Room) SetWager(playerID string, symbol Symbol, amount int64) (Stakes, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if playerID == r.hostID {
		return Stakes{}, ErrHostCannotBet
	}
	if !r.phase.Is(state.PhaseBetting) {
		return Stakes{}, ErrNotBettingPhase
	}
	p, exists := r.players[playerID]
	if !exists {
		return Stakes{}, ErrPlayerNotFound
	}
	if r.confirmed[playerID] {
		return Stakes{}, ErrAlreadyConfirmed
	}
	if amount < 0 || int(symbol) >= NumSymbols {
		return Stakes{}, ErrInvalidAmount
	}

	st := r.stakes[playerID]
	otherTotal := st.Total() - st[symbol]
	if otherTotal+amount > p.Balance {
		return Stakes{}, ErrInsufficientBalance
	}

	st[symbol] = amount
	return *st, nil
}

// ResetWager clears every stake for the player.
func (r *Room) ResetWager(playerID string) (Stakes, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if playerID == r.hostID {
		return Stakes{}, ErrHostCannotBet
	}
	if !r.phase.Is(state.PhaseBetting) {
		return Stakes{}, ErrNotBettingPhase
	}
	if _, exists := r.players[playerID]; !exists {
		return Stakes{}, ErrPlayerNotFound
	}
	if r.confirmed[playerID] {
		return Stakes{}, ErrAlreadyConfirmed
	}

	r.stakes[playerID] = &Stakes{}
	return Stakes{}, nil
}

// ConfirmWager freezes the player's wager for this round. The balance check
// is repeated here: the balance may have changed since the stakes were set.
func (r *Room) ConfirmWager(playerID string) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if playerID == r.hostID {
		return nil, ErrHostCannotBet
	}
	if !r.phase.Is(state.PhaseBetting) {
		return nil, ErrNotBettingPhase
	}
	p, exists := r.players[playerID]
	if !exists {
		return nil, ErrPlayerNotFound
	}

	total := r.stakes[playerID].Total()
	if total == 0 {
		return nil, ErrNoWagerPlaced
	}
	if total > p.Balance {
		return nil, ErrInsufficientBalance
	}

	p.IsConfirmed = true
	r.confirmed[playerID] = true
	return r.confirmedLocked(), nil
}

// UnconfirmWager lifts the freeze before the roll starts.
func (r *Room) UnconfirmWager(playerID string) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if playerID == r.hostID {
		return nil, ErrHostCannotBet
	}
	if !r.phase.Is(state.PhaseBetting) {
		return nil, ErrNotBettingPhase
	}
	if p, exists := r.players[playerID]; exists {
		p.IsConfirmed = false
	}
	delete(r.confirmed, playerID)
	return r.confirmedLocked(), nil
}

// --- 掷骰与结算 ---

// StartRoll debits every confirmed player's total stake into the banker pool
// and freezes the room. All debits and the phase flip happen under the lock:
// either every confirmed player is charged, or the call fails untouched.
func (r *Room) StartRoll(requesterID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if requesterID != r.hostID {
		return ErrNotHost
	}
	if !r.phase.Is(state.PhaseBetting) {
		return ErrAlreadyRolling
	}
	if len(r.confirmed) == 0 {
		return ErrNoPlayersConfirmed
	}

	for _, playerID := range r.order {
		if !r.confirmed[playerID] {
			continue
		}
		p := r.players[playerID]
		total := r.stakes[playerID].Total()
		if total > 0 {
			p.Balance -= total
			r.bankerBalance += total
		}
	}

	return r.phase.Transition(state.PhaseRolling)
}

// FinishRoll draws the dice and settles every confirmed wager. A stake on a
// symbol showing on n dice pays stake*n plus the stake back; symbols with no
// match are lost to the banker. Wagers and confirmations are cleared and the
// room returns to the betting phase.
func (r *Room) FinishRoll() (*RollResult, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.phase.Is(state.PhaseRolling) {
		return nil, ErrNoRollInFlight
	}

	r.dice = r.roller.Roll()
	r.round++

	var (
		results        []RoundPlayerResult
		bankerPayout   int64
		totalCollected int64
	)

	for _, playerID := range r.order {
		if !r.confirmed[playerID] {
			continue
		}
		p := r.players[playerID]
		st := r.stakes[playerID]

		totalStake := st.Total()
		if totalStake == 0 {
			continue
		}
		totalCollected += totalStake

		var winAmount, totalReturn int64
		for sym := Symbol(0); sym < NumSymbols; sym++ {
			stake := st[sym]
			if stake <= 0 {
				continue
			}
			matches := int64(0)
			for _, d := range r.dice {
				if d == sym {
					matches++
				}
			}
			if matches > 0 {
				winAmount += stake * matches
				totalReturn += stake*matches + stake
			}
		}

		p.Balance += totalReturn
		bankerPayout += totalReturn

		results = append(results, RoundPlayerResult{
			PlayerID:   playerID,
			PlayerName: p.Name,
			Stakes:     *st,
			TotalStake: totalStake,
			WinAmount:  winAmount,
			Profit:     totalReturn - totalStake,
		})
	}

	r.bankerBalance -= bankerPayout

	entry := RoundHistory{
		ID:            uuid.New().String(),
		RoundNumber:   r.round,
		Dice:          r.dice,
		Results:       results,
		BankerDelta:   totalCollected - bankerPayout,
		BankerBalance: r.bankerBalance,
		Timestamp:     time.Now(),
	}
	r.history = append([]RoundHistory{entry}, r.history...)
	if len(r.history) > r.cfg.MaxHistory {
		r.history = r.history[:r.cfg.MaxHistory]
	}

	for _, p := range r.players {
		p.IsConfirmed = false
	}
	r.confirmed = make(map[string]bool)
	for playerID := range r.stakes {
		r.stakes[playerID] = &Stakes{}
	}

	if err := r.phase.Transition(state.PhaseBetting); err != nil {
		return nil, err
	}

	return &RollResult{
		Dice:           r.dice,
		Results:        results,
		History:        entry,
		BankerBalance:  r.bankerBalance,
		UpdatedPlayers: r.playersLocked(),
	}, nil
}

// --- 庄家接管 ---

// TransferHost promotes the first connected player in join order. The new
// host's player record is removed: the host is never also a player. Returns
// false when no live player is eligible and the room should be torn down.
func (r *Room) TransferHost() (newHostID, newHostName string, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, playerID := range r.order {
		p := r.players[playerID]
		if p == nil || !p.IsConnected {
			continue
		}
		r.hostID = p.ID
		r.hostName = p.Name
		r.hostConnected = true

		delete(r.players, playerID)
		delete(r.stakes, playerID)
		delete(r.confirmed, playerID)
		r.order = removeID(r.order, playerID)
		return p.ID, p.Name, true
	}
	return "", "", false
}

// --- 快照 ---

// Summary returns the read-only projection used by the room browser.
func (r *Room) Summary() RoomSummary {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return RoomSummary{
		ID:          r.ID,
		HostName:    r.hostName,
		PlayerCount: len(r.players),
		MaxPlayers:  r.cfg.MaxPlayers,
		Phase:       r.phase.Current(),
	}
}

// State returns the full serializable snapshot of the room.
func (r *Room) State() RoomState {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stakes := make(map[string]Stakes, len(r.stakes))
	for playerID, st := range r.stakes {
		stakes[playerID] = *st
	}
	history := make([]RoundHistory, len(r.history))
	copy(history, r.history)

	return RoomState{
		ID:            r.ID,
		HostID:        r.hostID,
		HostName:      r.hostName,
		HostConnected: r.hostConnected,
		Phase:         r.phase.Current(),
		BankerBalance: r.bankerBalance,
		Players:       r.playersLocked(),
		Stakes:        stakes,
		Confirmed:     r.confirmedLocked(),
		Dice:          r.dice,
		History:       history,
		CurrentRound:  r.round,
	}
}

func (r *Room) playersLocked() []Player {
	players := make([]Player, 0, len(r.players))
	for _, playerID := range r.order {
		if p, exists := r.players[playerID]; exists {
			players = append(players, *p)
		}
	}
	return players
}

// Restore rebuilds a room from a State snapshot. The next operation on the
// restored room observes exactly the behavior the original room would have.
func Restore(st RoomState, cfg Config) *Room {
	cfg = cfg.withDefaults()
	r := &Room{
		ID:            st.ID,
		CreatedAt:     time.Now(),
		hostID:        st.HostID,
		hostName:      st.HostName,
		hostConnected: st.HostConnected,
		bankerBalance: st.BankerBalance,
		players:       make(map[string]*Player, len(st.Players)),
		stakes:        make(map[string]*Stakes, len(st.Stakes)),
		confirmed:     make(map[string]bool, len(st.Confirmed)),
		dice:          st.Dice,
		round:         st.CurrentRound,
		history:       append([]RoundHistory(nil), st.History...),
		phase:         state.NewMachine(st.Phase),
		cfg:           cfg,
		roller:        cfg.Roller,
	}
	for _, p := range st.Players {
		cp := p
		r.players[p.ID] = &cp
		r.order = append(r.order, p.ID)
		stakes := st.Stakes[p.ID]
		r.stakes[p.ID] = &stakes
	}
	for _, playerID := range st.Confirmed {
		r.confirmed[playerID] = true
	}
	return r
}
