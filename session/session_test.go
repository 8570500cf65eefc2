package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/baucua-server/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestManager_AddGetRemove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("sess-1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count 1, got %d", manager.Count())
	}

	got, exists := manager.Get("sess-1")
	if !exists || got != sess {
		t.Fatal("Get should return the added session instance")
	}

	manager.Remove("sess-1")
	if _, exists := manager.Get("sess-1"); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestSession_BindAndClearRoom(t *testing.T) {
	sess := NewSession("sess-1", &MockConnection{})

	sess.Bind("player-1", "ABC234", true)
	if sess.PlayerID() != "player-1" || sess.RoomID() != "ABC234" || !sess.IsHost() {
		t.Error("Bind should set player id, room id and host flag")
	}

	sess.ClearRoom()
	if sess.PlayerID() != "" || sess.RoomID() != "" || sess.IsHost() {
		t.Error("ClearRoom should detach the session from its room")
	}
}

func TestManager_GetByRoomID(t *testing.T) {
	manager := NewManager()

	a := NewSession("sess-a", &MockConnection{})
	a.Bind("player-a", "ROOM01", false)
	b := NewSession("sess-b", &MockConnection{})
	b.Bind("player-b", "ROOM01", false)
	c := NewSession("sess-c", &MockConnection{})
	c.Bind("player-c", "ROOM02", false)

	manager.Add(a)
	manager.Add(b)
	manager.Add(c)

	if got := manager.GetByRoomID("ROOM01"); len(got) != 2 {
		t.Errorf("Expected 2 sessions in ROOM01, got %d", len(got))
	}
	if got := manager.GetByRoomID("ROOM03"); len(got) != 0 {
		t.Errorf("Expected no sessions in ROOM03, got %d", len(got))
	}
}

func TestManager_GetByPlayerID(t *testing.T) {
	manager := NewManager()

	a := NewSession("sess-a", &MockConnection{})
	a.Bind("player-a", "ROOM01", false)
	manager.Add(a)

	got, exists := manager.GetByPlayerID("player-a")
	if !exists || got != a {
		t.Fatal("GetByPlayerID should find the bound session")
	}
	if _, exists := manager.GetByPlayerID("player-x"); exists {
		t.Fatal("GetByPlayerID should not find an unbound player")
	}
}
