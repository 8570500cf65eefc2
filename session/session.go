// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/baucua-server/network"
)

// Session 一条物理连接到逻辑玩家身份的映射
type Session struct {
	ID   string
	Conn network.Connection

	playerID   string
	roomID     string
	host       bool
	CreatedAt  time.Time
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

// Bind attaches the session to a player identity inside a room.
func (s *Session) Bind(playerID, roomID string, host bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.playerID = playerID
	s.roomID = roomID
	s.host = host
}

// ClearRoom detaches the session from its room, keeping the connection.
func (s *Session) ClearRoom() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.playerID = ""
	s.roomID = ""
	s.host = false
}

// SetHost flips the host flag after a host transfer.
func (s *Session) SetHost(host bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.host = host
}

func (s *Session) PlayerID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.playerID
}

func (s *Session) RoomID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.roomID
}

func (s *Session) IsHost() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.host
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(s *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[s.ID] = s
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, exists := m.sessions[sessionID]
	return s, exists
}

// GetByRoomID returns every session currently bound to a room. Room
// membership lives on the session, not the Room, so broadcast resolves
// recipients here.
func (m *Manager) GetByRoomID(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, s := range m.sessions {
		if s.RoomID() == roomID {
			result = append(result, s)
		}
	}
	return result
}

// GetByPlayerID returns the session bound to a player id, if any.
func (m *Manager) GetByPlayerID(playerID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, s := range m.sessions {
		if s.PlayerID() == playerID {
			return s, true
		}
	}
	return nil, false
}

// All returns a snapshot of every session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
