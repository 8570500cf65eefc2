// room/registry.go
package room

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// 房间号字母表剔除了易混淆字符（0/O、1/I/L）
const (
	roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomIDLength   = 6
)

// Registry 进程级的房间注册表：房间号到房间的并发映射，唯一拥有房间
// 存在性的裁决权。按生命周期注入，不做包级单例，便于隔离测试。
type Registry struct {
	rooms map[string]*Room
	cfg   Config
	rnd   *rand.Rand
	mutex sync.RWMutex
}

// NewRegistry creates a registry whose rooms share the given rule config.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom generates a collision-free room code and registers a new room.
func (g *Registry) CreateRoom(hostID, hostName string, bankerBalance int64) *Room {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	id := g.generateIDLocked()
	r := NewRoom(id, hostID, hostName, bankerBalance, g.cfg)
	g.rooms[id] = r
	return r
}

func (g *Registry) generateIDLocked() string {
	for {
		var b strings.Builder
		for i := 0; i < roomIDLength; i++ {
			b.WriteByte(roomIDAlphabet[g.rnd.Intn(len(roomIDAlphabet))])
		}
		id := b.String()
		if _, taken := g.rooms[id]; !taken {
			return id
		}
	}
}

// GetRoom looks a room up by code. Codes are case-insensitive on the wire.
func (g *Registry) GetRoom(id string) (*Room, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	r, exists := g.rooms[strings.ToUpper(strings.TrimSpace(id))]
	return r, exists
}

// RemoveRoom deletes the room from the registry.
func (g *Registry) RemoveRoom(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.rooms, id)
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.rooms)
}

// Summaries returns the projection list for room browsing.
func (g *Registry) Summaries() []RoomSummary {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	summaries := make([]RoomSummary, 0, len(g.rooms))
	for _, r := range g.rooms {
		summaries = append(summaries, r.Summary())
	}
	return summaries
}

// FindRoomByPlayer returns the room a player occupies, as host or player.
func (g *Registry) FindRoomByPlayer(playerID string) (*Room, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	for _, r := range g.rooms {
		if r.IsHost(playerID) {
			return r, true
		}
		if _, exists := r.GetPlayer(playerID); exists {
			return r, true
		}
	}
	return nil, false
}
