// presence/presence.go
package presence

import (
	"sync"
	"time"

	"github.com/wfunc/baucua-server/logger"
	"github.com/wfunc/baucua-server/room"
)

// Scheduler 掉线宽限定时器的调度接口，由 timer.Manager 实现。
// 测试里用手写的假调度器同步触发回调。
type Scheduler interface {
	Add(delay time.Duration, interval time.Duration, callback func()) int64
	Remove(taskID int64)
}

// RoomEvents receives the room-level consequences of a grace expiry. The
// transport layer implements it to fan the events out to room members.
type RoomEvents interface {
	PlayerRemoved(roomID, playerID string)
	HostChanged(roomID, newHostID, newHostName string)
	RoomClosed(roomID string)
}

// Controller tracks which player occupies which room and owns the
// disconnect-grace timers. Timers are keyed by player id and survive
// reconnection attempts that target rooms that may no longer exist, so the
// seat map lives here rather than on the Room.
type Controller struct {
	registry *room.Registry
	sched    Scheduler
	events   RoomEvents
	grace    time.Duration

	seats  map[string]string // playerID -> roomID
	timers map[string]int64  // playerID -> pending grace task
	mutex  sync.Mutex
}

// NewController creates a presence controller.
func NewController(registry *room.Registry, sched Scheduler, events RoomEvents, grace time.Duration) *Controller {
	return &Controller{
		registry: registry,
		sched:    sched,
		events:   events,
		grace:    grace,
		seats:    make(map[string]string),
		timers:   make(map[string]int64),
	}
}

// Track records that a player (or host) occupies a room and cancels any
// stale grace timer left from a previous connection.
func (c *Controller) Track(playerID, roomID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.seats[playerID] = roomID
	c.cancelTimerLocked(playerID)
}

// Forget drops the seat on voluntary leave. A grace timer firing afterwards
// becomes a no-op.
func (c *Controller) Forget(playerID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.seats, playerID)
	c.cancelTimerLocked(playerID)
}

// RoomID returns the room a tracked player occupies.
func (c *Controller) RoomID(playerID string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	roomID, exists := c.seats[playerID]
	return roomID, exists
}

// HandleDisconnect clears the player's liveness flag and starts the grace
// window. The seat is held until the window expires or the player returns.
func (c *Controller) HandleDisconnect(playerID string) {
	c.mutex.Lock()
	roomID, exists := c.seats[playerID]
	if !exists {
		c.mutex.Unlock()
		return
	}
	c.cancelTimerLocked(playerID)
	taskID := c.sched.Add(c.grace, 0, func() {
		c.onGraceExpired(playerID)
	})
	c.timers[playerID] = taskID
	c.mutex.Unlock()

	r, exists := c.registry.GetRoom(roomID)
	if !exists {
		return
	}
	if r.IsHost(playerID) {
		r.DisconnectHost()
	} else {
		r.DisconnectPlayer(playerID)
	}
	logger.Log.Infow("grace window started", "player_id", playerID, "room_id", roomID, "grace", c.grace)
}

// HandleReconnect cancels the grace timer and restores liveness. Returns the
// room the player still occupies, or false when the seat or room is gone.
// A missing seat entry falls back to scanning the registry: the player may
// still hold a seat the controller never tracked.
func (c *Controller) HandleReconnect(playerID string) (*room.Room, bool) {
	c.mutex.Lock()
	c.cancelTimerLocked(playerID)
	roomID, seated := c.seats[playerID]
	c.mutex.Unlock()

	var r *room.Room
	if seated {
		var exists bool
		r, exists = c.registry.GetRoom(roomID)
		if !exists {
			c.Forget(playerID)
			return nil, false
		}
	} else {
		var found bool
		r, found = c.registry.FindRoomByPlayer(playerID)
		if !found {
			return nil, false
		}
		c.mutex.Lock()
		c.seats[playerID] = r.ID
		c.mutex.Unlock()
	}

	if r.IsHost(playerID) {
		r.ReconnectHost()
	} else if !r.ReconnectPlayer(playerID) {
		return nil, false
	}
	return r, true
}

// onGraceExpired runs on the timer goroutine. It re-checks every fact under
// the controller lock first: the player may have reconnected, left
// voluntarily, or the room may already be gone.
func (c *Controller) onGraceExpired(playerID string) {
	c.mutex.Lock()
	if _, pending := c.timers[playerID]; !pending {
		c.mutex.Unlock()
		return
	}
	delete(c.timers, playerID)
	roomID, seated := c.seats[playerID]
	if !seated {
		c.mutex.Unlock()
		return
	}
	delete(c.seats, playerID)
	c.mutex.Unlock()

	r, exists := c.registry.GetRoom(roomID)
	if !exists {
		return
	}

	if r.IsHost(playerID) {
		c.failoverHost(r)
		return
	}

	r.RemovePlayer(playerID)
	logger.Log.Infow("player removed after grace expiry", "player_id", playerID, "room_id", roomID)
	c.events.PlayerRemoved(roomID, playerID)
}

func (c *Controller) failoverHost(r *room.Room) {
	newHostID, newHostName, ok := r.TransferHost()
	if !ok {
		c.registry.RemoveRoom(r.ID)
		logger.Log.Infow("host grace expired with no successor, room closed", "room_id", r.ID)
		c.events.RoomClosed(r.ID)
		return
	}
	logger.Log.Infow("host grace expired, host transferred", "room_id", r.ID, "new_host_id", newHostID)
	c.events.HostChanged(r.ID, newHostID, newHostName)
}

func (c *Controller) cancelTimerLocked(playerID string) {
	if taskID, pending := c.timers[playerID]; pending {
		c.sched.Remove(taskID)
		delete(c.timers, playerID)
	}
}
