package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxRooms = 200

// RoomManager owns the room registry and the single simulation driver
// that advances every room once per tick.
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	reporter *Reporter
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRoomManager creates an empty registry.
func NewRoomManager(rep *Reporter) *RoomManager {
	return &RoomManager{
		rooms:    make(map[string]*Room),
		reporter: rep,
		stop:     make(chan struct{}),
	}
}

// CreateRoom provisions a fresh room in WAITING under a unique 4-digit
// code. A closed room only admits identities on the given roster.
func (rm *RoomManager) CreateRoom(roster []AllowedPlayer, open bool) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if len(rm.rooms) >= maxRooms {
		return nil, errors.New("too many active rooms")
	}

	var code string
	for i := 0; i < 64; i++ {
		c := GenerateRoomCode()
		if _, taken := rm.rooms[c]; !taken {
			code = c
			break
		}
	}
	if code == "" {
		return nil, errors.New("could not allocate a room code")
	}

	r := NewRoom(code, uuid.NewString(), roster, open, rm.reporter)
	rm.rooms[code] = r
	Log.Infow("room created", "room", code, "session", r.SessionID, "open", open)
	return r, nil
}

// GetRoom returns a room by code, or nil.
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[code]
}

// RoomCount returns the number of live rooms.
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// Run drives the fixed-rate simulation until Stop is called. One driver
// advances all rooms; each room's lock is held only for its own tick.
func (rm *RoomManager) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rm.step(time.Now())
		case <-rm.stop:
			return
		}
	}
}

// Stop terminates the driver.
func (rm *RoomManager) Stop() {
	rm.stopOnce.Do(func() { close(rm.stop) })
}

// step advances every room one tick, reaps lapsed grace deadlines and
// disposes of dead rooms. A panic in one room is contained so it cannot
// stall the others.
func (rm *RoomManager) step(now time.Time) {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	rm.mu.RUnlock()

	var dead []string
	for _, r := range rooms {
		func() {
			defer func() {
				if err := recover(); err != nil {
					Log.Errorw("tick panic", "room", r.Code, "err", err)
				}
			}()
			r.Tick(TickDt)
			r.Reap(now)
		}()
		if r.Disposable(now) {
			dead = append(dead, r.Code)
		}
	}

	if len(dead) > 0 {
		rm.mu.Lock()
		for _, code := range dead {
			delete(rm.rooms, code)
			Log.Infow("room disposed", "room", code)
		}
		rm.mu.Unlock()
	}
}
