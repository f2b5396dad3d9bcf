package realtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pushp314/chatbridge-backend/internal/metrics"
)

// Conn is a live connection that events can be pushed to.
// Emit may be called after the peer went away and must then return an error.
type Conn interface {
	ID() string
	Emit(event string, payload interface{}) error
}

const roomPrefix = "user_"

// RoomFor returns the room a user's connections are tagged with
func RoomFor(userID uint) string {
	return roomPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseRoom is the inverse of RoomFor
func ParseRoom(room string) (uint, error) {
	raw, ok := strings.CutPrefix(room, roomPrefix)
	if !ok {
		return 0, fmt.Errorf("room %q is not a user room", room)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("room %q is not a user room", room)
	}
	return uint(id), nil
}

// Registry maps users to their live connections. A connection belongs to at
// most one user. It lives in memory only and starts empty on every boot.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uint]map[string]Conn
	owner map[string]uint
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[uint]map[string]Conn),
		owner: make(map[string]uint),
	}
}

// Join tags conn with userID's room. Joining the same room again is a no-op;
// joining a different one moves the connection. It reports whether userID went
// from offline to online.
func (r *Registry) Join(userID uint, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	if prev, ok := r.owner[id]; ok {
		if prev == userID {
			return false
		}
		r.removeLocked(prev, id)
	}

	conns, ok := r.rooms[userID]
	if !ok {
		conns = make(map[string]Conn)
		r.rooms[userID] = conns
	}
	conns[id] = conn
	r.owner[id] = userID
	metrics.LiveConnections.Set(float64(len(r.owner)))

	return len(conns) == 1
}

// Leave drops conn from whatever room it is in. It returns the user it belonged
// to and whether that user has no connections left. Unknown connections are
// ignored.
func (r *Registry) Leave(conn Conn) (userID uint, offline bool) {
	return r.LeaveID(conn.ID())
}

// LeaveID is Leave keyed by connection id
func (r *Registry) LeaveID(connID string) (userID uint, offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owner[connID]
	if !ok {
		return 0, false
	}
	offline = r.removeLocked(userID, connID)
	metrics.LiveConnections.Set(float64(len(r.owner)))
	return userID, offline
}

func (r *Registry) removeLocked(userID uint, connID string) bool {
	delete(r.owner, connID)
	conns := r.rooms[userID]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.rooms, userID)
		return true
	}
	return false
}

// LivesFor returns a snapshot of userID's connections. Callers may iterate it
// while connections come and go.
func (r *Registry) LivesFor(userID uint) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.rooms[userID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[userID]) > 0
}

// OnlineUsers returns the ids of users with at least one connection, ascending
func (r *Registry) OnlineUsers() []uint {
	r.mu.RLock()
	users := make([]uint, 0, len(r.rooms))
	for id := range r.rooms {
		users = append(users, id)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owner)
}
