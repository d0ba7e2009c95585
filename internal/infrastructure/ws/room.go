package ws

import (
	"sort"
	"sync"
)

// RoomManager is the per-instance registry of clients and their rooms.
// Rooms exist only while at least one client is joined.
type RoomManager struct {
	clients     map[string]*Client             // clientID -> client
	rooms       map[string]map[string]*Client  // room -> clientID -> client
	memberships map[string]map[string]struct{} // clientID -> rooms
	mu          sync.RWMutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (rm *RoomManager) AddClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.clients[cl.ID]; exists {
		return
	}
	rm.clients[cl.ID] = cl
	rm.memberships[cl.ID] = make(map[string]struct{})
}

// RemoveClient drops the client and every membership it holds. It returns
// false if the client was not registered.
func (rm *RoomManager) RemoveClient(cl *Client) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.clients[cl.ID]; !exists {
		return false
	}

	for room := range rm.memberships[cl.ID] {
		rm.removeFromRoomLocked(room, cl.ID)
	}
	delete(rm.memberships, cl.ID)
	delete(rm.clients, cl.ID)

	return true
}

func (rm *RoomManager) Has(clientID string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	_, ok := rm.clients[clientID]
	return ok
}

// Join adds a registered client to room. Joining twice is a no-op.
func (rm *RoomManager) Join(cl *Client, room string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rooms, ok := rm.memberships[cl.ID]
	if !ok {
		return false
	}

	members, ok := rm.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		rm.rooms[room] = members
	}
	members[cl.ID] = cl
	rooms[room] = struct{}{}

	return true
}

func (rm *RoomManager) Leave(cl *Client, room string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rooms, ok := rm.memberships[cl.ID]
	if !ok {
		return false
	}
	if _, joined := rooms[room]; !joined {
		return false
	}

	delete(rooms, room)
	rm.removeFromRoomLocked(room, cl.ID)

	return true
}

func (rm *RoomManager) removeFromRoomLocked(room, clientID string) {
	members, ok := rm.rooms[room]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(rm.rooms, room)
	}
}

// Members returns a snapshot of the clients joined to room.
func (rm *RoomManager) Members(room string) []*Client {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	members := rm.rooms[room]
	out := make([]*Client, 0, len(members))
	for _, cl := range members {
		out = append(out, cl)
	}
	return out
}

// All returns a snapshot of every registered client.
func (rm *RoomManager) All() []*Client {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	out := make([]*Client, 0, len(rm.clients))
	for _, cl := range rm.clients {
		out = append(out, cl)
	}
	return out
}

// RoomsOf returns the sorted room names a client belongs to.
func (rm *RoomManager) RoomsOf(clientID string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]string, 0, len(rm.memberships[clientID]))
	for room := range rm.memberships[clientID] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

func (rm *RoomManager) Stats() (clients int, rooms int) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return len(rm.clients), len(rm.rooms)
}
