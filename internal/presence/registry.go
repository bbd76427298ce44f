// Package presence tracks which live connections belong to which user and
// which connections are subscribed to which conversation room.
//
// A Registry is not safe for concurrent use. It is meant to be owned by a
// single goroutine (the websocket hub) which serializes every call.
package presence

type Set map[string]struct{}

type Registry struct {
	users map[string]Set // user id -> connection ids
	rooms map[string]Set // conversation id -> connection ids
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]Set),
		rooms: make(map[string]Set),
	}
}

// Register adds connID to the live connections of userID. Registering the
// same pair twice has no further effect.
func (r *Registry) Register(userID, connID string) {
	add(r.users, userID, connID)
}

// Deregister removes connID from userID. Once the user has no connections
// left its entry is removed entirely.
func (r *Registry) Deregister(connID, userID string) {
	remove(r.users, userID, connID)
}

// ConnectionsFor returns a copy of the live connections of userID.
func (r *Registry) ConnectionsFor(userID string) []string {
	return keys(r.users[userID])
}

// IsOnline reports whether userID has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.users[userID]
	return ok
}

func (r *Registry) JoinRoom(connID, conversationID string) {
	add(r.rooms, conversationID, connID)
}

func (r *Registry) LeaveRoom(connID, conversationID string) {
	remove(r.rooms, conversationID, connID)
}

// RoomMembers returns a copy of the connections subscribed to conversationID.
func (r *Registry) RoomMembers(conversationID string) []string {
	return keys(r.rooms[conversationID])
}

// LeaveAllRooms drops connID from every room it joined. Used when the
// transport closes.
func (r *Registry) LeaveAllRooms(connID string) {
	for conversationID := range r.rooms {
		remove(r.rooms, conversationID, connID)
	}
}

func add(m map[string]Set, key, connID string) {
	set, ok := m[key]
	if !ok {
		set = make(Set)
		m[key] = set
	}
	set[connID] = struct{}{}
}

func remove(m map[string]Set, key, connID string) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(m, key)
	}
}

func keys(set Set) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
