package core

import "sync"

// Rooms is the room directory: named membership sets over connections.
// Rooms are created lazily on first join and deleted once their last member
// leaves; recreation is a single map insert, so nothing dangles.
type Rooms struct {
	mu      sync.Mutex
	members map[string]map[*Client]struct{}
}

// NewRooms constructs an empty directory.
func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[*Client]struct{})}
}

// Join adds the client to the room, creating it if absent, and returns the
// membership that existed immediately before the join so the caller can
// notify it.
func (r *Rooms) Join(room string, c *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[room]
	if !ok {
		set = make(map[*Client]struct{})
		r.members[room] = set
	}
	prior := make([]*Client, 0, len(set))
	for member := range set {
		if member != c {
			prior = append(prior, member)
		}
	}
	set[c] = struct{}{}
	return prior
}

// Leave removes the client from the room and returns the remaining members.
// The second result is false when the room or the membership did not exist;
// that case is a no-op, not an error.
func (r *Rooms) Leave(room string, c *Client) ([]*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[room]
	if !ok {
		return nil, false
	}
	if _, member := set[c]; !member {
		return nil, false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.members, room)
		return nil, true
	}
	remaining := make([]*Client, 0, len(set))
	for member := range set {
		remaining = append(remaining, member)
	}
	return remaining, true
}

// Member reports whether the client is currently in the room.
func (r *Rooms) Member(room string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[room]
	if !ok {
		return false
	}
	_, member := set[c]
	return member
}

// Members returns a snapshot of the room's membership, excluding the given
// client when non-nil.
func (r *Rooms) Members(room string, exclude *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[room]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for member := range set {
		if member == exclude {
			continue
		}
		out = append(out, member)
	}
	return out
}

// Purge removes the client from every room it belongs to. Called once during
// connection teardown so a disconnecting client never appears in a later
// room broadcast.
func (r *Rooms) Purge(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room, set := range r.members {
		if _, member := set[c]; !member {
			continue
		}
		delete(set, c)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// Counts returns room name → member count, for the status API.
func (r *Rooms) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int, len(r.members))
	for room, set := range r.members {
		counts[room] = len(set)
	}
	return counts
}
