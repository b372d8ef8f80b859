package core

import (
	"sort"
	"sync"

	"github.com/Tail418/spellchat-server/internal/proto"
)

// Registry is the authoritative identity ↔ connection mapping. It is the only
// place a session is created or destroyed; both directions are kept in
// lockstep under one lock so a registration is never half visible.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[string]*Client
	identities map[*Client]string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[string]*Client),
		identities: make(map[*Client]string),
	}
}

// Register atomically checks and inserts the identity → client mapping.
// It fails with ErrInvalidIdentity for an empty or malformed identity and
// with ErrIdentityTaken when the identity is already mapped to a live
// connection. On failure the connection must not be treated as authenticated.
func (r *Registry) Register(identity string, c *Client) error {
	if !proto.ValidIdentity(identity) {
		return ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byIdentity[identity]; taken {
		return ErrIdentityTaken
	}
	r.byIdentity[identity] = c
	r.identities[c] = identity
	return nil
}

// Identity resolves the identity of a connection. Direct reverse lookup, no
// scan over sessions.
func (r *Registry) Identity(c *Client) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[c]
	return identity, ok
}

// Client resolves the connection behind an identity, for private-message
// routing.
func (r *Registry) Client(identity string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byIdentity[identity]
	return c, ok
}

// Unregister removes the session for the connection if present and returns
// the identity it had. Idempotent; called exactly once per connection's
// terminal cleanup, but safe to call again.
func (r *Registry) Unregister(c *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[c]
	if !ok {
		return "", false
	}
	delete(r.identities, c)
	delete(r.byIdentity, identity)
	return identity, true
}

// Identities returns a sorted snapshot of everyone online. Order is not
// protocol-significant; sorting keeps USER_LIST output stable.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byIdentity))
	for identity := range r.byIdentity {
		ids = append(ids, identity)
	}
	sort.Strings(ids)
	return ids
}

// Clients returns a snapshot of all registered connections, excluding the
// given one when non-nil.
func (r *Registry) Clients(exclude *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.identities))
	for c := range r.identities {
		if c == exclude {
			continue
		}
		clients = append(clients, c)
	}
	return clients
}
