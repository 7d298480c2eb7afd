package testutil

import (
	"context"
	"errors"
	"sync"

	"messagely/internal/model"
)

// ParticipantCache is an in-memory participant cache. Setting Err makes
// every call fail.
type ParticipantCache struct {
	mu      sync.Mutex
	entries map[string]model.Participants
	Err     error
	Hits    int
}

func NewParticipantCache() *ParticipantCache {
	return &ParticipantCache{entries: make(map[string]model.Participants)}
}

func (c *ParticipantCache) GetParticipants(_ context.Context, id string) (model.Participants, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return model.Participants{}, false, c.Err
	}
	p, ok := c.entries[id]
	if ok {
		c.Hits++
	}
	return p, ok, nil
}

func (c *ParticipantCache) SetParticipants(_ context.Context, id string, p model.Participants) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[id] = p
	return nil
}

// ErrCacheDown is a convenience value for ParticipantCache.Err.
var ErrCacheDown = errors.New("cache down")

// Pushed is one event captured by Notifier.
type Pushed struct {
	Username string
	Payload  []byte
}

// Notifier records pushes. Users listed in Online receive them.
type Notifier struct {
	mu     sync.Mutex
	Online map[string]bool
	Sent   []Pushed
}

func NewNotifier(online ...string) *Notifier {
	n := &Notifier{Online: make(map[string]bool)}
	for _, u := range online {
		n.Online[u] = true
	}
	return n
}

func (n *Notifier) SendToUser(username string, msg []byte) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.Online[username] {
		return false
	}
	n.Sent = append(n.Sent, Pushed{Username: username, Payload: msg})
	return true
}

// Events returns a copy of the pushes so far.
func (n *Notifier) Events() []Pushed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Pushed(nil), n.Sent...)
}
