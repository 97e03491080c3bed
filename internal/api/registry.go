package api

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/unalkalkan/ReelPilot/internal/workflow"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// ErrTooManySessions is returned when the registry is full
var ErrTooManySessions = errors.New("maximum number of sessions reached")

// SessionRegistry owns the live session controllers
type SessionRegistry struct {
	gen   workflow.Generator
	base  workflow.Options
	limit int

	mu       sync.RWMutex
	sessions map[string]*workflow.Controller
}

// NewSessionRegistry creates a registry. base seeds every session's
// options; limit <= 0 means unlimited.
func NewSessionRegistry(gen workflow.Generator, base workflow.Options, limit int) *SessionRegistry {
	return &SessionRegistry{
		gen:      gen,
		base:     base,
		limit:    limit,
		sessions: make(map[string]*workflow.Controller),
	}
}

// Create starts a new session. A non-nil cfg replaces the default
// parameters; zero fields fall back to the defaults.
func (r *SessionRegistry) Create(cfg *types.SessionConfig) (*workflow.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limit > 0 && len(r.sessions) >= r.limit {
		return nil, ErrTooManySessions
	}

	opts := r.base
	opts.ID = uuid.NewString()
	if cfg != nil {
		opts.Config = mergeConfig(r.base.Config, *cfg)
	}

	c := workflow.New(r.gen, opts)
	r.sessions[opts.ID] = c
	log.Printf("[API] Created session %s (%d active)", opts.ID, len(r.sessions))
	return c, nil
}

// Get returns the session with id
func (r *SessionRegistry) Get(id string) (*workflow.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[id]
	return c, ok
}

// Delete removes and closes the session. It reports whether it existed.
func (r *SessionRegistry) Delete(id string) bool {
	r.mu.Lock()
	c, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		c.Close()
		log.Printf("[API] Deleted session %s", id)
	}
	return ok
}

// IDs lists the live session ids
func (r *SessionRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of live sessions
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Limit returns the configured session cap
func (r *SessionRegistry) Limit() int {
	return r.limit
}

// CloseAll cancels every session and waits for background work
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*workflow.Controller)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range sessions {
		wg.Add(1)
		go func(c *workflow.Controller) {
			defer wg.Done()
			c.Close()
		}(c)
	}
	wg.Wait()
}

func mergeConfig(base, override types.SessionConfig) types.SessionConfig {
	if override.Mode != "" {
		base.Mode = override.Mode
	}
	if override.Style != "" {
		base.Style = override.Style
	}
	if override.Audacity != 0 {
		base.Audacity = override.Audacity
	}
	base.CustomTopic = override.CustomTopic
	return base
}
