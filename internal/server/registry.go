package server

import (
	"sync"
	"time"

	"oli-admin/internal/auth"
	"oli-admin/internal/console"
)

// consoleIdleTimeout is how long an untouched console is kept in memory.
const consoleIdleTimeout = 24 * time.Hour

// consoleSession is one browser's console. mu serialises its requests,
// which gives the controller the single event loop it expects.
type consoleSession struct {
	mu       sync.Mutex
	id       string
	client   *auth.Client
	view     *pageView
	ctl      *console.Controller
	lastSeen time.Time
}

type registry struct {
	mu       sync.Mutex
	consoles map[string]*consoleSession
}

func newRegistry() *registry {
	return &registry{consoles: make(map[string]*consoleSession)}
}

func (r *registry) get(id string) *consoleSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.consoles[id]
	if !ok {
		return nil
	}
	cs.lastSeen = time.Now()
	return cs
}

// add stores cs and evicts consoles idle for longer than consoleIdleTimeout.
func (r *registry) add(cs *consoleSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, old := range r.consoles {
		if now.Sub(old.lastSeen) <= consoleIdleTimeout {
			continue
		}
		// Skip consoles that are mid-request; the next add retries them.
		if !old.mu.TryLock() {
			continue
		}
		old.ctl.Stop()
		old.mu.Unlock()
		delete(r.consoles, id)
	}
	cs.lastSeen = now
	r.consoles[cs.id] = cs
}

// remove drops a console. The caller holds cs.mu.
func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cs, ok := r.consoles[id]; ok {
		cs.ctl.Stop()
		delete(r.consoles, id)
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cs := range r.consoles {
		cs.ctl.Stop()
		delete(r.consoles, id)
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consoles)
}
