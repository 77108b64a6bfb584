package convo

import (
	"sync"
	"time"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
)

// ErrUnknownSession is returned by Append when the call was never registered.
// Callers must resolve the session via GetOrCreate first.
var ErrUnknownSession = &core.Error{
	Type:    core.ErrUnknownSession,
	Message: "unknown call session",
}

// Registry is the process-wide map from call identifier to Session. Creation
// is atomic: two near-simultaneous first events for the same call observe the
// same session, and the persona turn is seeded exactly once.
type Registry struct {
	persona string
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry. Every session it creates is seeded
// with persona as its single system turn.
func NewRegistry(persona string) *Registry {
	return &Registry{
		persona:  persona,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for callID, creating and registering it if
// absent. The second return value reports whether a new session was created.
func (r *Registry) GetOrCreate(callID string) (*Session, bool) {
	now := r.now().UTC()

	r.mu.Lock()
	if s, ok := r.sessions[callID]; ok {
		r.mu.Unlock()
		s.touch(now)
		return s, false
	}
	s := newSession(callID, r.persona, now)
	r.sessions[callID] = s
	r.mu.Unlock()

	return s, true
}

// Get returns the session for callID without creating one.
func (r *Registry) Get(callID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callID]
	return s, ok
}

// Append appends one turn to an existing session's history. It fails with
// ErrUnknownSession if callID was never created.
func (r *Registry) Append(callID string, turn types.Turn) error {
	r.mu.Lock()
	s, ok := r.sessions[callID]
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	s.append(turn, r.now().UTC())
	return nil
}

// Evict removes the session for callID, if present. Used when the telephony
// layer reports call completion.
func (r *Registry) Evict(callID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[callID]; !ok {
		return false
	}
	delete(r.sessions, callID)
	return true
}

// EvictIdle removes sessions untouched for longer than maxIdle and returns
// how many were evicted. A maxIdle of zero disables the sweep.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := r.now().UTC().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
