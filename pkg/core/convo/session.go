// Package convo manages per-call conversation state for the lifetime of the
// process. Sessions are keyed by the telephony call identifier and hold the
// ordered turn history replayed to the reply provider on every round.
package convo

import (
	"sync"
	"time"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
)

// Session is one ongoing telephone conversation. Safe for concurrent use,
// though the telephony layer is expected to serialize events per call.
type Session struct {
	callID string

	mu           sync.RWMutex
	turns        []types.Turn
	lastAudioRef string
	lastTouched  time.Time
}

func newSession(callID string, persona string, now time.Time) *Session {
	return &Session{
		callID:      callID,
		turns:       []types.Turn{{Role: types.RoleSystem, Text: persona, At: now}},
		lastTouched: now,
	}
}

// CallID returns the telephony call identifier.
func (s *Session) CallID() string {
	return s.callID
}

// History returns a copy of the conversation history. The first element is
// always the persona turn. Mutating the returned slice does not affect the
// session.
func (s *Session) History() []types.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns including the persona turn.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

func (s *Session) append(turn types.Turn, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	s.lastTouched = now
}

// SetLastAudioRef records the identifier of the most recently rendered
// artifact for this call. Diagnostic only.
func (s *Session) SetLastAudioRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAudioRef = ref
}

// LastAudioRef returns the most recently recorded artifact identifier, if
// any.
func (s *Session) LastAudioRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAudioRef
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouched = now
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTouched
}
