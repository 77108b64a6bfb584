// Package tts wraps the external text-to-speech backend: text in, rendered
// audio bytes out. Providers perform no retries; failure policy belongs to
// the dialog controller.
package tts

import (
	"context"
	"sync"
	"sync/atomic"
)

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis. The voice profile is fixed service
// configuration, not a per-call choice.
type SynthesizeOptions struct {
	Voice      string  // Voice identifier
	Language   string  // Language code (e.g. "it")
	Format     string  // Output format: "mp3" or "pcm"
	SampleRate int     // Sample rate for pcm output
	Speed      float64 // Speed multiplier
}

// Synthesis is the result of synthesis.
type Synthesis struct {
	Audio  []byte // Audio data
	Format string // Audio format
}

// StreamingContext manages an incremental text-to-audio session. Text is
// sent in chunks via SendText and audio chunks are received via Audio.
type StreamingContext struct {
	audio     chan []byte
	err       error
	errMu     sync.Mutex
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	// For implementations to use
	SendFunc  func(text string, isFinal bool) error
	CloseFunc func() error
}

// NewStreamingContext creates a new streaming context.
func NewStreamingContext() *StreamingContext {
	return &StreamingContext{
		audio: make(chan []byte, 100),
		done:  make(chan struct{}),
	}
}

// SendText sends a text chunk to be synthesized.
// Set isFinal=true for the last chunk to signal completion.
func (sc *StreamingContext) SendText(text string, isFinal bool) error {
	if sc.closed.Load() {
		return ErrContextClosed
	}
	if sc.SendFunc != nil {
		return sc.SendFunc(text, isFinal)
	}
	return nil
}

// Flush signals that all text has been sent and generation should complete.
func (sc *StreamingContext) Flush() error {
	return sc.SendText("", true)
}

// Audio returns the channel of audio chunks.
func (sc *StreamingContext) Audio() <-chan []byte {
	return sc.audio
}

// Err returns any error that occurred.
func (sc *StreamingContext) Err() error {
	sc.errMu.Lock()
	defer sc.errMu.Unlock()
	return sc.err
}

// Close closes the streaming context.
func (sc *StreamingContext) Close() error {
	var err error
	sc.closeOnce.Do(func() {
		sc.closed.Store(true)
		if sc.CloseFunc != nil {
			err = sc.CloseFunc()
		}
		close(sc.done)
	})
	return err
}

// Done returns a channel that's closed when the context is done.
func (sc *StreamingContext) Done() <-chan struct{} {
	return sc.done
}

// PushAudio sends an audio chunk. Returns false if closed.
func (sc *StreamingContext) PushAudio(chunk []byte) bool {
	select {
	case sc.audio <- chunk:
		return true
	case <-sc.done:
		return false
	}
}

// SetError sets the context error.
func (sc *StreamingContext) SetError(err error) {
	sc.errMu.Lock()
	sc.err = err
	sc.errMu.Unlock()
}

// FinishAudio closes the audio channel.
func (sc *StreamingContext) FinishAudio() {
	close(sc.audio)
}

// ErrContextClosed is returned when sending to a closed context.
var ErrContextClosed = &contextClosedError{}

type contextClosedError struct{}

func (e *contextClosedError) Error() string { return "streaming context closed" }
