package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
)

// StreamProvider is implemented by backends that can synthesize from
// incremental text over a persistent session.
type StreamProvider interface {
	Provider
	NewStreamingContext(ctx context.Context, opts SynthesizeOptions) (*StreamingContext, error)
}

// Streamer adapts a stream-input backend to the blocking Provider contract.
// The text is sent through the session sentence by sentence and the audio
// chunks are assembled into one clip, so the backend starts rendering the
// opening sentence while the rest is still in flight.
type Streamer struct {
	backend StreamProvider
}

// NewStreamer wraps a stream-capable backend.
func NewStreamer(backend StreamProvider) *Streamer {
	return &Streamer{backend: backend}
}

var _ Provider = (*Streamer)(nil)

// Name returns the wrapped backend's identifier.
func (s *Streamer) Name() string {
	return s.backend.Name()
}

// Synthesize renders text through a streaming session and returns the
// assembled clip. One session per call; the session is closed on return.
func (s *Streamer) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	sc, err := s.backend.NewStreamingContext(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	for _, sentence := range splitSentences(text) {
		if err := sc.SendText(sentence, false); err != nil {
			return nil, core.NewSynthesisError(s.Name(), err)
		}
	}
	if err := sc.Flush(); err != nil {
		return nil, core.NewSynthesisError(s.Name(), err)
	}

	var audio []byte
	for chunk := range sc.Audio() {
		audio = append(audio, chunk...)
	}
	if err := sc.Err(); err != nil {
		return nil, core.NewSynthesisError(s.Name(), err)
	}
	if len(audio) == 0 {
		return nil, core.NewSynthesisError(s.Name(), fmt.Errorf("empty audio stream"))
	}

	return &Synthesis{
		Audio:  audio,
		Format: getFormat(opts.Format),
	}, nil
}

// splitSentences breaks text at sentence terminators. Text without any
// terminator comes back as a single chunk.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '.', '!', '?':
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
