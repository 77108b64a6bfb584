// Package artifact stores synthesized audio clips and serves them back by
// opaque identifier. A clip is written once, read by the telephony provider
// when it fetches the playback URL, and eventually reaped by retention.
package artifact

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no artifact exists for the given ID.
var ErrNotFound = errors.New("artifact not found")

// Artifact describes one stored audio clip.
type Artifact struct {
	ID        string
	Format    string // "mp3" or "pcm"
	Size      int64
	CreatedAt time.Time
}

// ContentType returns the MIME type for the artifact's audio format.
func (a *Artifact) ContentType() string {
	switch a.Format {
	case "pcm":
		return "application/octet-stream"
	default:
		return "audio/mpeg"
	}
}

// Store persists audio clips. Implementations must be safe for concurrent
// use: Put is called from overlapping webhook requests and DeleteOlderThan
// runs from a background janitor.
type Store interface {
	// Put persists the audio bytes under a fresh identifier.
	Put(ctx context.Context, audio []byte, format string) (*Artifact, error)

	// Open returns a reader for the stored clip. The caller closes it.
	Open(ctx context.Context, id string) (io.ReadCloser, *Artifact, error)

	// DeleteOlderThan removes clips created before the cutoff and reports
	// how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
