package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
)

// FSStore keeps audio clips as files in a single directory, one file per
// artifact named <id>.<format>. Writes go through a temp file and rename so
// a clip is never visible half-written.
type FSStore struct {
	dir string
	now func() time.Time
}

// NewFS creates the directory if needed and returns a filesystem store.
func NewFS(dir string) (*FSStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FSStore{dir: dir, now: time.Now}, nil
}

// Put writes the clip under a fresh UUID.
func (s *FSStore) Put(_ context.Context, audio []byte, format string) (*Artifact, error) {
	if len(audio) == 0 {
		return nil, core.NewStorageError(fmt.Errorf("empty audio"))
	}
	format = normalizeFormat(format)
	id := uuid.NewString()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return nil, core.NewStorageError(fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, core.NewStorageError(fmt.Errorf("write artifact: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, core.NewStorageError(fmt.Errorf("sync artifact: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, core.NewStorageError(fmt.Errorf("close artifact: %w", err))
	}
	final := filepath.Join(s.dir, id+"."+format)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return nil, core.NewStorageError(fmt.Errorf("publish artifact: %w", err))
	}

	return &Artifact{
		ID:        id,
		Format:    format,
		Size:      int64(len(audio)),
		CreatedAt: s.now().UTC(),
	}, nil
}

// Open locates the clip by ID. The ID must parse as a UUID, which also keeps
// path traversal out of the directory lookup.
func (s *FSStore) Open(_ context.Context, id string) (io.ReadCloser, *Artifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrNotFound
	}
	for _, format := range []string{"mp3", "pcm"} {
		path := filepath.Join(s.dir, id+"."+format)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open artifact: %w", err)
		}
		return f, &Artifact{
			ID:        id,
			Format:    format,
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		}, nil
	}
	return nil, nil, ErrNotFound
}

// DeleteOlderThan removes clips whose file modification time predates the
// cutoff. Temp files are skipped; the writer still owns them.
func (s *FSStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read artifact directory: %w", err)
	}
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".tmp-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

func normalizeFormat(format string) string {
	if format == "pcm" {
		return "pcm"
	}
	return "mp3"
}

var _ Store = (*FSStore)(nil)
