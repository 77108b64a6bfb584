package artifact

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/pressly/goose/v3"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps audio clips in a single audio_artifacts table. Clips
// are small (a spoken sentence of MP3), so bytea rows are a better fit than
// large-object plumbing.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres connects a pool, runs pending migrations and returns the store.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// migrate applies the embedded schema through goose. Goose wants a
// database/sql handle, so a short-lived stdlib connection is opened just for
// the migration run.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Put inserts the clip under a fresh UUID.
func (s *PostgresStore) Put(ctx context.Context, audio []byte, format string) (*Artifact, error) {
	if len(audio) == 0 {
		return nil, core.NewStorageError(fmt.Errorf("empty audio"))
	}
	format = normalizeFormat(format)
	id := uuid.NewString()
	createdAt := s.now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audio_artifacts (id, format, audio, created_at) VALUES ($1, $2, $3, $4)`,
		id, format, audio, createdAt)
	if err != nil {
		return nil, core.NewStorageError(fmt.Errorf("insert artifact: %w", err))
	}

	return &Artifact{
		ID:        id,
		Format:    format,
		Size:      int64(len(audio)),
		CreatedAt: createdAt,
	}, nil
}

// Open fetches the clip row and wraps its bytes in a reader.
func (s *PostgresStore) Open(ctx context.Context, id string) (io.ReadCloser, *Artifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrNotFound
	}

	var (
		format    string
		audio     []byte
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT format, audio, created_at FROM audio_artifacts WHERE id = $1`, id).
		Scan(&format, &audio, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select artifact: %w", err)
	}

	return io.NopCloser(bytes.NewReader(audio)), &Artifact{
		ID:        id,
		Format:    format,
		Size:      int64(len(audio)),
		CreatedAt: createdAt.UTC(),
	}, nil
}

// DeleteOlderThan removes clips created before the cutoff.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM audio_artifacts WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete artifacts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Store = (*PostgresStore)(nil)
