package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCaptureNotFound = errors.New("capture not found")

// Capture es una foto de identidad ya decodificada.
type Capture struct {
	DataRef     string
	SessionID   string
	Kind        string
	ContentType string
	Payload     []byte
	CreatedAt   time.Time
}

// CaptureRepository guarda los binarios de las capturas; el registro solo
// conserva la referencia.
type CaptureRepository interface {
	Save(ctx context.Context, capture Capture) error
	Get(ctx context.Context, dataRef string) (Capture, error)
}

type PgCaptureRepository struct {
	pool *pgxpool.Pool
}

func NewPgCaptureRepository(pool *pgxpool.Pool) *PgCaptureRepository {
	return &PgCaptureRepository{pool: pool}
}

func (r *PgCaptureRepository) Save(ctx context.Context, c Capture) error {
	const query = `
		INSERT INTO identity_captures (data_ref, session_id, kind, content_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, c.DataRef, c.SessionID, c.Kind, c.ContentType, c.Payload, c.CreatedAt)
	return err
}

func (r *PgCaptureRepository) Get(ctx context.Context, dataRef string) (Capture, error) {
	const query = `
		SELECT data_ref, session_id, kind, content_type, payload, created_at
		FROM identity_captures
		WHERE data_ref = $1
	`
	var c Capture
	err := r.pool.QueryRow(ctx, query, dataRef).Scan(
		&c.DataRef,
		&c.SessionID,
		&c.Kind,
		&c.ContentType,
		&c.Payload,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Capture{}, ErrCaptureNotFound
	}
	return c, err
}
