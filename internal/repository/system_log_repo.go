package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"manoya/internal/domain"
)

const DefaultLogLimit = 50

// SystemLogRepository guarda el feed de acciones de los agentes del dashboard.
type SystemLogRepository interface {
	Append(ctx context.Context, entry domain.SystemLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.SystemLog, error)
}

type PgSystemLogRepository struct {
	pool *pgxpool.Pool
}

func NewPgSystemLogRepository(pool *pgxpool.Pool) *PgSystemLogRepository {
	return &PgSystemLogRepository{pool: pool}
}

func (r *PgSystemLogRepository) Append(ctx context.Context, entry domain.SystemLog) error {
	const query = `
		INSERT INTO system_logs (id, agent_name, message, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.AgentName, entry.Message, entry.CreatedAt)
	return err
}

// ListRecent devuelve las ultimas entradas, la mas nueva primero.
func (r *PgSystemLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.SystemLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	const query = `
		SELECT id, agent_name, message, created_at
		FROM system_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []domain.SystemLog{}
	for rows.Next() {
		var l domain.SystemLog
		if err := rows.Scan(&l.ID, &l.AgentName, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
