package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"manoya/internal/domain"
)

// RegistrationRepository persiste las altas que produce el wizard.
type RegistrationRepository interface {
	SaveUser(ctx context.Context, reg domain.UserRegistration) error
	SaveProfessional(ctx context.Context, reg domain.ProfessionalRegistration) error
	CountUsers(ctx context.Context) (int, error)
	CountProfessionals(ctx context.Context) (int, error)
}

// PgRegistrationRepository implementa RegistrationRepository usando pgxpool.
type PgRegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewPgRegistrationRepository(pool *pgxpool.Pool) *PgRegistrationRepository {
	return &PgRegistrationRepository{pool: pool}
}

func (r *PgRegistrationRepository) SaveUser(ctx context.Context, reg domain.UserRegistration) error {
	const query = `
		INSERT INTO user_registrations (id, name, email, phone, location, problem_description, validation, data_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.Name,
		reg.Email,
		reg.Phone,
		reg.Location,
		reg.ProblemDescription,
		reg.Validation,
		reg.DataRef,
		reg.CreatedAt,
	)
	return err
}

func (r *PgRegistrationRepository) SaveProfessional(ctx context.Context, reg domain.ProfessionalRegistration) error {
	const query = `
		INSERT INTO professional_registrations (id, name, email, phone, trade, zone, status, data_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.Name,
		reg.Email,
		reg.Phone,
		string(reg.Trade),
		reg.Zone,
		reg.Status,
		reg.DataRef,
		reg.CreatedAt,
	)
	return err
}

func (r *PgRegistrationRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_registrations`).Scan(&n)
	return n, err
}

func (r *PgRegistrationRepository) CountProfessionals(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM professional_registrations`).Scan(&n)
	return n, err
}
