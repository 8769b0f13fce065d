package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"manoya/internal/domain"
)

const DefaultSearchLimit = 20

var ErrProfessionalNotFound = errors.New("professional not found")

// ProfessionalRepository es el directorio de profesionales. List devuelve el
// orden del directorio, que el matcher usa como desempate estable.
type ProfessionalRepository interface {
	List(ctx context.Context) ([]domain.Professional, error)
	GetByID(ctx context.Context, id string) (domain.Professional, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Professional, error)
	Create(ctx context.Context, professional domain.Professional) error
	Count(ctx context.Context) (int, error)
	CountVerified(ctx context.Context) (int, error)
}

// CleanSearchQuery se queda con el oficio de consultas tipo "Plomero en Palermo".
func CleanSearchQuery(query string) string {
	q := strings.TrimSpace(query)
	if idx := strings.Index(q, " en "); idx >= 0 {
		q = q[:idx]
	}
	return strings.TrimSpace(q)
}

// PgProfessionalRepository implementa ProfessionalRepository usando pgxpool.
type PgProfessionalRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfessionalRepository(pool *pgxpool.Pool) *PgProfessionalRepository {
	return &PgProfessionalRepository{pool: pool}
}

const professionalColumns = `id, name, trade, rating, review_count, verified, location, hourly_rate_ars, image_url, description, reviews, portfolio, phone, email, website, source`

func (r *PgProfessionalRepository) Create(ctx context.Context, p domain.Professional) error {
	reviews, err := json.Marshal(nonNilReviews(p.Reviews))
	if err != nil {
		return fmt.Errorf("marshal reviews: %w", err)
	}
	portfolio, err := json.Marshal(nonNilPortfolio(p.Portfolio))
	if err != nil {
		return fmt.Errorf("marshal portfolio: %w", err)
	}
	source := p.Source
	if source == "" {
		source = domain.SourceDirectory
	}
	const query = `
		INSERT INTO professionals (` + professionalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		string(p.Trade),
		p.Rating,
		p.ReviewCount,
		p.Verified,
		p.Location,
		p.HourlyRateARS,
		p.ImageURL,
		p.Description,
		reviews,
		portfolio,
		p.Phone,
		p.Email,
		p.Website,
		source,
	)
	return err
}

func (r *PgProfessionalRepository) List(ctx context.Context) ([]domain.Professional, error) {
	const query = `
		SELECT ` + professionalColumns + `
		FROM professionals
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfessionals(rows)
}

func (r *PgProfessionalRepository) GetByID(ctx context.Context, id string) (domain.Professional, error) {
	const query = `
		SELECT ` + professionalColumns + `
		FROM professionals
		WHERE id = $1
	`
	p, err := scanProfessional(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Professional{}, ErrProfessionalNotFound
	}
	return p, err
}

func (r *PgProfessionalRepository) Search(ctx context.Context, query string, limit int) ([]domain.Professional, error) {
	q := CleanSearchQuery(query)
	if q == "" {
		return []domain.Professional{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	const sqlQuery = `
		SELECT ` + professionalColumns + `
		FROM professionals
		WHERE trade ILIKE $1 ESCAPE '\' OR name ILIKE $1 ESCAPE '\'
		ORDER BY position ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sqlQuery, containsPattern(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfessionals(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern arma un patron LIKE de substring donde % y _ del usuario son literales.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func (r *PgProfessionalRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM professionals`).Scan(&n)
	return n, err
}

func (r *PgProfessionalRepository) CountVerified(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM professionals WHERE verified`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfessional(row rowScanner) (domain.Professional, error) {
	var (
		p         domain.Professional
		trade     string
		rate      *int32
		reviews   []byte
		portfolio []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&trade,
		&p.Rating,
		&p.ReviewCount,
		&p.Verified,
		&p.Location,
		&rate,
		&p.ImageURL,
		&p.Description,
		&reviews,
		&portfolio,
		&p.Phone,
		&p.Email,
		&p.Website,
		&p.Source,
	); err != nil {
		return domain.Professional{}, err
	}
	p.Trade = domain.TradeCategory(trade)
	if rate != nil {
		v := int(*rate)
		p.HourlyRateARS = &v
	}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
			return domain.Professional{}, fmt.Errorf("decode reviews for %s: %w", p.ID, err)
		}
	}
	if len(portfolio) > 0 {
		if err := json.Unmarshal(portfolio, &p.Portfolio); err != nil {
			return domain.Professional{}, fmt.Errorf("decode portfolio for %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func scanProfessionals(rows pgxRows) ([]domain.Professional, error) {
	pros := []domain.Professional{}
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		pros = append(pros, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pros, nil
}

// pgxRows es una interfaz minima para escanear filas de pgx y simplificar tests.
type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func nonNilReviews(r []domain.Review) []domain.Review {
	if r == nil {
		return []domain.Review{}
	}
	return r
}

func nonNilPortfolio(p []domain.PortfolioItem) []domain.PortfolioItem {
	if p == nil {
		return []domain.PortfolioItem{}
	}
	return p
}
