package repository

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"manoya/internal/domain"
)

//go:embed seed/professionals.yaml
var professionalsSeed []byte

// SeedProfessionals devuelve el directorio inicial validado.
func SeedProfessionals() ([]domain.Professional, error) {
	var pros []domain.Professional
	if err := yaml.Unmarshal(professionalsSeed, &pros); err != nil {
		return nil, fmt.Errorf("decode professionals seed: %w", err)
	}
	seen := make(map[string]struct{}, len(pros))
	for i := range pros {
		if err := pros[i].Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[pros[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicated id %q", domain.ErrInvalidProfessional, pros[i].ID)
		}
		seen[pros[i].ID] = struct{}{}
		if pros[i].Source == "" {
			pros[i].Source = domain.SourceDirectory
		}
	}
	return pros, nil
}

// SeedIfEmpty carga el directorio inicial cuando el repositorio no tiene registros.
// Devuelve la cantidad insertada.
func SeedIfEmpty(ctx context.Context, repo ProfessionalRepository) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	pros, err := SeedProfessionals()
	if err != nil {
		return 0, err
	}
	for _, p := range pros {
		if err := repo.Create(ctx, p); err != nil {
			return 0, fmt.Errorf("seed professional %s: %w", p.ID, err)
		}
	}
	return len(pros), nil
}
