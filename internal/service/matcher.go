package service

import (
	"sort"

	"manoya/internal/domain"
)

// Match filtra el directorio por el oficio clasificado y ordena por rating
// descendente. A igual rating se conserva el orden del directorio. Sin
// coincidencias devuelve un slice vacio, nunca nil.
func Match(result domain.ClassificationResult, directory []domain.Professional) []domain.Professional {
	matched := make([]domain.Professional, 0, len(directory))
	for _, p := range directory {
		if p.Trade == result.Trade {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Rating > matched[j].Rating
	})
	return matched
}
