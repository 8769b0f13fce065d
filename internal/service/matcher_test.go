package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"manoya/internal/domain"
)

func matchIDs(pros []domain.Professional) []string {
	ids := make([]string, 0, len(pros))
	for _, p := range pros {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestMatchFiltersByTradeAndSortsByRating(t *testing.T) {
	directory := []domain.Professional{
		{ID: "1", Trade: domain.TradePlumbing, Rating: 4.2},
		{ID: "2", Trade: domain.TradeGasFitting, Rating: 4.9},
		{ID: "3", Trade: domain.TradePlumbing, Rating: 4.8},
		{ID: "4", Trade: domain.TradePlumbing, Rating: 4.8},
		{ID: "5", Trade: domain.TradePlumbing, Rating: 5.0},
	}

	got := Match(domain.ClassificationResult{Trade: domain.TradePlumbing}, directory)

	if diff := cmp.Diff([]string{"5", "3", "4", "1"}, matchIDs(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestMatchNoResultsIsEmptyNotNil(t *testing.T) {
	directory := []domain.Professional{
		{ID: "1", Trade: domain.TradePlumbing, Rating: 4.2},
	}
	got := Match(domain.ClassificationResult{Trade: domain.TradeArchitecture}, directory)
	if got == nil {
		t.Fatalf("expected non-nil slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}

	if got := Match(domain.ClassificationResult{Trade: domain.TradePlumbing}, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice for empty directory, got %#v", got)
	}
}

func TestMatchDoesNotMutateDirectory(t *testing.T) {
	directory := []domain.Professional{
		{ID: "a", Trade: domain.TradePainting, Rating: 3},
		{ID: "b", Trade: domain.TradePainting, Rating: 5},
	}
	_ = Match(domain.ClassificationResult{Trade: domain.TradePainting}, directory)
	if diff := cmp.Diff([]string{"a", "b"}, matchIDs(directory)); diff != "" {
		t.Fatalf("directory was reordered (-want +got):\n%s", diff)
	}
}

func TestMatchGeneralMaintenanceOnlyExact(t *testing.T) {
	directory := []domain.Professional{
		{ID: "1", Trade: domain.TradePlumbing, Rating: 4.2},
		{ID: "2", Trade: domain.TradeGardening, Rating: 4.9},
	}
	got := Match(domain.ClassificationResult{Trade: domain.TradeGeneralMaintenance}, directory)
	if len(got) != 0 {
		t.Fatalf("general maintenance must not match other trades, got %v", matchIDs(got))
	}
}
