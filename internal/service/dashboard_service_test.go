package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"manoya/internal/domain"
	"manoya/internal/llm"
	"manoya/internal/repository"
)

type failingCountRepo struct {
	*repository.MemoryProfessionalRepository
}

func (failingCountRepo) CountVerified(context.Context) (int, error) {
	return 0, errors.New("db down")
}

func newDashboardFixture(t *testing.T, generator llm.StructuredGenerator) (*DashboardService, *repository.MemorySystemLogRepository, *repository.MemoryRegistrationRepository) {
	t.Helper()
	ctx := context.Background()
	pros := repository.NewMemoryProfessionalRepository()
	_, err := repository.SeedIfEmpty(ctx, pros)
	require.NoError(t, err)
	regs := repository.NewMemoryRegistrationRepository()
	logs := repository.NewMemorySystemLogRepository()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewDashboardService(pros, regs, logs, generator, NewJWTService("secret", time.Minute), string(hash), nil)
	return svc, logs, regs
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	svc, _, regs := newDashboardFixture(t, nil)
	require.NoError(t, regs.SaveUser(ctx, domain.UserRegistration{ID: "u1"}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CompanyStats{
		ActiveUsers:       1,
		ActivePros:        10,
		VerifiedPros:      9,
		MonthlyRevenueUSD: 90,
		MarketSentiment:   85,
	}, stats)
}

func TestDashboardStatsPropagatesErrors(t *testing.T) {
	svc := NewDashboardService(failingCountRepo{repository.NewMemoryProfessionalRepository()}, repository.NewMemoryRegistrationRepository(), nil, nil, nil, "", nil)
	_, err := svc.Stats(context.Background())
	assert.ErrorContains(t, err, "count verified professionals")
}

func TestDashboardOpenGate(t *testing.T) {
	svc, _, _ := newDashboardFixture(t, nil)

	_, err := svc.Open("s1", "otra", 1)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, err := svc.Open("s1", "clave", 1)
	require.NoError(t, err)
	claims, err := svc.jwt.ParseAccessToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)

	disabled := NewDashboardService(nil, nil, nil, nil, NewJWTService("secret", time.Minute), "", nil)
	_, err = disabled.Open("s1", "clave", 1)
	assert.ErrorIs(t, err, ErrDashboardDisabled)
}

func TestDashboardTickSimulatedIsDeterministicPerSeed(t *testing.T) {
	ctx := context.Background()
	a, logs, _ := newDashboardFixture(t, nil)
	b, _, _ := newDashboardFixture(t, nil)

	var seqA, seqB []domain.CorporateAction
	for i := 0; i < 5; i++ {
		actA, err := a.Tick(ctx, "s1", 7)
		require.NoError(t, err)
		actB, err := b.Tick(ctx, "other", 7)
		require.NoError(t, err)
		seqA = append(seqA, actA)
		seqB = append(seqB, actB)
	}
	assert.Equal(t, seqA, seqB)

	// sin usuarios la oferta nunca es baja
	for _, act := range seqA {
		assert.Equal(t, domain.RoleMarketing, act.Role)
		assert.Zero(t, act.DeltaPros)
	}

	entries, err := logs.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, string(domain.RoleMarketing), entries[0].AgentName)
}

func TestDashboardTickRecruiterWhenSupplyLow(t *testing.T) {
	ctx := context.Background()
	svc, _, regs := newDashboardFixture(t, nil)
	for i := 0; i < 60; i++ {
		require.NoError(t, regs.SaveUser(ctx, domain.UserRegistration{}))
	}
	act, err := svc.Tick(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRecruiter, act.Role)
	assert.Zero(t, act.DeltaUsers)
}

func TestDashboardTickUsesGenerator(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Response: `{"role":"STRATEGY_BOT","action":"Optimizar precios","outcome":"+5% margen","requiresApproval":false,"approvalMessage":"ignorar","deltaUsers":1,"deltaPros":0,"deltaRevenue":30}`}
	svc, _, _ := newDashboardFixture(t, mock)

	act, err := svc.Tick(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStrategy, act.Role)
	assert.Equal(t, 30, act.DeltaRevenue)
	assert.Empty(t, act.ApprovalMessage)
	assert.Contains(t, mock.LastPrompt, "Profesionales: 10")
	assert.Equal(t, domain.AgentRoleLabels(), mock.LastSchema.Properties["role"].Enum)
}

func TestDashboardTickFallsBackOnGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDashboardFixture(t, &llm.MockClient{Response: `{"role":"CEO_BOT","action":"x"}`})
	act, err := svc.Tick(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMarketing, act.Role)

	svc, _, _ = newDashboardFixture(t, &llm.MockClient{Err: errors.New("quota")})
	act, err = svc.Tick(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMarketing, act.Role)
}

func TestDashboardCampaign(t *testing.T) {
	ctx := context.Background()

	svc, logs, _ := newDashboardFixture(t, nil)
	strategy, err := svc.Campaign(ctx, domain.CampaignProfessionals, "gasistas en zona sur")
	require.NoError(t, err)
	assert.Equal(t, "Profesionales", strategy.TargetAudience)
	assert.Equal(t, "Instagram", strategy.Platform)
	entries, _ := logs.ListRecent(ctx, 0)
	assert.Len(t, entries, 1)

	_, err = svc.Campaign(ctx, "EVERYONE", "")
	assert.ErrorIs(t, err, ErrInvalidCampaign)

	mock := &llm.MockClient{Response: `{"targetAudience":"Dueños de casa","platform":"Facebook","adCopy":"a","callToAction":"b","imageDescription":"c","hashtags":["#x"]}`}
	svc, _, _ = newDashboardFixture(t, mock)
	strategy, err = svc.Campaign(ctx, domain.CampaignUsers, "verano")
	require.NoError(t, err)
	assert.Equal(t, "Facebook", strategy.Platform)
	assert.Contains(t, mock.LastPrompt, "Atraer usuarios")
	assert.Contains(t, mock.LastPrompt, "verano")

	svc, _, _ = newDashboardFixture(t, &llm.MockClient{Err: errors.New("quota")})
	_, err = svc.Campaign(ctx, domain.CampaignUsers, "verano")
	assert.ErrorIs(t, err, ErrCampaignUnavailable)
}
