package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"manoya/internal/domain"
	"manoya/internal/llm"
	"manoya/internal/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDashboardDisabled   = errors.New("dashboard disabled")
	ErrInvalidCampaign     = errors.New("invalid campaign target")
	ErrCampaignUnavailable = errors.New("campaign generation failed")
)

const (
	revenuePerVerifiedPro  = 10
	defaultMarketSentiment = 85
)

// DashboardService es el panel "presidencial": metricas simples del directorio y
// una simulacion de agentes. Nada de lo que produce tiene efecto en el negocio.
type DashboardService struct {
	professionals repository.ProfessionalRepository
	registrations repository.RegistrationRepository
	logs          repository.SystemLogRepository
	generator     llm.StructuredGenerator
	jwt           *JWTService
	passwordHash  []byte
	logger        *zap.Logger
	now           func() time.Time

	mu   sync.Mutex
	rngs map[string]*rand.Rand
}

func NewDashboardService(
	professionals repository.ProfessionalRepository,
	registrations repository.RegistrationRepository,
	logs repository.SystemLogRepository,
	generator llm.StructuredGenerator,
	jwtSvc *JWTService,
	passwordHash string,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		professionals: professionals,
		registrations: registrations,
		logs:          logs,
		generator:     generator,
		jwt:           jwtSvc,
		passwordHash:  []byte(strings.TrimSpace(passwordHash)),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		rngs:          make(map[string]*rand.Rand),
	}
}

// Open valida la credencial y emite el token del panel para esta sesion.
func (s *DashboardService) Open(sessionID, credential string, seed uint64) (AccessToken, error) {
	if len(s.passwordHash) == 0 || s.jwt == nil {
		return AccessToken{}, ErrDashboardDisabled
	}
	if bcrypt.CompareHashAndPassword(s.passwordHash, []byte(credential)) != nil {
		return AccessToken{}, ErrInvalidCredentials
	}
	tok, err := s.jwt.IssueDashboardToken(sessionID, seed)
	if err != nil {
		return AccessToken{}, err
	}
	s.mu.Lock()
	s.rngs[sessionID] = newSessionRand(seed)
	s.mu.Unlock()
	return tok, nil
}

// Close descarta la simulacion de la sesion.
func (s *DashboardService) Close(sessionID string) {
	s.mu.Lock()
	delete(s.rngs, sessionID)
	s.mu.Unlock()
}

func newSessionRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (s *DashboardService) rngFor(sessionID string, seed uint64) *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rngs[sessionID]
	if !ok {
		r = newSessionRand(seed)
		s.rngs[sessionID] = r
	}
	return r
}

// Stats consulta los contadores en paralelo.
func (s *DashboardService) Stats(ctx context.Context) (domain.CompanyStats, error) {
	var pros, verified, users int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.professionals.Count(gctx)
		if err != nil {
			return fmt.Errorf("count professionals: %w", err)
		}
		pros = n
		return nil
	})
	g.Go(func() error {
		n, err := s.professionals.CountVerified(gctx)
		if err != nil {
			return fmt.Errorf("count verified professionals: %w", err)
		}
		verified = n
		return nil
	})
	g.Go(func() error {
		n, err := s.registrations.CountUsers(gctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		users = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.CompanyStats{}, err
	}
	return domain.CompanyStats{
		ActiveUsers:       users,
		ActivePros:        pros,
		VerifiedPros:      verified,
		MonthlyRevenueUSD: float64(verified * revenuePerVerifiedPro),
		MarketSentiment:   defaultMarketSentiment,
	}, nil
}

func corporateActionSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"role":             {Type: llm.TypeString, Enum: domain.AgentRoleLabels()},
			"action":           {Type: llm.TypeString},
			"outcome":          {Type: llm.TypeString},
			"requiresApproval": {Type: llm.TypeBoolean},
			"approvalMessage":  {Type: llm.TypeString},
			"deltaUsers":       {Type: llm.TypeInteger},
			"deltaPros":        {Type: llm.TypeInteger},
			"deltaRevenue":     {Type: llm.TypeInteger},
		},
		Required: []string{"role", "action", "outcome", "requiresApproval", "approvalMessage", "deltaUsers", "deltaPros", "deltaRevenue"},
	}
}

func buildCEOPrompt(stats domain.CompanyStats) string {
	return fmt.Sprintf(`Actúa como el CEO de Inteligencia Artificial de "MANO YA".
Estadísticas actuales:
- Usuarios activos: %d
- Profesionales: %d
- Ingresos: $%.0f

Tu objetivo es escalar la empresa.
1. Si hay pocos profesionales (Ratio < 0.3), activa RECRUITER_BOT.
2. Si hay muchos profesionales, activa MARKETING_BOT para conseguir clientes.
3. Si los ingresos suben, activa STRATEGY_BOT para optimizar.

Genera una acción corporativa en JSON.
'requiresApproval' debe ser true SOLO si la decisión es arriesgada (ej. gastar mucho dinero, abrir nueva zona).
Si no requiere aprobación, 'approvalMessage' va vacío.`,
		stats.ActiveUsers, stats.ActivePros, stats.MonthlyRevenueUSD)
}

// Tick produce la siguiente accion de la simulacion y la agrega al feed. Sin
// generador, o si el generador falla, la accion sale del PRNG de la sesion.
func (s *DashboardService) Tick(ctx context.Context, sessionID string, seed uint64) (domain.CorporateAction, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return domain.CorporateAction{}, err
	}

	var action domain.CorporateAction
	if s.generator != nil {
		action, err = s.consultCEO(ctx, stats)
		if err != nil {
			s.logger.Warn("ceo generation failed, using simulated action", zap.Error(err), zap.String("session_id", sessionID))
		}
	}
	if s.generator == nil || err != nil {
		action = simulatedAction(stats, s.rngFor(sessionID, seed))
	}

	s.appendLog(ctx, string(action.Role), action.Action+" → "+action.Outcome)
	return action, nil
}

func (s *DashboardService) consultCEO(ctx context.Context, stats domain.CompanyStats) (domain.CorporateAction, error) {
	raw, err := s.generator.GenerateStructured(ctx, buildCEOPrompt(stats), corporateActionSchema())
	if err != nil {
		return domain.CorporateAction{}, err
	}
	var action domain.CorporateAction
	if err := decodeLLMJSON(raw, &action); err != nil {
		return domain.CorporateAction{}, fmt.Errorf("decode corporate action: %w", err)
	}
	if !slices.Contains(domain.AgentRoleLabels(), string(action.Role)) {
		return domain.CorporateAction{}, fmt.Errorf("unknown agent role %q", action.Role)
	}
	if strings.TrimSpace(action.Action) == "" {
		return domain.CorporateAction{}, errors.New("empty corporate action")
	}
	if !action.RequiresApproval {
		action.ApprovalMessage = ""
	}
	return action, nil
}

func simulatedAction(stats domain.CompanyStats, r *rand.Rand) domain.CorporateAction {
	supplyLow := float64(stats.ActivePros) < float64(stats.ActiveUsers)*0.2
	action := domain.CorporateAction{
		RequiresApproval: r.Float64() > 0.8,
		DeltaRevenue:     r.IntN(50),
	}
	if supplyLow {
		action.Role = domain.RoleRecruiter
		action.Action = "Escaneando LinkedIn en busca de Plomeros..."
		action.Outcome = "5 Profesionales contactados."
		action.DeltaPros = r.IntN(2)
	} else {
		action.Role = domain.RoleMarketing
		action.Action = "Lanzando campaña de Google Ads en Zona Norte..."
		action.Outcome = "200 Impresiones de anuncios."
		action.DeltaUsers = r.IntN(5)
	}
	if action.RequiresApproval {
		action.ApprovalMessage = "Oportunidad de compra de base de datos de gasistas. Inversión $500 USD."
	}
	return action
}

func marketingStrategySchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"targetAudience":   {Type: llm.TypeString},
			"platform":         {Type: llm.TypeString},
			"adCopy":           {Type: llm.TypeString},
			"callToAction":     {Type: llm.TypeString},
			"imageDescription": {Type: llm.TypeString},
			"hashtags":         {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
		},
		Required: []string{"targetAudience", "platform", "adCopy", "callToAction", "imageDescription", "hashtags"},
	}
}

func cannedStrategy(target domain.CampaignTarget) domain.MarketingStrategy {
	audience := "Clientes"
	if target == domain.CampaignProfessionals {
		audience = "Profesionales"
	}
	return domain.MarketingStrategy{
		TargetAudience:   audience,
		Platform:         "Instagram",
		AdCopy:           "¡Únite a MANO YA! La mejor app para servicios del hogar.",
		CallToAction:     "Descargá la app",
		ImageDescription: "Una persona feliz usando el celular.",
		Hashtags:         []string{"#ManoYa", "#Servicios"},
	}
}

// Campaign genera una estrategia de anuncio. A diferencia de Tick, una falla del
// generador se devuelve al llamador.
func (s *DashboardService) Campaign(ctx context.Context, target domain.CampaignTarget, goal string) (domain.MarketingStrategy, error) {
	if target != domain.CampaignProfessionals && target != domain.CampaignUsers {
		return domain.MarketingStrategy{}, ErrInvalidCampaign
	}

	var strategy domain.MarketingStrategy
	if s.generator == nil {
		strategy = cannedStrategy(target)
	} else {
		objective := "Atraer usuarios"
		if target == domain.CampaignProfessionals {
			objective = "Atraer nuevos profesionales"
		}
		prompt := fmt.Sprintf(`Eres el Agente de Crecimiento (Growth Agent) de la app "MANO YA".
Objetivo: %s.
Contexto: %s.
Ubicación: Buenos Aires / AMBA.
Devuelve JSON con estrategia de anuncio.`, objective, strings.TrimSpace(goal))

		raw, err := s.generator.GenerateStructured(ctx, prompt, marketingStrategySchema())
		if err != nil {
			return domain.MarketingStrategy{}, errors.Join(ErrCampaignUnavailable, err)
		}
		if err := decodeLLMJSON(raw, &strategy); err != nil {
			return domain.MarketingStrategy{}, errors.Join(ErrCampaignUnavailable, err)
		}
	}

	s.appendLog(ctx, string(domain.RoleMarketing), fmt.Sprintf("Campaña generada para %s en %s.", strategy.TargetAudience, strategy.Platform))
	return strategy, nil
}

// Logs devuelve las ultimas lineas del feed, la mas nueva primero.
func (s *DashboardService) Logs(ctx context.Context) ([]domain.SystemLog, error) {
	return s.logs.ListRecent(ctx, repository.DefaultLogLimit)
}

func (s *DashboardService) appendLog(ctx context.Context, agent, message string) {
	if s.logs == nil {
		return
	}
	entry := domain.SystemLog{
		ID:        uuid.NewString(),
		AgentName: agent,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Warn("append system log failed", zap.Error(err), zap.String("agent", agent))
	}
}
