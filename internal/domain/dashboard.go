package domain

// CompanyStats alimenta las tarjetas del dashboard presidencial.
type CompanyStats struct {
	ActiveUsers       int     `json:"active_users"`
	ActivePros        int     `json:"active_pros"`
	VerifiedPros      int     `json:"verified_pros"`
	MonthlyRevenueUSD float64 `json:"monthly_revenue_usd"`
	MarketSentiment   int     `json:"market_sentiment"` // 0 a 100
}

// AgentRole es el "bot" que ejecuta una accion corporativa.
type AgentRole string

const (
	RoleRecruiter AgentRole = "RECRUITER_BOT"
	RoleMarketing AgentRole = "MARKETING_BOT"
	RoleFinance   AgentRole = "FINANCE_BOT"
	RoleStrategy  AgentRole = "STRATEGY_BOT"
)

func AgentRoleLabels() []string {
	return []string{string(RoleRecruiter), string(RoleMarketing), string(RoleFinance), string(RoleStrategy)}
}

// CorporateAction es una accion simulada del "CEO". Solo presentacion.
type CorporateAction struct {
	Role             AgentRole `json:"role"`
	Action           string    `json:"action"`
	Outcome          string    `json:"outcome"`
	RequiresApproval bool      `json:"requiresApproval"`
	ApprovalMessage  string    `json:"approvalMessage,omitempty"`
	DeltaUsers       int       `json:"deltaUsers"`
	DeltaPros        int       `json:"deltaPros"`
	DeltaRevenue     int       `json:"deltaRevenue"`
}

// CampaignTarget define a quien apunta una campaña.
type CampaignTarget string

const (
	CampaignProfessionals CampaignTarget = "PROFESSIONALS"
	CampaignUsers         CampaignTarget = "USERS"
)

type MarketingStrategy struct {
	TargetAudience   string   `json:"targetAudience"`
	Platform         string   `json:"platform"`
	AdCopy           string   `json:"adCopy"`
	CallToAction     string   `json:"callToAction"`
	ImageDescription string   `json:"imageDescription"`
	Hashtags         []string `json:"hashtags"`
}
