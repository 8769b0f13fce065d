package domain

import "time"

// WizardState es el estado de la maquina del asistente.
type WizardState string

const (
	StateLanding              WizardState = "landing"
	StateRequestForm          WizardState = "request_form"
	StateAnalyzing            WizardState = "analyzing"
	StateResultList           WizardState = "result_list"
	StateIdentityVerification WizardState = "identity_verification"
	StateProfessionalDetails  WizardState = "professional_details"
	StatePayment              WizardState = "payment"
	StateContactRevealed      WizardState = "contact_revealed"
	StatePresidentDashboard   WizardState = "president_dashboard"
)

// VerificationStep es el sub-estado dentro de StateIdentityVerification.
type VerificationStep string

const (
	StepNone           VerificationStep = ""
	StepEmailChallenge VerificationStep = "email_challenge"
	StepIntro          VerificationStep = "intro"
	StepCaptureFront   VerificationStep = "capture_front"
	StepCaptureBack    VerificationStep = "capture_back"
	StepCaptureSelfie  VerificationStep = "capture_selfie"
	StepProcessing     VerificationStep = "processing"
	StepSuccess        VerificationStep = "success"
)

// WizardPath distingue al solicitante del profesional que se registra.
type WizardPath string

const (
	PathNone         WizardPath = ""
	PathRequester    WizardPath = "requester"
	PathProfessional WizardPath = "professional"
)

// CaptureKind identifica cada foto del documento/selfie.
type CaptureKind string

const (
	CaptureFront  CaptureKind = "front"
	CaptureBack   CaptureKind = "back"
	CaptureSelfie CaptureKind = "selfie"
)

// CaptureStep devuelve el paso que acepta esta captura.
func (k CaptureKind) CaptureStep() (VerificationStep, bool) {
	switch k {
	case CaptureFront:
		return StepCaptureFront, true
	case CaptureBack:
		return StepCaptureBack, true
	case CaptureSelfie:
		return StepCaptureSelfie, true
	default:
		return StepNone, false
	}
}

// PaymentMethod elige el adaptador de pago.
type PaymentMethod string

const (
	PaymentPayPal      PaymentMethod = "paypal"
	PaymentMercadoPago PaymentMethod = "mercadopago"
)

// Amount es un monto en una moneda.
type Amount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// CaptureRef apunta a una foto ya guardada.
type CaptureRef struct {
	Kind        CaptureKind `json:"kind"`
	DataRef     string      `json:"data_ref"`
	ContentType string      `json:"content_type"`
	Size        int         `json:"size"`
}

// Verification guarda el progreso del sub-flujo de identidad.
type Verification struct {
	Step            VerificationStep `json:"step"`
	Email           string           `json:"email"`
	CodeHash        string           `json:"code_hash,omitempty"`
	CodeExpiresAt   *time.Time       `json:"code_expires_at,omitempty"`
	Captures        []CaptureRef     `json:"captures,omitempty"`
	ProcessingUntil *time.Time       `json:"processing_until,omitempty"`
}

// PendingPayment es un intento de pago en curso.
type PendingPayment struct {
	Reference            string        `json:"reference"`
	Method               PaymentMethod `json:"method"`
	Amount               Amount        `json:"amount"`
	RedirectURL          string        `json:"redirect_url,omitempty"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
	StartedAt            time.Time     `json:"started_at"`
}

// WizardSession es el estado de una sesion de navegador. Todo es transitorio:
// Reset lo devuelve a Landing y descarta el pedido.
type WizardSession struct {
	ID                     string                `json:"id"`
	State                  WizardState           `json:"state"`
	Path                   WizardPath            `json:"path"`
	Request                *ServiceRequest       `json:"request,omitempty"`
	AnalysisID             string                `json:"analysis_id,omitempty"`
	Classification         *ClassificationResult `json:"classification,omitempty"`
	ResultIDs              []string              `json:"result_ids,omitempty"`
	SelectedProfessionalID string                `json:"selected_professional_id,omitempty"`
	Verification           *Verification         `json:"verification,omitempty"`
	Payment                *PendingPayment       `json:"payment,omitempty"`
	PaidReference          string                `json:"paid_reference,omitempty"`
	DashboardSeed          uint64                `json:"dashboard_seed,omitempty"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

// ResetToLanding descarta todo lo que pertenece al pedido en curso.
func (s *WizardSession) ResetToLanding() {
	s.State = StateLanding
	s.Path = PathNone
	s.Request = nil
	s.AnalysisID = ""
	s.Classification = nil
	s.ResultIDs = nil
	s.SelectedProfessionalID = ""
	s.Verification = nil
	s.Payment = nil
	s.PaidReference = ""
	s.DashboardSeed = 0
}
