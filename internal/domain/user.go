package domain

import "time"

const (
	RegistrationTypeUser         = "USUARIO_NUEVO"
	RegistrationTypeProfessional = "PROFESIONAL_SOLICITUD"

	ValidationBiometricOK = "BIOMETRIA_OK"

	ProfessionalStatusPendingReview = "PENDIENTE_REVISION_CEO"
)

// UserRegistration se guarda cuando un solicitante completa la verificacion.
// Las fotos no viajan en el registro, solo la referencia a las capturas.
type UserRegistration struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Location           string    `json:"location"`
	ProblemDescription string    `json:"problem_description"`
	Validation         string    `json:"validation"`
	DataRef            string    `json:"data_ref"`
	CreatedAt          time.Time `json:"created_at"`
}

// ProfessionalRegistration es la solicitud de alta de un profesional.
type ProfessionalRegistration struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Trade     TradeCategory `json:"trade"`
	Zone      string        `json:"zone"`
	Status    string        `json:"status"`
	DataRef   string        `json:"data_ref"`
	CreatedAt time.Time     `json:"created_at"`
}

// ProfessionalDetails es el formulario final del camino profesional.
type ProfessionalDetails struct {
	Name  string        `json:"name"`
	Phone string        `json:"phone"`
	Trade TradeCategory `json:"trade"`
	Zone  string        `json:"zone"`
}

// SystemLog es una linea del feed del dashboard.
type SystemLog struct {
	ID        string    `json:"id"`
	AgentName string    `json:"agent_name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
