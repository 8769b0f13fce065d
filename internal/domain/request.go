package domain

import (
	"errors"
	"strings"
)

var (
	ErrEmptyDescription = errors.New("problem description is required")
	ErrEmptyEmail       = errors.New("email is required")
)

// ServiceRequest es lo que carga el solicitante en el formulario de pedido.
type ServiceRequest struct {
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Location           string `json:"location"`
	ProblemDescription string `json:"problem_description"`
}

// Validate bloquea el envio antes de clasificar: sin descripcion no hay pedido.
func (r ServiceRequest) Validate() error {
	if strings.TrimSpace(r.ProblemDescription) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// ClassificationResult es la salida del clasificador. Nunca se muta.
type ClassificationResult struct {
	Trade     TradeCategory `json:"trade"`
	Reasoning string        `json:"reasoning"`
	Urgency   Urgency       `json:"urgency"`
}
