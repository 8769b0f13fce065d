package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/repository"
)

var ErrInvalidDetails = errors.New("invalid professional details")

// RegistrationService persiste las altas del wizard. Los errores vuelven al
// llamador, que los loguea y sigue: no hay reintentos ni deduplicacion.
type RegistrationService struct {
	repo   repository.RegistrationRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewRegistrationService(repo repository.RegistrationRepository, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SaveUser registra al solicitante que completo la verificacion.
func (s *RegistrationService) SaveUser(ctx context.Context, req domain.ServiceRequest, dataRef string) error {
	if s.repo == nil {
		return errors.New("registration repository not configured")
	}
	reg := domain.UserRegistration{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(req.Name),
		Email:              normalizeEmail(req.Email),
		Phone:              strings.TrimSpace(req.Phone),
		Location:           strings.TrimSpace(req.Location),
		ProblemDescription: strings.TrimSpace(req.ProblemDescription),
		Validation:         domain.ValidationBiometricOK,
		DataRef:            dataRef,
		CreatedAt:          s.now(),
	}
	if err := s.repo.SaveUser(ctx, reg); err != nil {
		return err
	}
	s.logger.Info("user registration saved", zap.String("registration_id", reg.ID), zap.String("email", reg.Email))
	return nil
}

// ValidateDetails controla el formulario final del camino profesional.
func ValidateDetails(d domain.ProfessionalDetails) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.Join(ErrInvalidDetails, errors.New("name is required"))
	}
	if !d.Trade.Valid() {
		return errors.Join(ErrInvalidDetails, errors.New("unknown trade"))
	}
	return nil
}

// SaveProfessional registra la solicitud de alta, pendiente de revision.
func (s *RegistrationService) SaveProfessional(ctx context.Context, emailAddr string, d domain.ProfessionalDetails, dataRef string) error {
	if s.repo == nil {
		return errors.New("registration repository not configured")
	}
	reg := domain.ProfessionalRegistration{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(d.Name),
		Email:     normalizeEmail(emailAddr),
		Phone:     strings.TrimSpace(d.Phone),
		Trade:     d.Trade,
		Zone:      strings.TrimSpace(d.Zone),
		Status:    domain.ProfessionalStatusPendingReview,
		DataRef:   dataRef,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveProfessional(ctx, reg); err != nil {
		return err
	}
	s.logger.Info("professional registration saved", zap.String("registration_id", reg.ID), zap.String("trade", string(reg.Trade)))
	return nil
}
