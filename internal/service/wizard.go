package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/repository"
)

var (
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrPaymentNotFound      = errors.New("payment not found")
)

const (
	callbackTimeout = 5 * time.Second
	analysisTimeout = 90 * time.Second
)

// RequestClassifier es el contrato que el wizard necesita del clasificador.
type RequestClassifier interface {
	Classify(ctx context.Context, description string) domain.ClassificationResult
}

// DashboardGate abre y cierra el panel presidencial para una sesion.
type DashboardGate interface {
	Open(sessionID, credential string, seed uint64) (AccessToken, error)
	Close(sessionID string)
}

// WizardOptions agrupa los parametros de negocio del flujo.
type WizardOptions struct {
	ProcessingDelay time.Duration
	Amounts         map[domain.PaymentMethod]domain.Amount
}

// SessionView es lo que ve el cliente de una sesion. Telefono y email del
// profesional elegido solo aparecen en StateContactRevealed.
type SessionView struct {
	ID              string                       `json:"id"`
	State           domain.WizardState           `json:"state"`
	Path            domain.WizardPath            `json:"path,omitempty"`
	Step            domain.VerificationStep      `json:"step,omitempty"`
	Request         *domain.ServiceRequest       `json:"request,omitempty"`
	Classification  *domain.ClassificationResult `json:"classification,omitempty"`
	Results         []domain.Professional        `json:"results"`
	Selected        *domain.Professional         `json:"selected,omitempty"`
	Email           string                       `json:"email,omitempty"`
	Captures        []domain.CaptureKind         `json:"captures,omitempty"`
	ProcessingUntil *time.Time                   `json:"processing_until,omitempty"`
	Payment         *domain.PendingPayment       `json:"payment,omitempty"`
	Amounts         []domain.Amount              `json:"amounts,omitempty"`
}

// WizardService es la maquina de estados del asistente. Cada operacion carga la
// sesion, valida la transicion y la guarda; las operaciones sobre una misma
// sesion se serializan.
type WizardService struct {
	store         SessionStore
	directory     repository.ProfessionalRepository
	classifier    RequestClassifier
	verifier      *Verifier
	registrations *RegistrationService
	dashboard     DashboardGate
	adapters      map[domain.PaymentMethod]PaymentAdapter
	opts          WizardOptions
	logger        *zap.Logger

	locks *keyedMutex

	now   func() time.Time
	newID func() string
	seed  func() uint64
}

func NewWizardService(
	store SessionStore,
	directory repository.ProfessionalRepository,
	classifier RequestClassifier,
	verifier *Verifier,
	registrations *RegistrationService,
	dashboard DashboardGate,
	adapters []PaymentAdapter,
	opts WizardOptions,
	logger *zap.Logger,
) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byMethod := make(map[domain.PaymentMethod]PaymentAdapter, len(adapters))
	for _, a := range adapters {
		byMethod[a.Method()] = a
	}
	return &WizardService{
		store:         store,
		directory:     directory,
		classifier:    classifier,
		verifier:      verifier,
		registrations: registrations,
		dashboard:     dashboard,
		adapters:      byMethod,
		opts:          opts,
		logger:        logger,
		locks:         newKeyedMutex(),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
		seed:          rand.Uint64,
	}
}

// Start crea una sesion nueva en Landing.
func (w *WizardService) Start(ctx context.Context) (SessionView, error) {
	now := w.now()
	sess := domain.WizardSession{
		ID:        w.newID(),
		State:     domain.StateLanding,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.store.Save(ctx, sess); err != nil {
		return SessionView{}, fmt.Errorf("save session: %w", err)
	}
	return w.view(ctx, sess)
}

// Get devuelve la vista actual. Si el procesamiento de identidad ya vencio,
// avanza a Success.
func (w *WizardService) Get(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(*domain.WizardSession) error { return nil })
}

// mutate carga la sesion bajo el lock de su id, aplica fn y guarda si fn no falla.
func (w *WizardService) mutate(ctx context.Context, id string, fn func(*domain.WizardSession) error) (SessionView, error) {
	unlock := w.locks.Lock(id)
	defer unlock()

	sess, err := w.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	if err := fn(&sess); err != nil {
		return SessionView{}, err
	}
	if err := w.save(ctx, &sess); err != nil {
		return SessionView{}, err
	}
	return w.view(ctx, sess)
}

func (w *WizardService) load(ctx context.Context, id string) (domain.WizardSession, error) {
	sess, err := w.store.Get(ctx, id)
	if err != nil {
		return domain.WizardSession{}, err
	}
	w.advanceProcessing(&sess)
	return sess, nil
}

func (w *WizardService) save(ctx context.Context, sess *domain.WizardSession) error {
	sess.UpdatedAt = w.now()
	if err := w.store.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (w *WizardService) advanceProcessing(sess *domain.WizardSession) {
	v := sess.Verification
	if sess.State != domain.StateIdentityVerification || v == nil || v.Step != domain.StepProcessing {
		return
	}
	if v.ProcessingUntil != nil && !w.now().Before(*v.ProcessingUntil) {
		v.Step = domain.StepSuccess
	}
}

func requireState(sess *domain.WizardSession, states ...domain.WizardState) error {
	if slices.Contains(states, sess.State) {
		return nil
	}
	return fmt.Errorf("%w: not allowed from %s", ErrInvalidTransition, sess.State)
}

func requireStep(sess *domain.WizardSession, step domain.VerificationStep) error {
	if err := requireState(sess, domain.StateIdentityVerification); err != nil {
		return err
	}
	if sess.Verification == nil || sess.Verification.Step != step {
		current := domain.StepNone
		if sess.Verification != nil {
			current = sess.Verification.Step
		}
		return fmt.Errorf("%w: verification step is %q, expected %q", ErrInvalidTransition, current, step)
	}
	return nil
}

// FindProfessional inicia el camino del solicitante.
func (w *WizardService) FindProfessional(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StateLanding); err != nil {
			return err
		}
		sess.State = domain.StateRequestForm
		sess.Path = domain.PathRequester
		return nil
	})
}

// StartProfessional inicia el alta de un profesional: va directo al desafio de email.
func (w *WizardService) StartProfessional(ctx context.Context, id, emailAddr string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StateLanding); err != nil {
			return err
		}
		v := &domain.Verification{Step: domain.StepEmailChallenge, Email: emailAddr}
		if err := w.verifier.IssueCode(ctx, v); err != nil {
			return err
		}
		sess.State = domain.StateIdentityVerification
		sess.Path = domain.PathProfessional
		sess.Verification = v
		return nil
	})
}

// SubmitRequest valida el pedido, lo clasifica y arma la lista de resultados.
// La sesion queda en Analyzing mientras dura la clasificacion; el lock no se
// mantiene durante la llamada al proveedor.
func (w *WizardService) SubmitRequest(ctx context.Context, id string, req domain.ServiceRequest) (SessionView, error) {
	if err := req.Validate(); err != nil {
		return SessionView{}, err
	}

	analysisID := w.newID()
	_, err := w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StateRequestForm); err != nil {
			return err
		}
		sess.State = domain.StateAnalyzing
		sess.Request = &req
		sess.AnalysisID = analysisID
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}

	// Una vez en Analyzing la sesion tiene que salir aunque el cliente corte.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), analysisTimeout)
	defer cancel()

	result := w.classifier.Classify(actx, req.ProblemDescription)
	directory, dirErr := w.directory.List(actx)

	var reverted bool
	view, err := w.mutate(actx, id, func(sess *domain.WizardSession) error {
		if sess.State != domain.StateAnalyzing || sess.AnalysisID != analysisID {
			// la sesion cambio durante la clasificacion: el resultado se descarta
			w.logger.Info("classification discarded", zap.String("session_id", id), zap.String("state", string(sess.State)))
			return nil
		}
		sess.AnalysisID = ""
		if dirErr != nil {
			sess.State = domain.StateRequestForm
			reverted = true
			return nil
		}
		matched := Match(result, directory)
		ids := make([]string, 0, len(matched))
		for _, p := range matched {
			ids = append(ids, p.ID)
		}
		sess.Classification = &result
		sess.ResultIDs = ids
		sess.State = domain.StateResultList
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	if reverted {
		w.logger.Warn("list directory failed", zap.Error(dirErr), zap.String("session_id", id))
		return SessionView{}, fmt.Errorf("list directory: %w", dirErr)
	}
	return view, nil
}

// SelectProfessional elige un profesional de la lista y abre el desafio de email
// con el email del pedido.
func (w *WizardService) SelectProfessional(ctx context.Context, id, professionalID string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StateResultList); err != nil {
			return err
		}
		if !slices.Contains(sess.ResultIDs, professionalID) {
			return fmt.Errorf("%w: %s is not in the result list", ErrProfessionalNotFound, professionalID)
		}
		emailAddr := ""
		if sess.Request != nil {
			emailAddr = sess.Request.Email
		}
		v := &domain.Verification{Step: domain.StepEmailChallenge, Email: emailAddr}
		if err := w.verifier.IssueCode(ctx, v); err != nil {
			return err
		}
		sess.SelectedProfessionalID = professionalID
		sess.State = domain.StateIdentityVerification
		sess.Verification = v
		return nil
	})
}

// VerifyEmailCode compara el codigo. Un codigo incorrecto deja todo igual.
func (w *WizardService) VerifyEmailCode(ctx context.Context, id, code string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireStep(sess, domain.StepEmailChallenge); err != nil {
			return err
		}
		if err := w.verifier.CheckCode(sess.Verification, code); err != nil {
			return err
		}
		sess.Verification.Step = domain.StepIntro
		sess.Verification.CodeHash = ""
		sess.Verification.CodeExpiresAt = nil
		return nil
	})
}

// ResendCode emite un codigo nuevo para el mismo email.
func (w *WizardService) ResendCode(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireStep(sess, domain.StepEmailChallenge); err != nil {
			return err
		}
		v := *sess.Verification
		if err := w.verifier.ResendCode(ctx, &v); err != nil {
			return err
		}
		sess.Verification = &v
		return nil
	})
}

// BeginCapture pasa de la introduccion a la primera foto.
func (w *WizardService) BeginCapture(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireStep(sess, domain.StepIntro); err != nil {
			return err
		}
		sess.Verification.Step = domain.StepCaptureFront
		return nil
	})
}

var nextCaptureStep = map[domain.VerificationStep]domain.VerificationStep{
	domain.StepCaptureFront:  domain.StepCaptureBack,
	domain.StepCaptureBack:   domain.StepCaptureSelfie,
	domain.StepCaptureSelfie: domain.StepProcessing,
}

// SubmitCapture acepta exactamente una foto del tipo que corresponde al paso
// actual. Despues de la selfie empieza el procesamiento.
func (w *WizardService) SubmitCapture(ctx context.Context, id string, kind domain.CaptureKind, dataURL string) (SessionView, error) {
	step, ok := kind.CaptureStep()
	if !ok {
		return SessionView{}, fmt.Errorf("%w: unknown capture kind %q", ErrCaptureInvalid, kind)
	}
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireStep(sess, step); err != nil {
			return err
		}
		ref, err := w.verifier.StoreCapture(ctx, sess.ID, kind, dataURL)
		if err != nil {
			return err
		}
		v := sess.Verification
		v.Captures = append(v.Captures, ref)
		v.Step = nextCaptureStep[step]
		if v.Step == domain.StepProcessing {
			until := w.now().Add(w.opts.ProcessingDelay)
			v.ProcessingUntil = &until
		}
		return nil
	})
}

// Continue sale de la verificacion exitosa: el profesional completa sus datos y el
// solicitante pasa al pago. El registro del solicitante no bloquea la transicion.
func (w *WizardService) Continue(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireStep(sess, domain.StepSuccess); err != nil {
			return err
		}
		switch sess.Path {
		case domain.PathProfessional:
			sess.State = domain.StateProfessionalDetails
		case domain.PathRequester:
			if sess.Request != nil {
				if err := w.registrations.SaveUser(ctx, *sess.Request, captureDataRef(sess.Verification)); err != nil {
					w.logger.Warn("save user registration failed", zap.Error(err), zap.String("session_id", sess.ID))
				}
			}
			sess.State = domain.StatePayment
		default:
			return fmt.Errorf("%w: session without path", ErrInvalidTransition)
		}
		return nil
	})
}

func captureDataRef(v *domain.Verification) string {
	if v == nil {
		return ""
	}
	refs := make([]string, 0, len(v.Captures))
	for _, c := range v.Captures {
		refs = append(refs, c.DataRef)
	}
	return strings.Join(refs, ",")
}

// SubmitProfessionalDetails guarda la solicitud del profesional y vuelve al inicio.
func (w *WizardService) SubmitProfessionalDetails(ctx context.Context, id string, details domain.ProfessionalDetails) (SessionView, error) {
	if err := ValidateDetails(details); err != nil {
		return SessionView{}, err
	}
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StateProfessionalDetails); err != nil {
			return err
		}
		emailAddr := ""
		if sess.Verification != nil {
			emailAddr = sess.Verification.Email
		}
		if err := w.registrations.SaveProfessional(ctx, emailAddr, details, captureDataRef(sess.Verification)); err != nil {
			w.logger.Warn("save professional registration failed", zap.Error(err), zap.String("session_id", sess.ID))
		}
		sess.ResetToLanding()
		return nil
	})
}

// StartPayment inicia el adaptador elegido. Un nuevo intento reemplaza al anterior:
// las confirmaciones del intento viejo se ignoran.
func (w *WizardService) StartPayment(ctx context.Context, id string, method domain.PaymentMethod) (Handoff, error) {
	adapter, ok := w.adapters[method]
	if !ok {
		return Handoff{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, method)
	}

	var handoff Handoff
	_, err := w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StatePayment); err != nil {
			return err
		}
		amount := w.opts.Amounts[method]
		var reference string
		// El callback toma el lock de la sesion antes de leer reference, que se
		// asigna mientras este mutate tiene el lock.
		handoff = adapter.Begin(amount, func() {
			w.completePayment(id, func() string { return reference })
		})
		reference = handoff.Reference

		sess.Payment = &domain.PendingPayment{
			Reference:            reference,
			Method:               method,
			Amount:               amount,
			RedirectURL:          handoff.RedirectURL,
			RequiresConfirmation: handoff.RequiresConfirmation,
			StartedAt:            w.now(),
		}
		return nil
	})
	if err != nil {
		return Handoff{}, err
	}
	return handoff, nil
}

// completePayment es el callback de exito de los adaptadores. Solo revela el
// contacto si la sesion sigue esperando ese mismo pago.
func (w *WizardService) completePayment(id string, reference func() string) {
	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	unlock := w.locks.Lock(id)
	defer unlock()

	ref := reference()

	sess, err := w.load(ctx, id)
	if err != nil {
		w.logger.Warn("payment callback for unknown session", zap.Error(err), zap.String("session_id", id), zap.String("reference", ref))
		return
	}
	if sess.State != domain.StatePayment || sess.Payment == nil || sess.Payment.Reference != ref {
		w.logger.Warn("late payment callback ignored",
			zap.String("session_id", id),
			zap.String("reference", ref),
			zap.String("state", string(sess.State)),
		)
		return
	}
	sess.State = domain.StateContactRevealed
	sess.PaidReference = ref
	sess.Payment = nil
	if err := w.save(ctx, &sess); err != nil {
		w.logger.Warn("save paid session failed", zap.Error(err), zap.String("session_id", id))
		return
	}
	w.logger.Info("payment completed", zap.String("session_id", id), zap.String("reference", ref))
}

// ConfirmPayment afirma que el pago externo se completo. Todo lo que valida sale
// de la sesion guardada, asi que cualquier instancia puede confirmar.
func (w *WizardService) ConfirmPayment(ctx context.Context, id, reference string) (SessionView, error) {
	_, err := w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StatePayment); err != nil {
			return err
		}
		if sess.Payment == nil || sess.Payment.Reference != reference {
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, reference)
		}
		if !sess.Payment.RequiresConfirmation {
			return fmt.Errorf("%w: %s does not require confirmation", ErrPaymentNotFound, reference)
		}
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}

	w.completePayment(id, func() string { return reference })
	return w.Get(ctx, id)
}

// OpenDashboard entra al panel presidencial desde cualquier estado.
func (w *WizardService) OpenDashboard(ctx context.Context, id, credential string) (SessionView, AccessToken, error) {
	var token AccessToken
	view, err := w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if w.dashboard == nil {
			return ErrDashboardDisabled
		}
		seed := w.seed()
		tok, err := w.dashboard.Open(sess.ID, credential, seed)
		if err != nil {
			return err
		}
		token = tok
		sess.DashboardSeed = seed
		sess.State = domain.StatePresidentDashboard
		return nil
	})
	if err != nil {
		return SessionView{}, AccessToken{}, err
	}
	return view, token, nil
}

// ExitDashboard vuelve al inicio.
func (w *WizardService) ExitDashboard(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if err := requireState(sess, domain.StatePresidentDashboard); err != nil {
			return err
		}
		if w.dashboard != nil {
			w.dashboard.Close(sess.ID)
		}
		sess.ResetToLanding()
		return nil
	})
}

// Reset descarta pedido, resultados y verificacion desde cualquier estado.
func (w *WizardService) Reset(ctx context.Context, id string) (SessionView, error) {
	return w.mutate(ctx, id, func(sess *domain.WizardSession) error {
		if sess.State == domain.StatePresidentDashboard && w.dashboard != nil {
			w.dashboard.Close(sess.ID)
		}
		sess.ResetToLanding()
		return nil
	})
}

func (w *WizardService) view(ctx context.Context, sess domain.WizardSession) (SessionView, error) {
	v := SessionView{
		ID:             sess.ID,
		State:          sess.State,
		Path:           sess.Path,
		Request:        sess.Request,
		Classification: sess.Classification,
		Payment:        sess.Payment,
	}
	if sess.Verification != nil {
		v.Step = sess.Verification.Step
		v.Email = sess.Verification.Email
		v.ProcessingUntil = sess.Verification.ProcessingUntil
		for _, c := range sess.Verification.Captures {
			v.Captures = append(v.Captures, c.Kind)
		}
	}
	if sess.State == domain.StatePayment {
		for _, a := range w.sortedAdapters() {
			v.Amounts = append(v.Amounts, w.opts.Amounts[a.Method()])
		}
	}

	if sess.State == domain.StateResultList {
		v.Results = []domain.Professional{}
	}
	if len(sess.ResultIDs) == 0 && sess.SelectedProfessionalID == "" {
		return v, nil
	}
	directory, err := w.directory.List(ctx)
	if err != nil {
		return SessionView{}, fmt.Errorf("list directory: %w", err)
	}
	byID := make(map[string]domain.Professional, len(directory))
	for _, p := range directory {
		byID[p.ID] = p
	}
	if len(sess.ResultIDs) > 0 {
		v.Results = make([]domain.Professional, 0, len(sess.ResultIDs))
		for _, pid := range sess.ResultIDs {
			if p, ok := byID[pid]; ok {
				v.Results = append(v.Results, p.Public())
			}
		}
	}
	if p, ok := byID[sess.SelectedProfessionalID]; ok {
		if sess.State != domain.StateContactRevealed {
			p = p.Public()
		}
		v.Selected = &p
	}
	return v, nil
}

func (w *WizardService) sortedAdapters() []PaymentAdapter {
	out := make([]PaymentAdapter, 0, len(w.adapters))
	for _, a := range w.adapters {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b PaymentAdapter) int {
		return strings.Compare(string(a.Method()), string(b.Method()))
	})
	return out
}
