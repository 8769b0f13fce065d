package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"manoya/internal/domain"
	"manoya/internal/email"
	"manoya/internal/repository"
	"manoya/internal/service"
)

const testCredential = "presidente"

type fixedClassifier struct {
	result domain.ClassificationResult
}

func (f fixedClassifier) Classify(context.Context, string) domain.ClassificationResult {
	return f.result
}

type testServer struct {
	router        http.Handler
	registrations *repository.MemoryRegistrationRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zap.NewNop()

	directory := repository.NewMemoryProfessionalRepository()
	_, err := repository.SeedIfEmpty(ctx, directory)
	require.NoError(t, err)
	regs := repository.NewMemoryRegistrationRepository()

	hash, err := bcrypt.GenerateFromPassword([]byte(testCredential), bcrypt.MinCost)
	require.NoError(t, err)
	jwtSvc := service.NewJWTService("secret", time.Minute)
	dashboard := service.NewDashboardService(directory, regs, repository.NewMemorySystemLogRepository(), nil, jwtSvc, string(hash), logger)

	simulated := service.NewSimulatedAdapter(domain.PaymentPayPal, time.Hour)
	t.Cleanup(simulated.Stop)

	wizard := service.NewWizardService(
		service.NewMemorySessionStore(time.Hour),
		directory,
		fixedClassifier{result: domain.ClassificationResult{Trade: domain.TradePlumbing, Reasoning: "Pérdida de agua.", Urgency: domain.UrgencyHigh}},
		service.NewVerifier("123456", email.NewDisabledSender("smtp not configured"), nil, repository.NewMemoryCaptureRepository(), logger),
		service.NewRegistrationService(regs, logger),
		dashboard,
		[]service.PaymentAdapter{simulated, service.NewRedirectAdapter(domain.PaymentMercadoPago, "https://link.mercadopago.com.ar/manoya")},
		service.WizardOptions{
			Amounts: map[domain.PaymentMethod]domain.Amount{
				domain.PaymentPayPal:      {Value: 5, Currency: "USD"},
				domain.PaymentMercadoPago: {Value: 5000, Currency: "ARS"},
			},
		},
		logger,
	)

	r := NewRouter(logger,
		NewDirectoryHandler(logger, directory),
		NewWizardHandler(logger, wizard),
		NewDashboardHandler(logger, dashboard),
		jwtSvc,
	)
	return &testServer{router: r, registrations: regs}
}

func performRequest(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type sessionResponse struct {
	Session service.SessionView `json:"session"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) service.SessionView {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Session
}

func (s *testServer) post(t *testing.T, id, action string, body any, want int) service.SessionView {
	t.Helper()
	rec := performRequest(s.router, http.MethodPost, fmt.Sprintf("/wizard/sessions/%s/%s", id, action), body)
	require.Equal(t, want, rec.Code, rec.Body.String())
	if want != http.StatusOK {
		return service.SessionView{}
	}
	return decodeSession(t, rec)
}

func (s *testServer) startSession(t *testing.T) string {
	t.Helper()
	rec := performRequest(s.router, http.MethodPost, "/wizard/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decodeSession(t, rec)
	require.Equal(t, domain.StateLanding, view.State)
	return view.ID
}

func testPNG() string {
	payload := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

func (s *testServer) verifyIdentity(t *testing.T, id string) {
	t.Helper()
	s.post(t, id, "code", gin.H{"code": "000000"}, http.StatusUnprocessableEntity)
	view := s.post(t, id, "code", gin.H{"code": "123456"}, http.StatusOK)
	require.Equal(t, domain.StepIntro, view.Step)
	s.post(t, id, "capture/begin", nil, http.StatusOK)
	s.post(t, id, "capture", gin.H{"kind": "back", "data_url": testPNG()}, http.StatusConflict)
	for _, kind := range []string{"front", "back", "selfie"} {
		s.post(t, id, "capture", gin.H{"kind": kind, "data_url": testPNG()}, http.StatusOK)
	}
	rec := performRequest(s.router, http.MethodGet, "/wizard/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.StepSuccess, decodeSession(t, rec).Step)
}

func TestDirectoryEndpointsHideContact(t *testing.T) {
	s := newTestServer(t)

	rec := performRequest(s.router, http.MethodGet, "/trades", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plomería")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = performRequest(s.router, http.MethodGet, "/professionals?q=Plomer%C3%ADa%20en%20Palermo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Professionals []domain.Professional `json:"professionals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list.Professionals)
	for _, p := range list.Professionals {
		assert.Empty(t, p.Phone)
		assert.Empty(t, p.Email)
	}

	rec = performRequest(s.router, http.MethodGet, "/professionals/"+list.Professionals[0].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"phone"`)

	rec = performRequest(s.router, http.MethodGet, "/professionals/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequesterFlowRevealsContactAfterConfirmedPayment(t *testing.T) {
	s := newTestServer(t)
	id := s.startSession(t)

	s.post(t, id, "request", gin.H{"problem_description": "pierde la canilla", "email": "ana@example.com"}, http.StatusConflict)
	s.post(t, id, "find", nil, http.StatusOK)
	s.post(t, id, "request", gin.H{"email": "ana@example.com"}, http.StatusBadRequest)

	view := s.post(t, id, "request", gin.H{
		"name":                "Ana",
		"email":               "ana@example.com",
		"location":            "Palermo",
		"problem_description": "Tengo una pérdida de agua en la cocina",
	}, http.StatusOK)
	require.Equal(t, domain.StateResultList, view.State)
	require.NotEmpty(t, view.Results)
	for _, p := range view.Results {
		assert.Equal(t, domain.TradePlumbing, p.Trade)
		assert.Empty(t, p.Phone)
	}

	s.post(t, id, "select", gin.H{"professional_id": "does-not-exist"}, http.StatusNotFound)
	view = s.post(t, id, "select", gin.H{"professional_id": view.Results[0].ID}, http.StatusOK)
	require.Equal(t, domain.StepEmailChallenge, view.Step)

	s.verifyIdentity(t, id)
	view = s.post(t, id, "continue", nil, http.StatusOK)
	require.Equal(t, domain.StatePayment, view.State)
	require.NotNil(t, view.Selected)
	assert.Empty(t, view.Selected.Phone)
	assert.Len(t, s.registrations.Users(), 1)

	s.post(t, id, "payment", gin.H{"method": "bitcoin"}, http.StatusBadRequest)
	rec := performRequest(s.router, http.MethodPost, "/wizard/sessions/"+id+"/payment", gin.H{"method": "mercadopago"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var started struct {
		Payment service.Handoff `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.True(t, started.Payment.RequiresConfirmation)
	require.NotEmpty(t, started.Payment.RedirectURL)

	s.post(t, id, "payment/confirm", gin.H{"reference": "MY-unknown"}, http.StatusNotFound)
	view = s.post(t, id, "payment/confirm", gin.H{"reference": started.Payment.Reference}, http.StatusOK)
	require.Equal(t, domain.StateContactRevealed, view.State)
	require.NotNil(t, view.Selected)
	assert.NotEmpty(t, view.Selected.Phone)

	view = s.post(t, id, "reset", nil, http.StatusOK)
	assert.Equal(t, domain.StateLanding, view.State)
	assert.Nil(t, view.Request)
}

func TestProfessionalFlowSavesApplication(t *testing.T) {
	s := newTestServer(t)
	id := s.startSession(t)

	view := s.post(t, id, "professional", gin.H{"email": "pro@example.com"}, http.StatusOK)
	require.Equal(t, domain.PathProfessional, view.Path)
	s.verifyIdentity(t, id)

	view = s.post(t, id, "continue", nil, http.StatusOK)
	require.Equal(t, domain.StateProfessionalDetails, view.State)

	s.post(t, id, "details", gin.H{"name": "Juan", "phone": "11", "trade": "Cerrajero", "zone": "Caballito"}, http.StatusBadRequest)
	view = s.post(t, id, "details", gin.H{"name": "Juan", "phone": "11", "trade": "Electricista", "zone": "Caballito"}, http.StatusOK)
	assert.Equal(t, domain.StateLanding, view.State)

	pros := s.registrations.Professionals()
	require.Len(t, pros, 1)
	assert.Equal(t, "pro@example.com", pros[0].Email)
	assert.Equal(t, domain.ProfessionalStatusPendingReview, pros[0].Status)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := performRequest(s.router, http.MethodGet, "/wizard/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardRequiresCredentialAndToken(t *testing.T) {
	s := newTestServer(t)
	id := s.startSession(t)

	s.post(t, id, "dashboard", gin.H{"credential": "wrong"}, http.StatusUnauthorized)
	rec := performRequest(s.router, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(s.router, http.MethodPost, "/wizard/sessions/"+id+"/dashboard", gin.H{"credential": testCredential})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var opened struct {
		Session service.SessionView `json:"session"`
		Token   service.AccessToken `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	require.Equal(t, domain.StatePresidentDashboard, opened.Session.State)
	auth := []string{"Authorization", "Bearer " + opened.Token.AccessToken}

	rec = performRequest(s.router, http.MethodGet, "/admin/stats", nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Stats domain.CompanyStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.Stats.ActivePros)
	assert.Equal(t, 9, stats.Stats.VerifiedPros)

	rec = performRequest(s.router, http.MethodPost, "/admin/tick", nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = performRequest(s.router, http.MethodPost, "/admin/campaign", gin.H{"target": "ALIENS"}, auth...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = performRequest(s.router, http.MethodPost, "/admin/campaign", gin.H{"target": "USERS", "goal": "lanzamiento"}, auth...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = performRequest(s.router, http.MethodGet, "/admin/logs", nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs struct {
		Logs []domain.SystemLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs.Logs, 2)

	view := s.post(t, id, "dashboard/exit", nil, http.StatusOK)
	assert.Equal(t, domain.StateLanding, view.State)
}
