package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/service"
)

// WizardHandler expone la maquina de estados del asistente. Cada endpoint
// devuelve la vista actualizada de la sesion.
type WizardHandler struct {
	logger *zap.Logger
	wizard *service.WizardService
}

func NewWizardHandler(logger *zap.Logger, wizard *service.WizardService) *WizardHandler {
	return &WizardHandler{logger: logger, wizard: wizard}
}

func (h *WizardHandler) respond(c *gin.Context, op string, view service.SessionView, err error) {
	if err != nil {
		writeError(c, h.logger, op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

func (h *WizardHandler) bind(c *gin.Context, op string, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("invalid "+op+" request", zap.Error(err), zap.String("session_id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// CreateSession maneja POST /wizard/sessions.
func (h *WizardHandler) CreateSession(c *gin.Context) {
	view, err := h.wizard.Start(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "start session", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": view})
}

// GetSession maneja GET /wizard/sessions/:id.
func (h *WizardHandler) GetSession(c *gin.Context) {
	view, err := h.wizard.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, "get session", view, err)
}

// FindProfessional maneja POST /wizard/sessions/:id/find.
func (h *WizardHandler) FindProfessional(c *gin.Context) {
	view, err := h.wizard.FindProfessional(c.Request.Context(), c.Param("id"))
	h.respond(c, "find professional", view, err)
}

// StartProfessional maneja POST /wizard/sessions/:id/professional.
func (h *WizardHandler) StartProfessional(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if !h.bind(c, "start professional", &req) {
		return
	}
	view, err := h.wizard.StartProfessional(c.Request.Context(), c.Param("id"), req.Email)
	h.respond(c, "start professional", view, err)
}

// SubmitRequest maneja POST /wizard/sessions/:id/request. Responde cuando la
// clasificacion termino; un pedido sin descripcion no sale de RequestForm.
func (h *WizardHandler) SubmitRequest(c *gin.Context) {
	var req domain.ServiceRequest
	if !h.bind(c, "submit request", &req) {
		return
	}
	view, err := h.wizard.SubmitRequest(c.Request.Context(), c.Param("id"), req)
	h.respond(c, "submit request", view, err)
}

// SelectProfessional maneja POST /wizard/sessions/:id/select.
func (h *WizardHandler) SelectProfessional(c *gin.Context) {
	var req struct {
		ProfessionalID string `json:"professional_id" binding:"required"`
	}
	if !h.bind(c, "select professional", &req) {
		return
	}
	view, err := h.wizard.SelectProfessional(c.Request.Context(), c.Param("id"), req.ProfessionalID)
	h.respond(c, "select professional", view, err)
}

// VerifyCode maneja POST /wizard/sessions/:id/code.
func (h *WizardHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if !h.bind(c, "verify code", &req) {
		return
	}
	view, err := h.wizard.VerifyEmailCode(c.Request.Context(), c.Param("id"), req.Code)
	h.respond(c, "verify code", view, err)
}

// ResendCode maneja POST /wizard/sessions/:id/code/resend.
func (h *WizardHandler) ResendCode(c *gin.Context) {
	view, err := h.wizard.ResendCode(c.Request.Context(), c.Param("id"))
	h.respond(c, "resend code", view, err)
}

// BeginCapture maneja POST /wizard/sessions/:id/capture/begin.
func (h *WizardHandler) BeginCapture(c *gin.Context) {
	view, err := h.wizard.BeginCapture(c.Request.Context(), c.Param("id"))
	h.respond(c, "begin capture", view, err)
}

// SubmitCapture maneja POST /wizard/sessions/:id/capture.
func (h *WizardHandler) SubmitCapture(c *gin.Context) {
	var req struct {
		Kind    domain.CaptureKind `json:"kind" binding:"required"`
		DataURL string             `json:"data_url" binding:"required"`
	}
	if !h.bind(c, "submit capture", &req) {
		return
	}
	view, err := h.wizard.SubmitCapture(c.Request.Context(), c.Param("id"), req.Kind, req.DataURL)
	h.respond(c, "submit capture", view, err)
}

// Continue maneja POST /wizard/sessions/:id/continue.
func (h *WizardHandler) Continue(c *gin.Context) {
	view, err := h.wizard.Continue(c.Request.Context(), c.Param("id"))
	h.respond(c, "continue", view, err)
}

// SubmitDetails maneja POST /wizard/sessions/:id/details.
func (h *WizardHandler) SubmitDetails(c *gin.Context) {
	var req domain.ProfessionalDetails
	if !h.bind(c, "submit details", &req) {
		return
	}
	view, err := h.wizard.SubmitProfessionalDetails(c.Request.Context(), c.Param("id"), req)
	h.respond(c, "submit details", view, err)
}

// StartPayment maneja POST /wizard/sessions/:id/payment.
func (h *WizardHandler) StartPayment(c *gin.Context) {
	var req struct {
		Method domain.PaymentMethod `json:"method" binding:"required"`
	}
	if !h.bind(c, "start payment", &req) {
		return
	}
	ctx := c.Request.Context()
	handoff, err := h.wizard.StartPayment(ctx, c.Param("id"), req.Method)
	if err != nil {
		writeError(c, h.logger, "start payment", err)
		return
	}
	view, err := h.wizard.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "start payment", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"payment": handoff, "session": view})
}

// ConfirmPayment maneja POST /wizard/sessions/:id/payment/confirm.
func (h *WizardHandler) ConfirmPayment(c *gin.Context) {
	var req struct {
		Reference string `json:"reference" binding:"required"`
	}
	if !h.bind(c, "confirm payment", &req) {
		return
	}
	view, err := h.wizard.ConfirmPayment(c.Request.Context(), c.Param("id"), req.Reference)
	h.respond(c, "confirm payment", view, err)
}

// OpenDashboard maneja POST /wizard/sessions/:id/dashboard y entrega el token
// para las rutas /admin.
func (h *WizardHandler) OpenDashboard(c *gin.Context) {
	var req struct {
		Credential string `json:"credential" binding:"required"`
	}
	if !h.bind(c, "open dashboard", &req) {
		return
	}
	view, token, err := h.wizard.OpenDashboard(c.Request.Context(), c.Param("id"), req.Credential)
	if err != nil {
		h.logger.Warn("dashboard access denied", zap.Error(err), zap.String("session_id", c.Param("id")))
		writeError(c, h.logger, "open dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view, "token": token})
}

// ExitDashboard maneja POST /wizard/sessions/:id/dashboard/exit.
func (h *WizardHandler) ExitDashboard(c *gin.Context) {
	view, err := h.wizard.ExitDashboard(c.Request.Context(), c.Param("id"))
	h.respond(c, "exit dashboard", view, err)
}

// Reset maneja POST /wizard/sessions/:id/reset.
func (h *WizardHandler) Reset(c *gin.Context) {
	view, err := h.wizard.Reset(c.Request.Context(), c.Param("id"))
	h.respond(c, "reset", view, err)
}
