package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manoya/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	directoryH *DirectoryHandler,
	wizardH *WizardHandler,
	dashboardH *DashboardHandler,
	jwtSvc *service.JWTService,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/trades", directoryH.ListTrades)
	r.GET("/professionals", directoryH.ListProfessionals)
	r.GET("/professionals/:id", directoryH.GetProfessional)

	wizard := r.Group("/wizard/sessions")
	wizard.POST("", wizardH.CreateSession)
	wizard.GET("/:id", wizardH.GetSession)
	wizard.POST("/:id/find", wizardH.FindProfessional)
	wizard.POST("/:id/professional", wizardH.StartProfessional)
	wizard.POST("/:id/request", wizardH.SubmitRequest)
	wizard.POST("/:id/select", wizardH.SelectProfessional)
	wizard.POST("/:id/code", wizardH.VerifyCode)
	wizard.POST("/:id/code/resend", wizardH.ResendCode)
	wizard.POST("/:id/capture/begin", wizardH.BeginCapture)
	wizard.POST("/:id/capture", wizardH.SubmitCapture)
	wizard.POST("/:id/continue", wizardH.Continue)
	wizard.POST("/:id/details", wizardH.SubmitDetails)
	wizard.POST("/:id/payment", wizardH.StartPayment)
	wizard.POST("/:id/payment/confirm", wizardH.ConfirmPayment)
	wizard.POST("/:id/dashboard", wizardH.OpenDashboard)
	wizard.POST("/:id/dashboard/exit", wizardH.ExitDashboard)
	wizard.POST("/:id/reset", wizardH.Reset)

	admin := r.Group("/admin", JWTAuthMiddleware(jwtSvc))
	admin.GET("/stats", dashboardH.Stats)
	admin.POST("/tick", dashboardH.Tick)
	admin.POST("/campaign", dashboardH.Campaign)
	admin.GET("/logs", dashboardH.Logs)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
