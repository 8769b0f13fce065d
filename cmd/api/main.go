package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"manoya/internal/config"
	"manoya/internal/db"
	"manoya/internal/domain"
	"manoya/internal/email"
	apihttp "manoya/internal/http"
	"manoya/internal/llm"
	"manoya/internal/repository"
	"manoya/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	professionals repository.ProfessionalRepository
	registrations repository.RegistrationRepository
	logs          repository.SystemLogRepository
	captures      repository.CaptureRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	repos, pool := openRepositories(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	if n, err := repository.SeedIfEmpty(ctx, repos.professionals); err != nil {
		logger.Fatal("seed directory", zap.Error(err))
	} else if n > 0 {
		logger.Info("directory seeded", zap.Int("professionals", n))
	}

	var (
		sessionStore = service.NewMemorySessionStore(cfg.SessionTTL())
		codeLimiter  service.OTPRateLimiter
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process sessions", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient, cfg.SessionTTL())
			codeLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3, logger)
		}
		cancel()
	}

	generator, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
	}, logger)
	if err != nil {
		logger.Warn("llm init failed, classifier will use its default result", zap.Error(err))
		generator = nil
	}
	if generator == nil {
		logger.Warn("llm api key not configured")
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}
	if cfg.VerificationFixedCode != "" {
		logger.Warn("verification running with a fixed code")
	}
	if !cfg.EmailChallengeDeliverable() {
		logger.Error("email challenge cannot be delivered: set SMTP_HOST or VERIFICATION_FIXED_CODE; selecting a professional will fail with 503")
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL())
	if cfg.JWTSecret == "" || cfg.DashboardPasswordHash == "" {
		logger.Warn("dashboard disabled: jwt secret or password hash not configured")
	}
	dashboardSvc := service.NewDashboardService(repos.professionals, repos.registrations, repos.logs, generator, jwtSvc, cfg.DashboardPasswordHash, logger)

	simulated := service.NewSimulatedAdapter(domain.PaymentPayPal, cfg.SimulatedPaymentDelay())
	defer simulated.Stop()

	wizardSvc := service.NewWizardService(
		sessionStore,
		repos.professionals,
		service.NewClassifier(generator, logger),
		service.NewVerifier(cfg.VerificationFixedCode, emailSender, codeLimiter, repos.captures, logger),
		service.NewRegistrationService(repos.registrations, logger),
		dashboardSvc,
		[]service.PaymentAdapter{
			simulated,
			service.NewRedirectAdapter(domain.PaymentMercadoPago, cfg.MercadoPagoLink),
		},
		service.WizardOptions{
			ProcessingDelay: cfg.ProcessingDelay(),
			Amounts: map[domain.PaymentMethod]domain.Amount{
				domain.PaymentPayPal:      {Value: cfg.PaymentAmountUSD, Currency: "USD"},
				domain.PaymentMercadoPago: {Value: float64(cfg.PaymentAmountARS), Currency: "ARS"},
			},
		},
		logger,
	)

	router := apihttp.NewRouter(logger,
		apihttp.NewDirectoryHandler(logger, repos.professionals),
		apihttp.NewWizardHandler(logger, wizardSvc),
		apihttp.NewDashboardHandler(logger, dashboardSvc),
		jwtSvc,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openRepositories usa Postgres si hay DATABASE_URL y el directorio en memoria
// en caso contrario.
func openRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		logger.Warn("database url not configured, using in-memory repositories")
		return repositories{
			professionals: repository.NewMemoryProfessionalRepository(),
			registrations: repository.NewMemoryRegistrationRepository(),
			logs:          repository.NewMemorySystemLogRepository(),
			captures:      repository.NewMemoryCaptureRepository(),
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	return repositories{
		professionals: repository.NewPgProfessionalRepository(pool),
		registrations: repository.NewPgRegistrationRepository(pool),
		logs:          repository.NewPgSystemLogRepository(pool),
		captures:      repository.NewPgCaptureRepository(pool),
	}, pool
}
