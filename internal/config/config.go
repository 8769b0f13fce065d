package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
// Todo colaborador externo es opcional: sin DATABASE_URL se usa el directorio
// en memoria, sin REDIS_ADDR las sesiones viven en el proceso y sin LLM_API_KEY
// el clasificador devuelve su resultado por defecto.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	LLMProvider string `env:"LLM_PROVIDER" envDefault:"gemini"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel    string `env:"LLM_MODEL"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"MANO YA"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"30"`

	// Hash bcrypt de la credencial del dashboard presidencial.
	DashboardPasswordHash string `env:"DASHBOARD_PASSWORD_HASH"`

	// Con código fijo (ej. 123456) el desafío de email funciona sin SMTP.
	VerificationFixedCode         string `env:"VERIFICATION_FIXED_CODE"`
	VerificationProcessingSeconds int    `env:"VERIFICATION_PROCESSING_SECONDS" envDefault:"3"`

	PaymentAmountARS        int     `env:"PAYMENT_AMOUNT_ARS" envDefault:"5000"`
	PaymentAmountUSD        float64 `env:"PAYMENT_AMOUNT_USD" envDefault:"5"`
	PaymentSimulatedDelayMS int     `env:"PAYMENT_SIMULATED_DELAY_MS" envDefault:"2000"`
	MercadoPagoLink         string  `env:"MERCADO_PAGO_LINK" envDefault:"https://link.mercadopago.com.ar/manoya"`

	SessionTTLMinutes int `env:"SESSION_TTL_MINUTES" envDefault:"60"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ProcessingDelay() time.Duration {
	return time.Duration(c.VerificationProcessingSeconds) * time.Second
}

func (c *Config) SimulatedPaymentDelay() time.Duration {
	return time.Duration(c.PaymentSimulatedDelayMS) * time.Millisecond
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

// EmailChallengeDeliverable indica si el desafio de email puede completarse:
// hace falta SMTP o un codigo fijo.
func (c *Config) EmailChallengeDeliverable() bool {
	return c.SMTPHost != "" || c.VerificationFixedCode != ""
}
