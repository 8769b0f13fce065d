package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Options agrupa lo necesario para elegir y construir el proveedor.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	// Vacio elige el modelo por defecto del proveedor.
	Model string
}

// New devuelve el generador configurado, o nil sin error cuando no hay API key:
// el clasificador interpreta nil como "credenciales faltantes".
func New(ctx context.Context, opts Options, logger *zap.Logger) (StructuredGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, nil
	}
	model := strings.TrimSpace(opts.Model)
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderGemini:
		if model == "" {
			model = DefaultGeminiModel
		}
		client, err := NewGeminiClient(ctx, opts.APIKey, model, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewHTTPClient(opts.BaseURL, opts.APIKey, model, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
