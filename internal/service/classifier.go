package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/llm"
)

const (
	ReasoningMissingCredentials = "Clasificación automática no disponible (Falta API Key)."
	ReasoningClassifierFailure  = "No pudimos clasificar el problema automáticamente, pero aquí hay profesionales generales."
)

// Classifier traduce la descripcion libre del problema a un oficio y una urgencia.
// Nunca devuelve error: ante cualquier falla responde con un resultado por defecto.
type Classifier struct {
	generator llm.StructuredGenerator
	logger    *zap.Logger
}

// NewClassifier acepta generator nil (sin credenciales).
func NewClassifier(generator llm.StructuredGenerator, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{generator: generator, logger: logger}
}

func fallbackClassification(reasoning string) domain.ClassificationResult {
	return domain.ClassificationResult{
		Trade:     domain.TradeGeneralMaintenance,
		Reasoning: reasoning,
		Urgency:   domain.UrgencyMedium,
	}
}

// ClassificationSchema es el schema de salida: oficio y urgencia restringidos a
// sus etiquetas canonicas.
func ClassificationSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"trade":     {Type: llm.TypeString, Enum: domain.TradeLabels()},
			"reasoning": {Type: llm.TypeString},
			"urgency":   {Type: llm.TypeString, Enum: domain.UrgencyLabels()},
		},
		Required: []string{"trade", "reasoning", "urgency"},
	}
}

func buildClassificationPrompt(description string) string {
	return fmt.Sprintf(`Analiza el siguiente problema de un usuario en Buenos Aires y clasificalo en uno de los siguientes rubros profesionales:
[%s].

Problema del usuario: %q

Devuelve un JSON con el rubro (trade), una breve razón (reasoning) y la urgencia estimada (urgency: %s).`,
		strings.Join(domain.TradeLabels(), ", "),
		description,
		strings.Join(domain.UrgencyLabels(), ", "),
	)
}

// Classify hace exactamente un intento contra el proveedor.
func (c *Classifier) Classify(ctx context.Context, description string) domain.ClassificationResult {
	if c.generator == nil {
		c.logger.Warn("classifier without credentials, using default classification")
		return fallbackClassification(ReasoningMissingCredentials)
	}

	raw, err := c.generator.GenerateStructured(ctx, buildClassificationPrompt(description), ClassificationSchema())
	if err != nil {
		c.logger.Warn("classification request failed", zap.Error(err))
		return fallbackClassification(ReasoningClassifierFailure)
	}

	result, err := parseClassification(raw)
	if err != nil {
		c.logger.Warn("classification response rejected", zap.Error(err), zap.String("raw", raw))
		return fallbackClassification(ReasoningClassifierFailure)
	}
	return result
}

func parseClassification(raw string) (domain.ClassificationResult, error) {
	var payload struct {
		Trade     string `json:"trade"`
		Reasoning string `json:"reasoning"`
		Urgency   string `json:"urgency"`
	}
	if err := decodeLLMJSON(raw, &payload); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("decode classification: %w", err)
	}
	trade, ok := domain.ParseTrade(strings.TrimSpace(payload.Trade))
	if !ok {
		return domain.ClassificationResult{}, fmt.Errorf("non canonical trade %q", payload.Trade)
	}
	urgency, ok := domain.ParseUrgency(strings.TrimSpace(payload.Urgency))
	if !ok {
		return domain.ClassificationResult{}, fmt.Errorf("non canonical urgency %q", payload.Urgency)
	}
	reasoning := strings.TrimSpace(payload.Reasoning)
	if reasoning == "" {
		return domain.ClassificationResult{}, fmt.Errorf("empty reasoning")
	}
	return domain.ClassificationResult{Trade: trade, Reasoning: reasoning, Urgency: urgency}, nil
}
