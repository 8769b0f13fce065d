package domain

import "strings"

// TradeCategory es el rubro profesional. Los valores son las etiquetas canonicas
// que ve el usuario y que el clasificador debe devolver.
type TradeCategory string

const (
	TradePlumbing           TradeCategory = "Plomería"
	TradeGasFitting         TradeCategory = "Gasista"
	TradeElectrical         TradeCategory = "Electricista"
	TradeRoofing            TradeCategory = "Techista"
	TradeCarpentry          TradeCategory = "Carpintero"
	TradePainting           TradeCategory = "Pintor"
	TradeGardening          TradeCategory = "Jardinero"
	TradePoolService        TradeCategory = "Piletero"
	TradeArchitecture       TradeCategory = "Arquitecto"
	TradeGeneralMaintenance TradeCategory = "Mantenimiento General"
)

var allTrades = []TradeCategory{
	TradePlumbing,
	TradeGasFitting,
	TradeElectrical,
	TradeRoofing,
	TradeCarpentry,
	TradePainting,
	TradeGardening,
	TradePoolService,
	TradeArchitecture,
	TradeGeneralMaintenance,
}

// AllTrades devuelve la taxonomia completa en orden canonico.
func AllTrades() []TradeCategory {
	out := make([]TradeCategory, len(allTrades))
	copy(out, allTrades)
	return out
}

// TradeLabels devuelve las etiquetas como strings (para prompts y schemas).
func TradeLabels() []string {
	out := make([]string, len(allTrades))
	for i, t := range allTrades {
		out[i] = string(t)
	}
	return out
}

// ParseTrade acepta solo etiquetas canonicas exactas.
func ParseTrade(label string) (TradeCategory, bool) {
	for _, t := range allTrades {
		if string(t) == label {
			return t, true
		}
	}
	return "", false
}

func (t TradeCategory) Valid() bool {
	_, ok := ParseTrade(string(t))
	return ok
}

// keywordTrades mapea los oficios como los escribe la gente ("Plomero", "gasista")
// a la categoria canonica.
var keywordTrades = map[string]TradeCategory{
	"plomero":       TradePlumbing,
	"plomeria":      TradePlumbing,
	"plomería":      TradePlumbing,
	"gasista":       TradeGasFitting,
	"electricista":  TradeElectrical,
	"techista":      TradeRoofing,
	"carpintero":    TradeCarpentry,
	"pintor":        TradePainting,
	"jardinero":     TradeGardening,
	"piletero":      TradePoolService,
	"arquitecto":    TradeArchitecture,
	"mantenimiento": TradeGeneralMaintenance,
}

// TradeFromKeyword resuelve un oficio libre; lo desconocido (ej. "Cerrajero")
// cae en mantenimiento general.
func TradeFromKeyword(word string) TradeCategory {
	if t, ok := ParseTrade(strings.TrimSpace(word)); ok {
		return t
	}
	if t, ok := keywordTrades[strings.ToLower(strings.TrimSpace(word))]; ok {
		return t
	}
	return TradeGeneralMaintenance
}

// Urgency es la urgencia estimada de un pedido.
type Urgency string

const (
	UrgencyHigh   Urgency = "Alta"
	UrgencyMedium Urgency = "Media"
	UrgencyLow    Urgency = "Baja"
)

// UrgencyLabels devuelve los tres valores validos en orden.
func UrgencyLabels() []string {
	return []string{string(UrgencyHigh), string(UrgencyMedium), string(UrgencyLow)}
}

func ParseUrgency(label string) (Urgency, bool) {
	switch Urgency(label) {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return Urgency(label), true
	default:
		return "", false
	}
}
