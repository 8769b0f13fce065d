package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manoya/internal/domain"
)

func TestParseCardKeepsFirstPhoneLine(t *testing.T) {
	lead, ok := ParseCard(RawCard{
		Text:    "Plomería Don José\n4,6(120)\nPlomero · Av. Santa Fe 1234\n011 4567-8910\nAbierto 24 horas",
		Website: " https://donjose.com.ar ",
	})
	require.True(t, ok)
	assert.Equal(t, "Plomería Don José", lead.Name)
	assert.Equal(t, "011 4567-8910", lead.Phone)
	assert.Equal(t, "https://donjose.com.ar", lead.Website)
}

func TestParseCardWithoutPhoneIsDropped(t *testing.T) {
	_, ok := ParseCard(RawCard{Text: "Cerrajería Centro\nCerrado\nCerrajero"})
	assert.False(t, ok)

	_, ok = ParseCard(RawCard{Text: ""})
	assert.False(t, ok)
}

func TestParseCardsDeduplicatesByPhone(t *testing.T) {
	leads := ParseCards([]RawCard{
		{Text: "A\n+54 911 2345-6789"},
		{Text: "A (sucursal)\n+54 911 2345-6789"},
		{Text: "B\nsin datos"},
		{Text: "C\n011 4000-1000"},
	})
	require.Len(t, leads, 2)
	assert.Equal(t, "A", leads[0].Name)
	assert.Equal(t, "C", leads[1].Name)
}

func TestToProfessionalMapsTradeAndSource(t *testing.T) {
	p := Lead{Name: "Cerrajería Centro", Phone: "011 4000-1000"}.ToProfessional("Cerrajero", "CABA")
	require.NoError(t, p.Validate())
	assert.Equal(t, domain.TradeGeneralMaintenance, p.Trade)
	assert.Equal(t, domain.SourceMapsScraper, p.Source)
	assert.False(t, p.Verified)
	assert.Equal(t, "CABA", p.Location)

	p = Lead{Name: "Gas Sur", Phone: "011 4000-1001"}.ToProfessional("Gasista", "Palermo")
	assert.Equal(t, domain.TradeGasFitting, p.Trade)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "Plomero en Palermo", Query(" Plomero", "Palermo "))
}
