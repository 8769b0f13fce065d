package leads

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"manoya/internal/domain"
)

var (
	// DefaultServices son los oficios que se buscan si no se pasan por flag.
	DefaultServices = []string{"Plomero", "Electricista", "Gasista", "Cerrajero"}
	DefaultCities   = []string{"Buenos Aires", "CABA", "Palermo", "Recoleta"}
)

var phonePattern = regexp.MustCompile(`(\+\d{2,4}|\d{2,4})[\s-]?\d{3,4}[\s-]?\d{3,4}`)

// Lead es un resultado de Google Maps antes de entrar al directorio.
type Lead struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// RawCard es el texto de una tarjeta de resultados tal como lo devuelve la pagina.
type RawCard struct {
	Text    string `json:"text"`
	Website string `json:"website"`
}

// Query arma la busqueda "<oficio> en <ciudad>".
func Query(service, city string) string {
	return strings.TrimSpace(service) + " en " + strings.TrimSpace(city)
}

// ParseCard toma la primera linea como nombre y la primera linea con forma de
// telefono. Las tarjetas sin telefono se descartan.
func ParseCard(card RawCard) (Lead, bool) {
	lines := strings.Split(card.Text, "\n")
	name := strings.TrimSpace(lines[0])
	if name == "" {
		return Lead{}, false
	}
	for _, l := range lines {
		if phonePattern.MatchString(l) {
			return Lead{Name: name, Phone: strings.TrimSpace(l), Website: strings.TrimSpace(card.Website)}, true
		}
	}
	return Lead{}, false
}

// ParseCards aplica ParseCard y descarta duplicados por telefono.
func ParseCards(cards []RawCard) []Lead {
	seen := make(map[string]bool, len(cards))
	out := make([]Lead, 0, len(cards))
	for _, c := range cards {
		lead, ok := ParseCard(c)
		if !ok || seen[lead.Phone] {
			continue
		}
		seen[lead.Phone] = true
		out = append(out, lead)
	}
	return out
}

// ToProfessional convierte el lead en un registro no verificado del directorio.
func (l Lead) ToProfessional(service, city string) domain.Professional {
	return domain.Professional{
		ID:        uuid.NewString(),
		Name:      l.Name,
		Trade:     domain.TradeFromKeyword(service),
		Location:  city,
		Phone:     l.Phone,
		Website:   l.Website,
		Source:    domain.SourceMapsScraper,
		Reviews:   []domain.Review{},
		Portfolio: []domain.PortfolioItem{},
	}
}
