package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Review struct {
	Author  string  `json:"author" yaml:"author"`
	Rating  float64 `json:"rating" yaml:"rating"`
	Comment string  `json:"comment" yaml:"comment"`
}

type PortfolioItem struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	ImageURL    string `json:"image_url" yaml:"image_url"`
	Description string `json:"description" yaml:"description"`
}

const (
	SourceDirectory     = "directory"
	SourceMapsScraper   = "Google Maps Scraper"
	MaxProfessionalRate = 5.0
)

// Professional es un registro del directorio. Phone y Email solo se muestran
// al solicitante despues del pago.
type Professional struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Trade         TradeCategory   `json:"trade" yaml:"trade"`
	Rating        float64         `json:"rating" yaml:"rating"`
	ReviewCount   int             `json:"review_count" yaml:"review_count"`
	Verified      bool            `json:"verified" yaml:"verified"`
	Location      string          `json:"location" yaml:"location"`
	HourlyRateARS *int            `json:"hourly_rate_ars,omitempty" yaml:"hourly_rate_ars,omitempty"`
	ImageURL      string          `json:"image_url,omitempty" yaml:"image_url"`
	Description   string          `json:"description" yaml:"description"`
	Reviews       []Review        `json:"reviews" yaml:"reviews"`
	Portfolio     []PortfolioItem `json:"portfolio" yaml:"portfolio"`
	Phone         string          `json:"phone,omitempty" yaml:"phone"`
	Email         string          `json:"email,omitempty" yaml:"email"`
	Website       string          `json:"website,omitempty" yaml:"website,omitempty"`
	Source        string          `json:"source,omitempty" yaml:"source,omitempty"`
}

var ErrInvalidProfessional = errors.New("invalid professional")

// Validate controla los invariantes del modelo.
func (p Professional) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidProfessional)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProfessional)
	}
	if !p.Trade.Valid() {
		return fmt.Errorf("%w: unknown trade %q", ErrInvalidProfessional, p.Trade)
	}
	if p.Rating < 0 || p.Rating > MaxProfessionalRate {
		return fmt.Errorf("%w: rating %.2f out of range", ErrInvalidProfessional, p.Rating)
	}
	if p.ReviewCount < 0 {
		return fmt.Errorf("%w: negative review count", ErrInvalidProfessional)
	}
	return nil
}

// Public devuelve una copia sin datos de contacto.
func (p Professional) Public() Professional {
	p.Phone = ""
	p.Email = ""
	p.Reviews = append([]Review(nil), p.Reviews...)
	p.Portfolio = append([]PortfolioItem(nil), p.Portfolio...)
	return p
}

// PublicList aplica Public a cada elemento.
func PublicList(pros []Professional) []Professional {
	out := make([]Professional, 0, len(pros))
	for _, p := range pros {
		out = append(out, p.Public())
	}
	return out
}
