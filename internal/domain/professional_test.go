package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfessional() Professional {
	return Professional{
		ID:          "1",
		Name:        "Carlos Ruiz",
		Trade:       TradePlumbing,
		Rating:      4.8,
		ReviewCount: 124,
		Verified:    true,
		Phone:       "+54 9 11 1234 5678",
		Email:       "carlos.plomeria@example.com",
		Reviews:     []Review{{Author: "Ana M.", Rating: 5, Comment: "Impecable"}},
	}
}

func TestProfessionalValidate(t *testing.T) {
	require.NoError(t, validProfessional().Validate())

	cases := map[string]func(p *Professional){
		"empty id":        func(p *Professional) { p.ID = " " },
		"empty name":      func(p *Professional) { p.Name = "" },
		"unknown trade":   func(p *Professional) { p.Trade = "Cerrajero" },
		"rating too high": func(p *Professional) { p.Rating = 5.1 },
		"negative rating": func(p *Professional) { p.Rating = -0.1 },
		"negative review": func(p *Professional) { p.ReviewCount = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validProfessional()
			mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfessional))
		})
	}
}

func TestProfessionalPublicHidesContact(t *testing.T) {
	p := validProfessional()
	pub := p.Public()

	assert.Empty(t, pub.Phone)
	assert.Empty(t, pub.Email)
	assert.Equal(t, p.Name, pub.Name)
	assert.NotEmpty(t, p.Phone, "original must keep contact data")

	pub.Reviews[0].Comment = "cambiado"
	assert.Equal(t, "Impecable", p.Reviews[0].Comment)
}

func TestServiceRequestValidate(t *testing.T) {
	req := ServiceRequest{Email: "ana@example.com", ProblemDescription: "pérdida de agua en la cocina"}
	require.NoError(t, req.Validate())

	req.ProblemDescription = "   "
	assert.ErrorIs(t, req.Validate(), ErrEmptyDescription)

	req.ProblemDescription = "canilla rota"
	req.Email = ""
	assert.ErrorIs(t, req.Validate(), ErrEmptyEmail)
}

func TestWizardSessionResetToLanding(t *testing.T) {
	s := WizardSession{
		ID:                     "s1",
		State:                  StatePayment,
		Path:                   PathRequester,
		Request:                &ServiceRequest{ProblemDescription: "x"},
		ResultIDs:              []string{"1"},
		SelectedProfessionalID: "1",
		Payment:                &PendingPayment{Reference: "ref"},
	}
	s.ResetToLanding()

	assert.Equal(t, StateLanding, s.State)
	assert.Equal(t, PathNone, s.Path)
	assert.Nil(t, s.Request)
	assert.Nil(t, s.ResultIDs)
	assert.Empty(t, s.SelectedProfessionalID)
	assert.Nil(t, s.Payment)
	assert.Equal(t, "s1", s.ID)
}
