package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"blank", "", true},
		{"whitespace", "   \t", true},
		{"na_upper", "N/A", true},
		{"null_literal", "null", true},
		{"none_literal", "None", true},
		{"dash", "-", true},
		{"real_value", "info@example.com", false},
		{"phone", "+41 22 555 0100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.in))
		})
	}
}

func TestFillMissingOnlyWritesEmptyFields(t *testing.T) {
	r := &Record{
		CompanyName:  "Amadeus Capital SA",
		Country:      "Switzerland, Europe",
		CompanyPhone: "+41 22 555 0100",
	}

	filled := FillMissing(r, map[string]string{
		FieldCompanyPhone: "+41 99 999 9999",
		FieldCompanyEmail: "info@amadeus.example",
	}, []string{FieldCompanyEmail, FieldCompanyPhone})

	assert.Equal(t, 1, filled)
	assert.Equal(t, "+41 22 555 0100", r.CompanyPhone, "populated field must never be overwritten")
	assert.Equal(t, "info@amadeus.example", r.CompanyEmail)
}

func TestFillMissingIgnoresUnrequestedKeys(t *testing.T) {
	r := &Record{CompanyName: "Alpha Blue Ocean", Country: "France"}

	filled := FillMissing(r, map[string]string{
		FieldCompanyEmail: "contact@abo.example",
		FieldCEO:          "Pierre Vannineuse", // not in the requested schema
	}, []string{FieldCompanyEmail})

	assert.Equal(t, 1, filled)
	assert.Equal(t, "contact@abo.example", r.CompanyEmail)
	assert.Empty(t, r.CEO, "keys outside the requested schema must be ignored")
}

func TestFillMissingNeverTouchesIdentity(t *testing.T) {
	r := &Record{CompanyName: "UBS", Country: "Switzerland"}

	filled := FillMissing(r, map[string]string{
		FieldCompanyName: "UBS Group AG",
		FieldCountry:     "CH",
	}, []string{FieldCompanyName, FieldCountry})

	assert.Zero(t, filled)
	assert.Equal(t, "UBS", r.CompanyName)
	assert.Equal(t, "Switzerland", r.Country)
}

func TestFillMissingSkipsPlaceholderValues(t *testing.T) {
	r := &Record{CompanyName: "Rothschild & Co", Country: "France"}

	filled := FillMissing(r, map[string]string{
		FieldCompanyEmail: "N/A",
		FieldCompanyPhone: "null",
	}, []string{FieldCompanyEmail, FieldCompanyPhone})

	assert.Zero(t, filled)
	assert.Empty(t, r.CompanyEmail)
	assert.Empty(t, r.CompanyPhone)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Alpha Blue Ocean", "alpha blue ocean"},
		{"collapse_spaces", "  Amadeus   Capital  SA ", "amadeus capital sa"},
		{"fullwidth_nfkc", "ＵＢＳ", "ubs"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}
