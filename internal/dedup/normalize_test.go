package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "AC Repair Service", "ac repair service"},
		{"trims", "  drain cleaning  ", "drain cleaning"},
		{"collapses runs", "water\t\theater   install", "water heater install"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "ac repair service", "AC Repair Service", 1.0},
		{"disjoint", "drain cleaning", "roof inspection", 0.0},
		{"partial overlap", "ac repair", "ac repair service", 2.0 / 3.0},
		{"duplicate tokens collapse", "repair repair ac", "ac repair", 1.0},
		{"both empty", "", "", 0.0},
		{"one empty", "ac repair", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TokenSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTokenSimilarity_Symmetric(t *testing.T) {
	a, b := "emergency ac repair", "ac repair service"
	assert.Equal(t, TokenSimilarity(a, b), TokenSimilarity(b, a))
}
