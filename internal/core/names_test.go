package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Ada", "ADA", true},
		{"Élodie", "élodie", true},
		{"Ωmega", "ωMEGA", true},
		{"Ada", "Adam", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.same, NameKey(tt.a) == NameKey(tt.b))
		})
	}
}
