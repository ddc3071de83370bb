package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		tick float64
		want float64
	}{
		{"round down", 1.234, 0.01, 1.23},
		{"round up", 1.236, 0.01, 1.24},
		{"nickel tick", 1.23, 0.05, 1.25},
		{"zero tick passthrough", 1.234, 0, 1.234},
		{"negative tick passthrough", 1.234, -0.01, 1.234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundToTick(tt.x, tt.tick), 1e-9)
		})
	}
}

func TestContractQuantity(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		spot  float64
		want  int64
	}{
		{"exact multiple", 100000, 250, 4},
		{"truncates fractional contract", 99999, 250, 3},
		{"below one contract", 20000, 250, 0},
		{"zero spot", 100000, 0, 0},
		{"negative spot", 100000, -1, 0},
		{"negative portfolio", -100000, 250, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContractQuantity(decimal.NewFromFloat(tt.value), decimal.NewFromFloat(tt.spot))
			assert.Equal(t, tt.want, got)
		})
	}
}
