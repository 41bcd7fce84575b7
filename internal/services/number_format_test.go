package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocaleNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"2,5", 2.5, false},
		{"2.5", 2.5, false},
		{"1.234,56", 1234.56, false},
		{"1,234.56", 1234.56, false},
		{" R$ 50,00 ", 50, false},
		{"-3,25", -3.25, false},
		{"10", 10, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1,2,3", 0, true},
		{"1.234.567", 1234567, false},
		{"R$ 2.500.000", 2500000, false},
		{"1.234", 1.234, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLocaleNumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "4,00", FormatDecimal(4, 2))
	assert.Equal(t, "1.234,50", FormatDecimal(1234.5, 2))
	assert.Equal(t, "1.234.567,89", FormatDecimal(1234567.891, 2))
	assert.Equal(t, "-20,00", FormatDecimal(-20, 2))
	assert.Equal(t, "0,33", FormatDecimal(1.0/3.0, 2))
	assert.Equal(t, "R$ 220,00", FormatMoney("R$", 220))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 0.33, RoundMoney(1.0/3.0))
	assert.Equal(t, 10.01, RoundMoney(10.005))
}

func TestLocaleFloatUnmarshal(t *testing.T) {
	var payload struct {
		A LocaleFloat `json:"a"`
		B LocaleFloat `json:"b"`
		C LocaleFloat `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": 1.5, "b": "2,75", "c": null}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, 1.5, payload.A.Float64())
	assert.Equal(t, 2.75, payload.B.Float64())
	assert.Equal(t, 0.0, payload.C.Float64())

	err = json.Unmarshal([]byte(`{"a": "x"}`), &payload)
	assert.Error(t, err)
}
