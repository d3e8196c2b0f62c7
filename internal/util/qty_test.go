package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "plain integer", input: "42", want: 42, wantOK: true},
		{name: "decimal dot", input: "1.5", want: 1.5, wantOK: true},
		{name: "decimal comma", input: "1,5", want: 1.5, wantOK: true},
		{name: "single dot group is decimal", input: "1.000", want: 1, wantOK: true},
		{name: "german grouping", input: "1.234,5", want: 1234.5, wantOK: true},
		{name: "english grouping", input: "1,234.5", want: 1234.5, wantOK: true},
		{name: "repeated dot grouping", input: "1.000.000", want: 1000000, wantOK: true},
		{name: "repeated comma grouping", input: "1,000,000", want: 1000000, wantOK: true},
		{name: "nbsp grouping", input: "1 234,50", want: 1234.5, wantOK: true},
		{name: "narrow nbsp", input: "2 345,6", want: 2345.6, wantOK: true},
		{name: "surrounding whitespace", input: "  7,25 ", want: 7.25, wantOK: true},
		{name: "negative", input: "-3,5", want: -3.5, wantOK: true},
		{name: "exponent", input: "1e3", want: 1000, wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "abc", wantOK: false},
		{name: "unit suffix", input: "12 kg", wantOK: false},
		{name: "nan text", input: "nan", wantOK: false},
		{name: "inf text", input: "Inf", wantOK: false},
		{name: "lone minus", input: "-", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDecimal(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestLenientFloatDefaultsToZero(t *testing.T) {
	assert.Equal(t, 0.0, LenientFloat("n/a"))
	assert.Equal(t, 0.0, LenientFloat(""))
	assert.Equal(t, 2.5, LenientFloat("2,5"))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.2346, Round(1.23456, 4))
	assert.Equal(t, -1.2346, Round(-1.23456, 4))
	assert.Equal(t, 3600.0, Round(3600, 4))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "10.0", FormatFloat(10))
	assert.Equal(t, "0.15", FormatFloat(0.15))
	assert.Equal(t, "2400.0", FormatFloat(2400))
	assert.Equal(t, "0.005", FormatFloat(0.005))
	assert.Equal(t, "-3.5", FormatFloat(-3.5))
}
