package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr error
	}{
		{in: "100", want: 10000},
		{in: "33.34", want: 3334},
		{in: "0.1", want: 10},
		{in: " 12.50 ", want: 1250},
		{in: "-30.00", want: -3000},
		{in: "12.345", wantErr: ErrTooManyDigits},
		{in: "", wantErr: ErrInvalidAmount},
		{in: "abc", wantErr: ErrInvalidAmount},
		{in: "10000000000000.00", want: MaxAmount},
		{in: "-10000000000000.00", want: -MaxAmount},
		{in: "10000000000000.01", wantErr: ErrInvalidAmount},
		{in: "46116860184273879.04", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "33.34", FromMinor(3334).String())
	assert.Equal(t, "0.01", FromMinor(1).String())
	assert.Equal(t, "-60.00", FromMinor(-6000).String())
	assert.Equal(t, "0.00", Zero.String())
}

func TestFromDecimalRoundsHalfUp(t *testing.T) {
	assert.Equal(t, Money(3333), FromDecimal(decimal.RequireFromString("33.3333")))
	assert.Equal(t, Money(1), FromDecimal(decimal.RequireFromString("0.005")))
	assert.Equal(t, Money(0), FromDecimal(decimal.RequireFromString("0.004")))
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		pct    string
		amount string
		want   string
	}{
		{pct: "60", amount: "50.00", want: "30.00"},
		{pct: "40", amount: "50.00", want: "20.00"},
		{pct: "33.33", amount: "10.00", want: "3.33"},
		{pct: "50", amount: "0.01", want: "0.01"},
		{pct: "12.5", amount: "0.04", want: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.pct+"% of "+tt.amount, func(t *testing.T) {
			got := MustParsePercent(tt.pct).Of(MustParse(tt.amount))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParsePercent(t *testing.T) {
	p, err := ParsePercent("33.33")
	require.NoError(t, err)
	assert.Equal(t, Percent(3333), p)

	_, err = ParsePercent("33.333")
	assert.ErrorIs(t, err, ErrTooManyDigits)

	_, err = ParsePercent("x")
	assert.ErrorIs(t, err, ErrInvalidPercent)
}

func TestJSON(t *testing.T) {
	type payload struct {
		Amount  Money    `json:"amount"`
		Percent *Percent `json:"percent,omitempty"`
	}

	out, err := json.Marshal(payload{Amount: 1250})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50"}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"33.34","percent":"60"}`), &in))
	assert.Equal(t, Money(3334), in.Amount)
	require.NotNil(t, in.Percent)
	assert.Equal(t, Percent(6000), *in.Percent)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":7.5}`), &in))
	assert.Equal(t, Money(750), in.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"1.001"}`), &in))
}
