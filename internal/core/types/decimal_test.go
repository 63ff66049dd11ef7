package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "5", want: "5.000"},
		{name: "three decimals kept", input: "10.123", want: "10.123"},
		{name: "excess digits rounded down", input: "10.12345", want: "10.123"},
		{name: "excess digits rounded up", input: "10.1235", want: "10.124"},
		{name: "half rounds up", input: "0.0006", want: "0.001"},
		{name: "below half rounds to zero and fails", input: "0.0004", wantErr: true},
		{name: "exact half of smallest step rounds up", input: "0.0005", want: "0.001"},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "negative rejected", input: "-3.5", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "garbage rejected", input: "abc", wantErr: true},
		{name: "leading dot", input: ".5", want: "0.500"},
		{name: "trailing dot", input: "7.", want: "7.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuantity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				appErr, ok := apperror.AsAppError(err)
				require.True(t, ok)
				assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.String())
		})
	}
}

func TestParseCost(t *testing.T) {
	c, err := ParseCost("125.505")
	require.NoError(t, err)
	assert.Equal(t, "125.51", c.StringFixed(2))

	_, err = ParseCost("0")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidCost, appErr.Code)

	// Positive input that vanishes at money scale is still invalid.
	_, err = ParseCost("0.004")
	require.Error(t, err)

	_, err = ParseCost("-10")
	require.Error(t, err)
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "0.000", Quantity(0).String())
	assert.Equal(t, "0.001", Quantity(1).String())
	assert.Equal(t, "-0.001", Quantity(-1).String())
	assert.Equal(t, "1234.567", Quantity(1234567).String())
	assert.Equal(t, "-2.500", Quantity(-2500).String())
}

func TestQuantityAmount(t *testing.T) {
	q, err := ParseQuantity("3")
	require.NoError(t, err)

	// 3 * 33.335 = 100.005, rounded once at money scale.
	amount := q.Amount(MustMoney("33.335"))
	assert.Equal(t, "100.01", amount.StringFixed(2))

	// 2.5 * 10.01 = 25.025 -> 25.03
	q, err = ParseQuantity("2.5")
	require.NoError(t, err)
	amount = q.Amount(MustMoney("10.01"))
	assert.Equal(t, "25.03", amount.StringFixed(2))
}

func TestQuantityJSON(t *testing.T) {
	type payload struct {
		Qty Quantity `json:"qty"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty": 12.345}`), &p))
	assert.Equal(t, Quantity(12345), p.Qty)

	require.NoError(t, json.Unmarshal([]byte(`{"qty": "7.2"}`), &p))
	assert.Equal(t, Quantity(7200), p.Qty)

	out, err := json.Marshal(payload{Qty: Quantity(500)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty": 0.500}`, string(out))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "10.13", RoundMoney(MustMoney("10.125")).StringFixed(2))
	assert.Equal(t, "10.12", RoundMoney(MustMoney("10.124")).StringFixed(2))
}
