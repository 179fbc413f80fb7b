package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount, rate, want string
	}{
		{"100.00", "0.90", "90.0000"},
		{"1", "0.12345", "0.1235"},
		{"1", "0.12344", "0.1234"},
		{"2.5", "1", "2.5000"},
		{"33.3333", "3", "99.9999"},
	}
	for _, tc := range cases {
		got := Convert(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rate))
		assert.Equal(t, tc.want, Format(got), "%s x %s", tc.amount, tc.rate)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(" 12.50 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	_, err = Parse("")
	assert.Error(t, err)

	_, err = Parse("twelve")
	assert.Error(t, err)
}

func TestPositive(t *testing.T) {
	assert.True(t, Positive(decimal.RequireFromString("0.0001")))
	assert.False(t, Positive(decimal.RequireFromString("0.00001")))
	assert.False(t, Positive(decimal.Zero))
	assert.False(t, Positive(decimal.RequireFromString("-1")))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "EUR", NormalizeCurrency(" eur "))
}
