package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test amount " + s)
	}
	return v
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		amount  *big.Int
		dec     int
		display int
		want    string
	}{
		{"zero", big.NewInt(0), 18, 4, "0.0000"},
		{"one ether", wei("1000000000000000000"), 18, 2, "1.00"},
		{"whole only", wei("12000000000000000000"), 18, 0, "12"},
		{"round half up", wei("1005000000000000000"), 18, 2, "1.01"},
		{"round down", wei("1004999999999999999"), 18, 2, "1.00"},
		{"carry into whole", wei("1999500000000000000"), 18, 3, "2.000"},
		{"full precision", wei("1"), 18, 18, "0.000000000000000001"},
		{"six decimals", big.NewInt(1_234_567), 6, 2, "1.23"},
		{"half rounds up at zero display", wei("2500000000000000000"), 18, 0, "3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.amount, tc.dec, tc.display)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormat_Invalid(t *testing.T) {
	_, err := Format(nil, 18, 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Format(big.NewInt(-1), 18, 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Format(big.NewInt(1), 6, 8)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatLessThan(t *testing.T) {
	got, err := FormatLessThan(big.NewInt(0), 18, 4)
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = FormatLessThan(wei("10000000000000"), 18, 4)
	require.NoError(t, err)
	assert.Equal(t, "<0.0001", got)

	got, err = FormatLessThan(wei("100000000000000"), 18, 4)
	require.NoError(t, err)
	assert.Equal(t, "0.0001", got)
}

func TestParse(t *testing.T) {
	got, err := Parse("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", got.String())

	got, err = Parse(" 0.0000000000000000019 ", 18)
	require.NoError(t, err)
	assert.Equal(t, "1", got.String(), "precision beyond decimals truncates")

	for _, bad := range []string{"", "abc", "-1", "1.2.3"} {
		_, err := Parse(bad, 18)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestParseWholeTokens(t *testing.T) {
	got, err := ParseWholeTokens("10", 18)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", got.String())

	got, err = ParseWholeTokens("0", 18)
	require.NoError(t, err)
	assert.Zero(t, got.Sign())

	for _, bad := range []string{"", " ", "-1", "+1", "1.5", "1e3", "ten"} {
		_, err := ParseWholeTokens(bad, 18)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []string{
		"0",
		"1",
		"499999999999999",
		"500000000000000",
		"123456789012345678901234",
		"999999999999999999",
		"1000000000000000000",
	}
	const display = 4
	tolerance := new(big.Int).Div(Unit(18-display), big.NewInt(2))

	for _, v := range values {
		x := wei(v)
		s, err := Format(x, 18, display)
		require.NoError(t, err)

		back, err := Parse(s, 18)
		require.NoError(t, err)

		diff := new(big.Int).Sub(back, x)
		diff.Abs(diff)
		assert.True(t, diff.Cmp(tolerance) <= 0, "x=%s formatted=%s parsed=%s", v, s, back)
	}
}
