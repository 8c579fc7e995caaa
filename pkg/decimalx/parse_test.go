package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    decimal.Decimal
		wantErr bool
	}{
		{name: "integer", input: "100", want: decimal.NewFromInt(100)},
		{name: "fraction with spaces", input: "  99.99 ", want: MustFromString("99.99")},
		{name: "empty", input: "   ", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive(MustFromString("0.0001")))
	assert.False(t, IsPositive(decimal.Zero))
	assert.False(t, IsPositive(MustFromString("-1")))
}
