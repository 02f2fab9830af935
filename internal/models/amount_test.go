package models

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipubank/kipu-atm/internal/apperr"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		err   error
	}{
		{input: "0.5", want: "500000000000000000"},
		{input: " 1 ", want: "1000000000000000000"},
		{input: "0.000000000000000001", want: "1"},
		{input: "", err: apperr.ErrInvalidAmount},
		{input: "abc", err: apperr.ErrInvalidAmount},
		{input: "0", err: apperr.ErrInvalidAmount},
		{input: "-1", err: apperr.ErrInvalidAmount},
		{input: "0.0000000000000000001", err: apperr.ErrTooManyDecimals},
		{input: ".5", want: "500000000000000000"},
		{input: "1e100000000", err: apperr.ErrInvalidAmount},
		{input: "1e-5", err: apperr.ErrInvalidAmount},
		{input: "1E18", err: apperr.ErrInvalidAmount},
		{input: "+1", err: apperr.ErrInvalidAmount},
		{input: "1.2.3", err: apperr.ErrInvalidAmount},
		{input: ".", err: apperr.ErrInvalidAmount},
		{input: "2.", err: apperr.ErrInvalidAmount},
		{input: "115792089237316195423570985008687907853269984665640564039457.584007913129639935", want: "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{input: "115792089237316195423570985008687907853269984665640564039458", err: apperr.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0.0000", FormatEther(nil))
	assert.Equal(t, "1.5000", FormatEther(big.NewInt(1_500_000_000_000_000_000)))
	assert.Equal(t, "0.0012", FormatEther(big.NewInt(1_234_567_000_000_000)))
}
