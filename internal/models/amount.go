package models

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kipubank/kipu-atm/internal/apperr"
)

// EtherDecimals is the number of decimals between wei and ether.
const EtherDecimals = 18

// Plain decimal notation only. Exponents would let a short input expand
// into an arbitrarily large integer.
var amountPattern = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)

// maxWei is the largest amount a uint256 can carry.
var maxWei = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseAmount parses a human ether amount ("0.5") into wei.
// The amount must be positive and representable in wei.
func ParseAmount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if !amountPattern.MatchString(input) {
		return nil, apperr.ErrInvalidAmount
	}

	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, apperr.ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return nil, apperr.ErrInvalidAmount
	}

	wei := d.Shift(EtherDecimals)
	if !wei.IsInteger() {
		return nil, apperr.ErrTooManyDecimals
	}

	amount := wei.BigInt()
	if amount.Cmp(maxWei) > 0 {
		return nil, apperr.ErrInvalidAmount
	}
	return amount, nil
}

// ToEther converts wei to an ether decimal.
func ToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals)
}

// FormatEther renders wei as ether with 4 decimals.
func FormatEther(wei *big.Int) string {
	return ToEther(wei).StringFixed(4)
}
