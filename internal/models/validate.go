package models

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kipubank/kipu-atm/internal/apperr"
)

// The checks below mirror the contract's rules against the cached snapshot.
// They only spare the user a doomed transaction: the contract remains the
// authority and may still reject a request that passes them.

// ValidateDeposit checks a deposit amount against the wallet balance and the
// remaining bank capacity.
func ValidateDeposit(snap Snapshot, input string) (*big.Int, error) {
	const op = "deposit"

	amount, err := parseLoaded(op, snap, input)
	if err != nil {
		return nil, err
	}

	if amount.Cmp(orZero(snap.WalletBalance)) > 0 {
		return nil, apperr.Validation(op, apperr.ErrExceedsWalletBalance)
	}

	if amount.Cmp(snap.RemainingCapacity()) > 0 {
		return nil, apperr.Validation(op, apperr.ErrExceedsBankCapacity)
	}

	return amount, nil
}

// ValidateWithdraw checks a withdrawal against the user's balance, the funds the
// bank actually holds and the per-transaction limit.
func ValidateWithdraw(snap Snapshot, input string) (*big.Int, error) {
	const op = "withdraw"

	amount, err := parseLoaded(op, snap, input)
	if err != nil {
		return nil, err
	}

	userBalance := orZero(snap.UserBalance)
	bankBalance := orZero(snap.TotalBankBalance)

	if bankBalance.Sign() == 0 && userBalance.Sign() > 0 {
		return nil, apperr.Validation(op, apperr.ErrNoFundsAvailable)
	}

	if amount.Cmp(userBalance) > 0 {
		return nil, apperr.Validation(op, apperr.ErrExceedsUserBalance)
	}

	if amount.Cmp(bankBalance) > 0 {
		return nil, apperr.Validation(op, apperr.ErrPartialFunds)
	}

	if amount.Cmp(orZero(snap.MaxWithdrawalPerTx)) > 0 {
		return nil, apperr.Validation(op, apperr.ErrExceedsWithdrawLimit)
	}

	return amount, nil
}

// ValidateOwnerWithdraw checks an owner drain against the bank balance.
// Ownership itself is left to the contract.
func ValidateOwnerWithdraw(snap Snapshot, input string) (*big.Int, error) {
	const op = "ownerWithdrawFromBank"

	amount, err := parseLoaded(op, snap, input)
	if err != nil {
		return nil, err
	}

	if amount.Cmp(orZero(snap.TotalBankBalance)) > 0 {
		return nil, apperr.Validation(op, apperr.ErrExceedsBankBalance)
	}

	return amount, nil
}

// ValidateNewOwner checks an ownership transfer target.
func ValidateNewOwner(account common.Address, input string) (common.Address, error) {
	const op = "transferOwnership"

	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, apperr.Validation(op, apperr.ErrInvalidAddress)
	}

	target := common.HexToAddress(input)
	if target == (common.Address{}) {
		return common.Address{}, apperr.Validation(op, apperr.ErrInvalidAddress)
	}
	if target == account {
		return common.Address{}, apperr.Validation(op, apperr.ErrSameAddress)
	}

	return target, nil
}

func parseLoaded(op string, snap Snapshot, input string) (*big.Int, error) {
	amount, err := ParseAmount(input)
	if err != nil {
		return nil, apperr.Validation(op, err)
	}
	if !snap.Loaded() {
		return nil, apperr.Validation(op, apperr.ErrSnapshotNotLoaded)
	}
	return amount, nil
}
