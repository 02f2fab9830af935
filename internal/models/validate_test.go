package models

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipubank/kipu-atm/internal/apperr"
)

func eth(t *testing.T, amount string) *big.Int {
	t.Helper()
	wei, err := ParseAmount(amount)
	require.NoError(t, err)
	return wei
}

func loadedSnapshot(t *testing.T) Snapshot {
	return Snapshot{
		UserBalance:        eth(t, "2"),
		WalletBalance:      eth(t, "1"),
		TotalBankBalance:   eth(t, "5"),
		BankCap:            eth(t, "10"),
		MaxWithdrawalPerTx: eth(t, "1.5"),
		RefreshedAt:        time.Now(),
	}
}

func TestValidateDeposit(t *testing.T) {
	snap := loadedSnapshot(t)

	amount, err := ValidateDeposit(snap, "0.5")
	require.NoError(t, err)
	assert.Equal(t, eth(t, "0.5"), amount)

	_, err = ValidateDeposit(snap, "1.01")
	assert.ErrorIs(t, err, apperr.ErrExceedsWalletBalance)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = ValidateDeposit(snap, "zero")
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
}

func TestValidateDepositRespectsBankCap(t *testing.T) {
	snap := loadedSnapshot(t)
	snap.WalletBalance = eth(t, "100")
	snap.TotalBankBalance = eth(t, "9.5")

	_, err := ValidateDeposit(snap, "0.6")
	assert.ErrorIs(t, err, apperr.ErrExceedsBankCapacity)

	_, err = ValidateDeposit(snap, "0.5")
	assert.NoError(t, err)
}

func TestValidateDepositBankOverCap(t *testing.T) {
	snap := loadedSnapshot(t)
	snap.TotalBankBalance = eth(t, "11")

	assert.Equal(t, int64(0), snap.RemainingCapacity().Int64())
	_, err := ValidateDeposit(snap, "0.1")
	assert.ErrorIs(t, err, apperr.ErrExceedsBankCapacity)
}

func TestValidateRequiresLoadedSnapshot(t *testing.T) {
	_, err := ValidateDeposit(Snapshot{}, "0.1")
	assert.ErrorIs(t, err, apperr.ErrSnapshotNotLoaded)

	_, err = ValidateWithdraw(Snapshot{}, "0.1")
	assert.ErrorIs(t, err, apperr.ErrSnapshotNotLoaded)
}

func TestValidateWithdraw(t *testing.T) {
	snap := loadedSnapshot(t)

	_, err := ValidateWithdraw(snap, "1.5")
	require.NoError(t, err)

	_, err = ValidateWithdraw(snap, "1.6")
	assert.ErrorIs(t, err, apperr.ErrExceedsWithdrawLimit)

	_, err = ValidateWithdraw(snap, "2.5")
	assert.ErrorIs(t, err, apperr.ErrExceedsUserBalance)
}

func TestValidateWithdrawPartiallyDrainedBank(t *testing.T) {
	snap := loadedSnapshot(t)
	snap.UserBalance = eth(t, "2")
	snap.TotalBankBalance = eth(t, "1")
	snap.MaxWithdrawalPerTx = eth(t, "5")

	_, err := ValidateWithdraw(snap, "1.5")
	assert.ErrorIs(t, err, apperr.ErrPartialFunds)

	amount, err := ValidateWithdraw(snap, "1.0")
	require.NoError(t, err)
	assert.Equal(t, eth(t, "1"), amount)
	assert.Equal(t, eth(t, "1"), snap.Shortfall())
}

func TestValidateWithdrawEmptyBank(t *testing.T) {
	snap := loadedSnapshot(t)
	snap.TotalBankBalance = new(big.Int)

	_, err := ValidateWithdraw(snap, "0.1")
	assert.ErrorIs(t, err, apperr.ErrNoFundsAvailable)
}

func TestWithdrawLimitIsMinimum(t *testing.T) {
	snap := loadedSnapshot(t)
	assert.Equal(t, eth(t, "1.5"), snap.WithdrawLimit())

	snap.TotalBankBalance = eth(t, "0.2")
	assert.Equal(t, eth(t, "0.2"), snap.WithdrawLimit())

	snap.UserBalance = eth(t, "0.1")
	assert.Equal(t, eth(t, "0.1"), snap.WithdrawLimit())
}

func TestValidateOwnerWithdraw(t *testing.T) {
	snap := loadedSnapshot(t)

	_, err := ValidateOwnerWithdraw(snap, "5")
	assert.NoError(t, err)

	_, err = ValidateOwnerWithdraw(snap, "5.1")
	assert.ErrorIs(t, err, apperr.ErrExceedsBankBalance)
}

func TestValidateNewOwner(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")

	target, err := ValidateNewOwner(account, " 0x2222222222222222222222222222222222222222 ")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), target)

	_, err = ValidateNewOwner(account, account.Hex())
	assert.ErrorIs(t, err, apperr.ErrSameAddress)

	_, err = ValidateNewOwner(account, "0x1234")
	assert.ErrorIs(t, err, apperr.ErrInvalidAddress)

	_, err = ValidateNewOwner(account, "0x0000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, apperr.ErrInvalidAddress)
}

func TestUtilization(t *testing.T) {
	snap := loadedSnapshot(t)
	assert.Equal(t, "50.00", snap.Utilization().StringFixed(2))

	snap.BankCap = nil
	assert.True(t, snap.Utilization().IsZero())
}
