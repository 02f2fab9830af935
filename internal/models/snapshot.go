package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Network identifies the chain the wallet is connected to.
type Network struct {
	Name    string
	ChainID uint64
}

// BankSummary is the tuple returned by the contract's summary() view.
type BankSummary struct {
	TotalBalance       *big.Int
	TotalDeposits      *big.Int
	TotalWithdrawals   *big.Int
	BankCap            *big.Int
	MaxWithdrawalPerTx *big.Int
}

// Snapshot is a cached read of the ledger for one account.
//
// The values come from independent remote reads, not from a single block, so
// a snapshot can mix states when the ledger changes while it is being
// refreshed. UserBalance above TotalBankBalance is one visible symptom, the
// other is the owner draining the bank after a deposit; both are reported by
// Shortfall and never corrected locally.
type Snapshot struct {
	UserBalance        *big.Int
	WalletBalance      *big.Int
	TotalBankBalance   *big.Int
	TotalDeposits      uint64
	TotalWithdrawals   uint64
	BankCap            *big.Int
	MaxWithdrawalPerTx *big.Int
	Owner              common.Address
	IsOwner            bool
	UserDeposits       uint64
	UserWithdrawals    uint64
	RefreshedAt        time.Time
}

// Loaded reports whether the snapshot was produced by a refresh.
func (s Snapshot) Loaded() bool {
	return !s.RefreshedAt.IsZero()
}

// RemainingCapacity is bankCap - totalBankBalance, floored at zero.
func (s Snapshot) RemainingCapacity() *big.Int {
	remaining := new(big.Int).Sub(orZero(s.BankCap), orZero(s.TotalBankBalance))
	if remaining.Sign() < 0 {
		return new(big.Int)
	}
	return remaining
}

// WithdrawLimit is the largest amount a withdrawal can pass local checks with.
func (s Snapshot) WithdrawLimit() *big.Int {
	limit := orZero(s.UserBalance)
	if orZero(s.TotalBankBalance).Cmp(limit) < 0 {
		limit = orZero(s.TotalBankBalance)
	}
	if orZero(s.MaxWithdrawalPerTx).Cmp(limit) < 0 {
		limit = orZero(s.MaxWithdrawalPerTx)
	}
	return new(big.Int).Set(limit)
}

// Shortfall is how much of the user's balance the bank cannot currently cover.
func (s Snapshot) Shortfall() *big.Int {
	diff := new(big.Int).Sub(orZero(s.UserBalance), orZero(s.TotalBankBalance))
	if diff.Sign() < 0 {
		return new(big.Int)
	}
	return diff
}

// Utilization is the share of the bank cap in use, as a percentage.
func (s Snapshot) Utilization() decimal.Decimal {
	if orZero(s.BankCap).Sign() == 0 {
		return decimal.Zero
	}
	used := decimal.NewFromBigInt(orZero(s.TotalBankBalance), 0)
	capacity := decimal.NewFromBigInt(s.BankCap, 0)
	return used.Div(capacity).Mul(decimal.NewFromInt(100))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
