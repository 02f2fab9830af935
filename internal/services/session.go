package services

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/kipubank/kipu-atm/internal/ledger"
	"github.com/kipubank/kipu-atm/internal/models"
	"github.com/kipubank/kipu-atm/internal/storage"
	"github.com/kipubank/kipu-atm/internal/wallet"
)

// Session is a connected account bound to the bank contract.
// The zero value is a disconnected session.
type Session struct {
	ID        string
	Account   common.Address
	Network   models.Network
	Connected bool

	ledger Ledger
}

// Ledger is the part of the bank contract the service drives.
type Ledger interface {
	Address() common.Address
	GetBalance(ctx context.Context, user common.Address) (*big.Int, error)
	Summary(ctx context.Context) (models.BankSummary, error)
	Owner(ctx context.Context) (common.Address, error)
	UserDepositsCount(ctx context.Context, user common.Address) (*big.Int, error)
	UserWithdrawalsCount(ctx context.Context, user common.Address) (*big.Int, error)

	Deposit(ctx context.Context, value *big.Int) (*types.Transaction, error)
	Withdraw(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	OwnerWithdrawFromBank(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	TransferOwnership(ctx context.Context, newOwner common.Address) (*types.Transaction, error)

	RevertReason(ctx context.Context, tx *types.Transaction, from common.Address, receipt *types.Receipt) error
	Events(receipt *types.Receipt) ([]ledger.Event, error)
}

// LedgerFactory binds the contract at address through provider.
type LedgerFactory func(address common.Address, provider wallet.Provider) Ledger

// BindLedger is the LedgerFactory used outside tests.
func BindLedger(address common.Address, provider wallet.Provider) Ledger {
	return ledger.New(address, provider.Backend(), provider)
}

// Journal records confirmed transactions.
type Journal interface {
	Append(r storage.Receipt) error
}
