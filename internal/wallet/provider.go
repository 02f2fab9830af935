// Package wallet supplies the account, network and signing side of the
// client: what a browser wallet extension does for a web page.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/kipubank/kipu-atm/internal/models"
)

// Provider is the wallet/network collaborator of the bank client.
type Provider interface {
	// RequestAccount asks for access to the user's account.
	RequestAccount(ctx context.Context) (common.Address, error)
	// Network reports the chain the provider is connected to.
	Network(ctx context.Context) (models.Network, error)
	// BalanceAt returns the native token balance of account.
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	// TransactOpts returns signing options for the account; signing asks the user.
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
	// WaitConfirmed blocks until tx is mined. There is no client-side deadline.
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	// Backend exposes the node for contract bindings.
	Backend() bind.ContractBackend
}
