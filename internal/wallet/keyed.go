package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/kipubank/kipu-atm/internal/apperr"
	"github.com/kipubank/kipu-atm/internal/async"
	"github.com/kipubank/kipu-atm/internal/client"
	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/logger"
	"github.com/kipubank/kipu-atm/internal/models"
)

// ErrUserRejected is returned by the signer when the frontend declines.
var ErrUserRejected = errors.New("user rejected transaction")

// Backend is the node API a Keyed wallet needs.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Keyed is a Provider backed by a local private key and a JSON-RPC node.
type Keyed struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	account  common.Address
	frontend Frontend
	watcher  *async.ReceiptWatcher
	closer   func()
}

// NewKeyed builds a wallet from an already loaded key.
func NewKeyed(backend Backend, key *ecdsa.PrivateKey, frontend Frontend, watcher *async.ReceiptWatcher) *Keyed {
	if frontend == nil {
		frontend = AutoApprove
	}
	return &Keyed{
		backend:  backend,
		key:      key,
		account:  crypto.PubkeyToAddress(key.PublicKey),
		frontend: frontend,
		watcher:  watcher,
	}
}

// Open dials the configured node and loads the configured key. Without an
// RPC endpoint or a key there is no wallet, reported as KindNoProvider.
func Open(ctx context.Context, cfg *config.Config, frontend Frontend) (*Keyed, error) {
	const op = "wallet"

	if cfg.RPCURL == "" {
		return nil, apperr.New(apperr.KindNoProvider, op, errors.New("no rpc endpoint configured"))
	}

	key, err := LoadKey(cfg)
	if err != nil {
		return nil, apperr.New(apperr.KindNoProvider, op, err)
	}

	rpc, err := client.Dial(ctx, cfg)
	if err != nil {
		return nil, apperr.New(apperr.KindNoProvider, op, err)
	}

	watcher := async.NewReceiptWatcher(rpc, cfg.PollInterval)
	w := NewKeyed(rpc, key, frontend, watcher)
	w.closer = rpc.Close

	logger.Info("Wallet ready for account %s", w.account.Hex())
	return w, nil
}

// LoadKey reads the signing key from a hex private key or an encrypted keystore file.
func LoadKey(cfg *config.Config) (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return key, nil
	}

	if cfg.KeystorePath == "" {
		return nil, errors.New("no signing key configured")
	}

	keyJSON, err := os.ReadFile(cfg.KeystorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}

	unlocked, err := keystore.DecryptKey(keyJSON, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock keystore: %w", err)
	}
	return unlocked.PrivateKey, nil
}

// RequestAccount returns the account of the loaded key.
func (w *Keyed) RequestAccount(context.Context) (common.Address, error) {
	return w.account, nil
}

// Network reports the node's chain.
func (w *Keyed) Network(ctx context.Context) (models.Network, error) {
	chainID, err := w.backend.ChainID(ctx)
	if err != nil {
		return models.Network{}, apperr.New(apperr.KindRemote, "chainId", err)
	}
	return models.Network{Name: NetworkName(chainID.Uint64()), ChainID: chainID.Uint64()}, nil
}

// BalanceAt returns the latest native balance of account.
func (w *Keyed) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := w.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindRemote, "getBalance", err)
	}
	return balance, nil
}

// TransactOpts returns signing options whose signer asks the frontend first.
func (w *Keyed) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	chainID, err := w.backend.ChainID(ctx)
	if err != nil {
		return nil, apperr.New(apperr.KindRemote, "chainId", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		req := Request{
			From:  from,
			Value: tx.Value(),
			Gas:   tx.Gas(),
			Data:  tx.Data(),
			Nonce: tx.Nonce(),
			Chain: chainID.Uint64(),
		}
		if tx.To() != nil {
			req.To = *tx.To()
		}

		if !w.frontend.ConfirmTransaction(req) {
			logger.Info("Transaction to %s rejected by the user", req.To.Hex())
			return nil, apperr.New(apperr.KindUserRejected, "sign", ErrUserRejected)
		}
		return sign(from, tx)
	}

	return opts, nil
}

// WaitConfirmed waits for the receipt of tx.
func (w *Keyed) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := w.watcher.Wait(ctx, tx.Hash())
	if err != nil {
		return nil, apperr.New(apperr.KindRemote, "confirm", err)
	}
	return receipt, nil
}

// Backend exposes the node for contract bindings.
func (w *Keyed) Backend() bind.ContractBackend {
	return w.backend
}

// Close stops confirmation polling and closes the node connection.
func (w *Keyed) Close() {
	w.watcher.Stop()
	if w.closer != nil {
		w.closer()
	}
}
