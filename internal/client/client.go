package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/logger"
)

// RPCClient handles all JSON-RPC communication with the Ethereum node.
// Calls used by the bank flows are timed and logged; everything else is
// served by the embedded ethclient.
type RPCClient struct {
	*ethclient.Client
	url string
}

// Dial connects to the node configured in cfg.
func Dial(ctx context.Context, cfg *config.Config) (*RPCClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is not configured")
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	start := time.Now()
	c, err := ethclient.DialContext(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}
	logger.Debug("Connected to %s in %v", cfg.RPCURL, time.Since(start))

	return &RPCClient{Client: c, url: cfg.RPCURL}, nil
}

// timed runs one RPC call and logs its duration and failure.
func timed[T any](url, method string, call func() (T, error)) (T, error) {
	start := time.Now()
	logger.Debug("Starting %s request to %s", method, url)

	result, err := call()
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("%s request to %s failed after %v: %v", method, url, elapsed, err)
		return result, err
	}

	logger.Debug("%s request to %s completed in %v", method, url, elapsed)
	return result, nil
}

// ChainID returns the chain identity reported by the node.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	return timed(c.url, "eth_chainId", func() (*big.Int, error) {
		return c.Client.ChainID(ctx)
	})
}

// BalanceAt returns the native token balance of account.
func (c *RPCClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return timed(c.url, "eth_getBalance", func() (*big.Int, error) {
		return c.Client.BalanceAt(ctx, account, blockNumber)
	})
}

// CallContract executes a read-only contract call.
func (c *RPCClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return timed(c.url, "eth_call", func() ([]byte, error) {
		return c.Client.CallContract(ctx, msg, blockNumber)
	})
}

// EstimateGas estimates the gas of a call; reverts surface here first.
func (c *RPCClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return timed(c.url, "eth_estimateGas", func() (uint64, error) {
		return c.Client.EstimateGas(ctx, msg)
	})
}

// SendTransaction submits a signed transaction.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	_, err := timed(c.url, "eth_sendRawTransaction", func() (struct{}, error) {
		return struct{}{}, c.Client.SendTransaction(ctx, tx)
	})
	return err
}

// TransactionReceipt returns the receipt of a mined transaction, or
// ethereum.NotFound while it is pending.
func (c *RPCClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	start := time.Now()
	receipt, err := c.Client.TransactionReceipt(ctx, hash)
	// NotFound is the normal answer while polling, keep it out of the error log
	if err != nil && !errors.Is(err, ethereum.NotFound) {
		logger.Error("eth_getTransactionReceipt request to %s failed after %v: %v", c.url, time.Since(start), err)
	}
	return receipt, err
}
