// Package ledger contains the RPC binding of the KipuBank contract.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/kipubank/kipu-atm/internal/apperr"
	"github.com/kipubank/kipu-atm/internal/models"
)

// Signer provides transaction options for the connected account. Signing and
// the user's approval happen behind it.
type Signer interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// Reader implements the view methods of the contract.
type Reader struct {
	address common.Address
	caller  bind.ContractCaller
	bound   *bind.BoundContract
}

// Contract implements both view and state-changing methods.
type Contract struct {
	*Reader
	signer Signer
}

// NewReader binds the view methods of the contract at address.
func NewReader(address common.Address, caller bind.ContractCaller) *Reader {
	return &Reader{
		address: address,
		caller:  caller,
		bound:   bind.NewBoundContract(address, parsedABI, caller, nil, nil),
	}
}

// New binds the full contract at address; mutating calls are signed through signer.
func New(address common.Address, backend bind.ContractBackend, signer Signer) *Contract {
	return &Contract{
		Reader: &Reader{
			address: address,
			caller:  backend,
			bound:   bind.NewBoundContract(address, parsedABI, backend, backend, backend),
		},
		signer: signer,
	}
}

// Address returns the contract address.
func (r *Reader) Address() common.Address {
	return r.address
}

func (r *Reader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := r.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, Classify(method, err)
	}
	return out, nil
}

func (r *Reader) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := r.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return bigAt(method, out, 0)
}

// GetBalance returns user's balance held by the bank.
func (r *Reader) GetBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	return r.callBig(ctx, "getBalance", user)
}

// Summary returns the bank-wide totals and limits.
func (r *Reader) Summary(ctx context.Context) (models.BankSummary, error) {
	out, err := r.call(ctx, "summary")
	if err != nil {
		return models.BankSummary{}, err
	}

	values := make([]*big.Int, 5)
	for i := range values {
		if values[i], err = bigAt("summary", out, i); err != nil {
			return models.BankSummary{}, err
		}
	}

	return models.BankSummary{
		TotalBalance:       values[0],
		TotalDeposits:      values[1],
		TotalWithdrawals:   values[2],
		BankCap:            values[3],
		MaxWithdrawalPerTx: values[4],
	}, nil
}

// Owner returns the privileged address.
func (r *Reader) Owner(ctx context.Context) (common.Address, error) {
	out, err := r.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 1 {
		return common.Address{}, apperr.New(apperr.KindRemote, "owner", fmt.Errorf("unexpected output length %d", len(out)))
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, apperr.New(apperr.KindRemote, "owner", fmt.Errorf("unexpected output type %T", out[0]))
	}
	return owner, nil
}

// UserDepositsCount returns how many deposits user made.
func (r *Reader) UserDepositsCount(ctx context.Context, user common.Address) (*big.Int, error) {
	return r.callBig(ctx, "userDepositsCount", user)
}

// UserWithdrawalsCount returns how many withdrawals user made.
func (r *Reader) UserWithdrawalsCount(ctx context.Context, user common.Address) (*big.Int, error) {
	return r.callBig(ctx, "userWithdrawalsCount", user)
}

func bigAt(method string, out []interface{}, i int) (*big.Int, error) {
	if i >= len(out) {
		return nil, apperr.New(apperr.KindRemote, method, fmt.Errorf("missing output %d", i))
	}
	v, ok := out[i].(*big.Int)
	if !ok {
		return nil, apperr.New(apperr.KindRemote, method, fmt.Errorf("unexpected output type %T", out[i]))
	}
	return v, nil
}

func (c *Contract) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*types.Transaction, error) {
	opts, err := c.signer.TransactOpts(ctx)
	if err != nil {
		return nil, Classify(method, err)
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, Classify(method, err)
	}
	return tx, nil
}

// Deposit sends value to the bank, credited to the caller.
func (c *Contract) Deposit(ctx context.Context, value *big.Int) (*types.Transaction, error) {
	return c.transact(ctx, value, "deposit")
}

// Withdraw debits amount from the caller's bank balance.
func (c *Contract) Withdraw(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	return c.transact(ctx, nil, "withdraw", amount)
}

// OwnerWithdrawFromBank drains amount of bank-held funds to the owner.
func (c *Contract) OwnerWithdrawFromBank(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	return c.transact(ctx, nil, "ownerWithdrawFromBank", amount)
}

// TransferOwnership hands the owner role to newOwner.
func (c *Contract) TransferOwnership(ctx context.Context, newOwner common.Address) (*types.Transaction, error) {
	return c.transact(ctx, nil, "transferOwnership", newOwner)
}

// RevertReason replays a transaction that failed on-chain against the state
// before its block to recover why it reverted.
func (c *Contract) RevertReason(ctx context.Context, tx *types.Transaction, from common.Address, receipt *types.Receipt) error {
	op := "transaction"
	if method, err := parsedABI.MethodById(tx.Data()); err == nil {
		op = method.Name
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}

	var block *big.Int
	if receipt != nil && receipt.BlockNumber != nil && receipt.BlockNumber.Sign() > 0 {
		block = new(big.Int).Sub(receipt.BlockNumber, big.NewInt(1))
	}

	if _, err := c.caller.CallContract(ctx, msg, block); err != nil {
		return Classify(op, err)
	}
	return apperr.New(apperr.KindRemote, op, errors.New("transaction reverted"))
}
