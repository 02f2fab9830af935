package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kipubank/kipu-atm/internal/apperr"
	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/ledger"
	"github.com/kipubank/kipu-atm/internal/logger"
	"github.com/kipubank/kipu-atm/internal/models"
	"github.com/kipubank/kipu-atm/internal/storage"
	"github.com/kipubank/kipu-atm/internal/wallet"
)

// Actions, as they appear in logs and in the receipt journal.
const (
	ActionDeposit           = "deposit"
	ActionWithdraw          = "withdraw"
	ActionOwnerWithdraw     = "owner-withdraw"
	ActionTransferOwnership = "transfer-ownership"
)

// Result describes a confirmed transaction.
type Result struct {
	Action  string
	Amount  *big.Int
	Target  common.Address
	Tx      *types.Transaction
	Receipt *types.Receipt
	Events  []ledger.Event

	// Snapshot is the state after the transaction, or the snapshot the
	// action started from when RefreshErr is set. The transaction is
	// committed either way.
	Snapshot   models.Snapshot
	RefreshErr error
}

// BankService connects to the bank and runs its operations.
type BankService struct {
	config     *config.Config
	provider   wallet.Provider
	journal    Journal
	bindLedger LedgerFactory
	inflight   sync.Mutex

	// unavailable is why there is no provider, when one failed to open.
	unavailable error
}

// NewBankService creates the service. provider and journal may be nil.
func NewBankService(cfg *config.Config, provider wallet.Provider, journal Journal) *BankService {
	return &BankService{
		config:     cfg,
		provider:   provider,
		journal:    journal,
		bindLedger: BindLedger,
	}
}

// SetUnavailable records why the wallet could not be opened. Connect
// reports it instead of a bare missing provider.
func (s *BankService) SetUnavailable(err error) {
	s.unavailable = err
}

// Connect requests the account, checks the network and loads the first
// snapshot. No session is returned unless every step succeeds.
func (s *BankService) Connect(ctx context.Context) (Session, models.Snapshot, error) {
	const op = "connect"

	if s.provider == nil {
		reason := s.unavailable
		if reason == nil {
			reason = errors.New("no wallet available")
		}
		return Session{}, models.Snapshot{}, apperr.New(apperr.KindNoProvider, op, reason)
	}

	account, err := s.provider.RequestAccount(ctx)
	if err != nil {
		return Session{}, models.Snapshot{}, apperr.New(apperr.KindRemote, op, err)
	}

	network, err := s.provider.Network(ctx)
	if err != nil {
		return Session{}, models.Snapshot{}, apperr.New(apperr.KindRemote, op, err)
	}

	if network.ChainID != s.config.ChainID {
		return Session{}, models.Snapshot{}, apperr.New(apperr.KindWrongNetwork, op,
			fmt.Errorf("connected to %s (chain %d), need %s (chain %d)",
				network.Name, network.ChainID, wallet.NetworkName(s.config.ChainID), s.config.ChainID))
	}

	contract := s.config.Contract()
	if contract == (common.Address{}) {
		return Session{}, models.Snapshot{}, apperr.New(apperr.KindMissingConfiguration, op,
			errors.New("contract address not configured"))
	}

	session := Session{
		ID:        uuid.NewString(),
		Account:   account,
		Network:   network,
		Connected: true,
		ledger:    s.bindLedger(contract, s.provider),
	}

	snapshot, err := s.Refresh(ctx, session)
	if err != nil {
		return Session{}, models.Snapshot{}, err
	}

	logger.Info("Connected %s on %s, session %s", account.Hex(), network.Name, session.ID)
	return session, snapshot, nil
}

// Refresh reads every ledger value the client shows, concurrently. The first
// failing read cancels the others and nothing is returned.
//
// The reads are not pinned to one block, so a snapshot can mix ledger states
// when another party transacts mid-refresh. Shortfall surfaces the visible
// case of this rather than hiding it.
func (s *BankService) Refresh(ctx context.Context, session Session) (models.Snapshot, error) {
	const op = "refresh"

	if !session.Connected || session.ledger == nil {
		return models.Snapshot{}, apperr.New(apperr.KindSessionInvalidated, op, errors.New("not connected"))
	}

	var (
		walletBalance *big.Int
		userBalance   *big.Int
		summary       models.BankSummary
		owner         common.Address
		deposits      *big.Int
		withdrawals   *big.Int
	)

	bank := session.ledger
	account := session.Account

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.provider.BalanceAt(gctx, account)
		if err != nil {
			return fmt.Errorf("wallet balance: %w", err)
		}
		walletBalance = v
		return nil
	})
	g.Go(func() error {
		v, err := bank.GetBalance(gctx, account)
		if err != nil {
			return fmt.Errorf("bank balance: %w", err)
		}
		userBalance = v
		return nil
	})
	g.Go(func() error {
		v, err := bank.Summary(gctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		summary = v
		return nil
	})
	g.Go(func() error {
		v, err := bank.Owner(gctx)
		if err != nil {
			return fmt.Errorf("owner: %w", err)
		}
		owner = v
		return nil
	})
	g.Go(func() error {
		d, err := bank.UserDepositsCount(gctx, account)
		if err != nil {
			return fmt.Errorf("deposit count: %w", err)
		}
		w, err := bank.UserWithdrawalsCount(gctx, account)
		if err != nil {
			return fmt.Errorf("withdrawal count: %w", err)
		}
		deposits, withdrawals = d, w
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Warn("Refresh failed for session %s: %v", session.ID, err)
		return models.Snapshot{}, apperr.New(apperr.KindRemote, op, err)
	}

	snapshot := models.Snapshot{
		UserBalance:        userBalance,
		WalletBalance:      walletBalance,
		TotalBankBalance:   summary.TotalBalance,
		TotalDeposits:      toUint64(summary.TotalDeposits),
		TotalWithdrawals:   toUint64(summary.TotalWithdrawals),
		BankCap:            summary.BankCap,
		MaxWithdrawalPerTx: summary.MaxWithdrawalPerTx,
		Owner:              owner,
		IsOwner:            owner == account,
		UserDeposits:       toUint64(deposits),
		UserWithdrawals:    toUint64(withdrawals),
		RefreshedAt:        time.Now(),
	}

	if shortfall := snapshot.Shortfall(); shortfall.Sign() > 0 {
		logger.Warn("Bank holds %s ETH less than the balance of %s", models.FormatEther(shortfall), account.Hex())
	}

	logger.Debug("Refreshed session %s", session.ID)
	return snapshot, nil
}

// VerifySession checks that the wallet still uses the session's account and chain.
func (s *BankService) VerifySession(ctx context.Context, session Session) error {
	const op = "verify"

	if !session.Connected || s.provider == nil {
		return apperr.New(apperr.KindSessionInvalidated, op, errors.New("not connected"))
	}

	account, err := s.provider.RequestAccount(ctx)
	if err != nil {
		return apperr.New(apperr.KindRemote, op, err)
	}
	if account != session.Account {
		return apperr.New(apperr.KindSessionInvalidated, op,
			fmt.Errorf("account changed from %s to %s", session.Account.Hex(), account.Hex()))
	}

	network, err := s.provider.Network(ctx)
	if err != nil {
		return apperr.New(apperr.KindRemote, op, err)
	}
	if network.ChainID != session.Network.ChainID {
		return apperr.New(apperr.KindSessionInvalidated, op,
			fmt.Errorf("chain changed from %d to %d", session.Network.ChainID, network.ChainID))
	}

	return nil
}

// Deposit sends the amount in input from the wallet to the bank.
func (s *BankService) Deposit(ctx context.Context, session Session, snapshot models.Snapshot, input string) (Result, error) {
	return s.execute(ctx, session, snapshot, ActionDeposit, func() (Result, error) {
		amount, err := models.ValidateDeposit(snapshot, input)
		return Result{Amount: amount}, err
	}, func(ctx context.Context, r Result) (*types.Transaction, error) {
		return session.ledger.Deposit(ctx, r.Amount)
	})
}

// Withdraw moves the amount in input from the bank back to the wallet.
func (s *BankService) Withdraw(ctx context.Context, session Session, snapshot models.Snapshot, input string) (Result, error) {
	return s.execute(ctx, session, snapshot, ActionWithdraw, func() (Result, error) {
		amount, err := models.ValidateWithdraw(snapshot, input)
		return Result{Amount: amount}, err
	}, func(ctx context.Context, r Result) (*types.Transaction, error) {
		return session.ledger.Withdraw(ctx, r.Amount)
	})
}

// OwnerWithdraw drains bank funds to the owner. Ownership is left to the
// contract to enforce.
func (s *BankService) OwnerWithdraw(ctx context.Context, session Session, snapshot models.Snapshot, input string) (Result, error) {
	return s.execute(ctx, session, snapshot, ActionOwnerWithdraw, func() (Result, error) {
		amount, err := models.ValidateOwnerWithdraw(snapshot, input)
		return Result{Amount: amount}, err
	}, func(ctx context.Context, r Result) (*types.Transaction, error) {
		return session.ledger.OwnerWithdrawFromBank(ctx, r.Amount)
	})
}

// TransferOwnership hands the owner role to the address in input.
func (s *BankService) TransferOwnership(ctx context.Context, session Session, snapshot models.Snapshot, input string) (Result, error) {
	return s.execute(ctx, session, snapshot, ActionTransferOwnership, func() (Result, error) {
		target, err := models.ValidateNewOwner(session.Account, input)
		return Result{Target: target}, err
	}, func(ctx context.Context, r Result) (*types.Transaction, error) {
		return session.ledger.TransferOwnership(ctx, r.Target)
	})
}

func (s *BankService) execute(
	ctx context.Context,
	session Session,
	snapshot models.Snapshot,
	action string,
	validate func() (Result, error),
	submit func(ctx context.Context, r Result) (*types.Transaction, error),
) (Result, error) {
	if !s.inflight.TryLock() {
		return Result{}, apperr.New(apperr.KindBusy, action, apperr.ErrTransactionInProgress)
	}
	defer s.inflight.Unlock()

	result, err := validate()
	if err != nil {
		return Result{}, err
	}
	result.Action = action
	result.Snapshot = snapshot

	if err := s.VerifySession(ctx, session); err != nil {
		return Result{}, err
	}

	tx, err := submit(ctx, result)
	if err != nil {
		logger.Warn("%s rejected for session %s: %v", action, session.ID, err)
		return Result{}, apperr.New(apperr.KindRemote, action, err)
	}
	result.Tx = tx
	logger.Tx(session.ID, tx.Hash().Hex(), "%s submitted: %s", action, ledger.Describe(tx.Data()))

	receipt, err := s.provider.WaitConfirmed(ctx, tx)
	if err != nil {
		return result, apperr.New(apperr.KindRemote, action, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err))
	}
	result.Receipt = receipt

	if receipt.Status != types.ReceiptStatusSuccessful {
		err := session.ledger.RevertReason(ctx, tx, session.Account, receipt)
		logger.Tx(session.ID, tx.Hash().Hex(), "%s reverted in block %v: %v", action, receipt.BlockNumber, err)
		return result, apperr.New(apperr.KindRemote, action, err)
	}
	logger.Tx(session.ID, tx.Hash().Hex(), "%s confirmed in block %v", action, receipt.BlockNumber)

	events, err := session.ledger.Events(receipt)
	if err != nil {
		logger.Warn("Failed to decode events of %s: %v", tx.Hash().Hex(), err)
	}
	result.Events = events
	for _, e := range events {
		logger.Tx(session.ID, tx.Hash().Hex(), "%s #%v: %s ETH, balance now %s ETH",
			e.Name, e.Index, models.FormatEther(e.Amount), models.FormatEther(e.NewBalance))
	}

	s.record(session, result)

	refreshed, err := s.Refresh(ctx, session)
	if err != nil {
		result.RefreshErr = err
		return result, nil
	}
	result.Snapshot = refreshed

	return result, nil
}

func (s *BankService) record(session Session, result Result) {
	if s.journal == nil {
		return
	}

	entry := storage.Receipt{
		Session: session.ID,
		Action:  result.Action,
		Account: session.Account.Hex(),
		ChainID: session.Network.ChainID,
		TxHash:  result.Tx.Hash().Hex(),
	}
	if result.Receipt.BlockNumber != nil {
		entry.Block = result.Receipt.BlockNumber.Uint64()
	}
	if result.Amount != nil {
		entry.Amount = result.Amount.String()
	}
	if result.Target != (common.Address{}) {
		entry.Target = result.Target.Hex()
	}
	for _, e := range result.Events {
		entry.Events = append(entry.Events, storage.EventRecord{
			Name:       e.Name,
			User:       e.User.Hex(),
			Amount:     bigString(e.Amount),
			NewBalance: bigString(e.NewBalance),
			Index:      bigString(e.Index),
		})
	}

	if err := s.journal.Append(entry); err != nil {
		logger.Warn("Failed to record %s in journal: %v", entry.TxHash, err)
	}
}

func toUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
