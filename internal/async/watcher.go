package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/kipubank/kipu-atm/internal/logger"
)

// ErrStopped is delivered to waiters still pending when the watcher stops.
var ErrStopped = errors.New("receipt watcher stopped")

const receiptCallTimeout = 30 * time.Second

// ReceiptFetcher is the part of the node client the watcher needs.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Result is the outcome of waiting for one transaction.
type Result struct {
	Receipt *types.Receipt
	Err     error
}

// ReceiptWatcher polls the node for the receipts of every registered
// transaction on a single ticker. Polling starts with the first registration
// and stops by itself once nothing is pending. There is no deadline: a
// transaction is watched until it is mined, the waiter gives up, or the
// watcher is stopped.
type ReceiptWatcher struct {
	fetcher       ReceiptFetcher
	pending       map[common.Hash][]chan Result
	mu            sync.Mutex
	pollInterval  time.Duration
	stopPolling   chan struct{}
	pollingActive bool
}

func NewReceiptWatcher(fetcher ReceiptFetcher, pollInterval time.Duration) *ReceiptWatcher {
	return &ReceiptWatcher{
		fetcher:      fetcher,
		pending:      make(map[common.Hash][]chan Result),
		pollInterval: pollInterval,
	}
}

// Register starts watching hash. The returned channel receives exactly one Result.
func (w *ReceiptWatcher) Register(hash common.Hash) <-chan Result {
	resultChan := make(chan Result, 1)

	w.mu.Lock()
	w.pending[hash] = append(w.pending[hash], resultChan)

	if !w.pollingActive {
		w.pollingActive = true
		w.stopPolling = make(chan struct{})
		go w.pollReceipts(w.stopPolling)
	}
	w.mu.Unlock()

	logger.Debug("Registered transaction %s for confirmation", hash.Hex())
	return resultChan
}

// Wait blocks until the receipt of hash is available or ctx is done.
func (w *ReceiptWatcher) Wait(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	resultChan := w.Register(hash)

	select {
	case result := <-resultChan:
		return result.Receipt, result.Err
	case <-ctx.Done():
		w.forget(hash, resultChan)
		return nil, fmt.Errorf("stopped waiting for %s: %w", hash.Hex(), ctx.Err())
	}
}

func (w *ReceiptWatcher) forget(hash common.Hash, resultChan <-chan Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waiters := w.pending[hash]
	for i, waiter := range waiters {
		if waiter == resultChan {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(w.pending, hash)
	} else {
		w.pending[hash] = waiters
	}
}

func (w *ReceiptWatcher) pollReceipts(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !w.checkReceipts() {
				return
			}
		}
	}
}

// checkReceipts polls every pending hash once. It returns false when there is
// nothing left to watch, which ends the polling goroutine.
func (w *ReceiptWatcher) checkReceipts() bool {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.pollingActive = false
		w.mu.Unlock()
		return false
	}
	hashes := make([]common.Hash, 0, len(w.pending))
	for hash := range w.pending {
		hashes = append(hashes, hash)
	}
	w.mu.Unlock()

	for _, hash := range hashes {
		ctx, cancel := context.WithTimeout(context.Background(), receiptCallTimeout)
		receipt, err := w.fetcher.TransactionReceipt(ctx, hash)
		cancel()

		if errors.Is(err, ethereum.NotFound) {
			continue
		}
		if err != nil {
			// node hiccups do not end the wait, the next tick retries
			logger.Warn("Failed to fetch receipt of %s: %v", hash.Hex(), err)
			continue
		}

		w.deliver(hash, Result{Receipt: receipt})
	}

	return true
}

func (w *ReceiptWatcher) deliver(hash common.Hash, result Result) {
	w.mu.Lock()
	waiters := w.pending[hash]
	delete(w.pending, hash)
	w.mu.Unlock()

	for _, waiter := range waiters {
		waiter <- result
		close(waiter)
	}

	if result.Receipt != nil {
		logger.Debug("Transaction %s confirmed in block %v", hash.Hex(), result.Receipt.BlockNumber)
	}
}

// Stop ends polling and fails every pending wait with ErrStopped.
func (w *ReceiptWatcher) Stop() {
	w.mu.Lock()
	if w.pollingActive {
		close(w.stopPolling)
		w.pollingActive = false
	}
	pending := w.pending
	w.pending = make(map[common.Hash][]chan Result)
	w.mu.Unlock()

	for _, waiters := range pending {
		for _, waiter := range waiters {
			waiter <- Result{Err: ErrStopped}
			close(waiter)
		}
	}
}
