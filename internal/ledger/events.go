package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event is a Deposit or Withdrawal emitted by the contract.
type Event struct {
	Name       string
	User       common.Address
	Amount     *big.Int
	NewBalance *big.Int
	Index      *big.Int
	TxHash     common.Hash
}

type depositEvent struct {
	User         common.Address
	Amount       *big.Int
	NewBalance   *big.Int
	DepositIndex *big.Int
}

type withdrawalEvent struct {
	User            common.Address
	Amount          *big.Int
	NewBalance      *big.Int
	WithdrawalIndex *big.Int
}

// Events decodes the bank events in receipt. Logs of other contracts and
// other event types are skipped.
func (r *Reader) Events(receipt *types.Receipt) ([]Event, error) {
	if receipt == nil {
		return nil, nil
	}

	depositID := parsedABI.Events["Deposit"].ID
	withdrawalID := parsedABI.Events["Withdrawal"].ID

	var events []Event
	for _, log := range receipt.Logs {
		if log == nil || log.Address != r.address || len(log.Topics) == 0 {
			continue
		}

		switch log.Topics[0] {
		case depositID:
			var e depositEvent
			if err := r.bound.UnpackLog(&e, "Deposit", *log); err != nil {
				return nil, fmt.Errorf("failed to decode Deposit event: %w", err)
			}
			events = append(events, Event{
				Name: "Deposit", User: e.User, Amount: e.Amount,
				NewBalance: e.NewBalance, Index: e.DepositIndex, TxHash: log.TxHash,
			})
		case withdrawalID:
			var e withdrawalEvent
			if err := r.bound.UnpackLog(&e, "Withdrawal", *log); err != nil {
				return nil, fmt.Errorf("failed to decode Withdrawal event: %w", err)
			}
			events = append(events, Event{
				Name: "Withdrawal", User: e.User, Amount: e.Amount,
				NewBalance: e.NewBalance, Index: e.WithdrawalIndex, TxHash: log.TxHash,
			})
		}
	}

	return events, nil
}
