package ledger

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/kipubank/kipu-atm/internal/apperr"
)

// revertKinds maps contract error names (and reason fragments) to kinds.
// Order matters for substring matching of free-form reasons.
var revertKinds = []struct {
	name string
	kind apperr.Kind
}{
	{"InsufficientBalance", apperr.KindInsufficientBalance},
	{"ExceedsMaxWithdrawal", apperr.KindExceedsMaxWithdrawal},
	{"ExceedsBankCap", apperr.KindExceedsBankCap},
	{"OwnableUnauthorizedAccount", apperr.KindNotOwner},
	{"NotOwner", apperr.KindNotOwner},
	{"caller is not the owner", apperr.KindNotOwner},
}

var errorStringSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// Classify tags a failed remote call with its apperr.Kind. Structured revert
// data is decoded against the contract ABI first; node messages are only
// inspected when no revert data came back.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return apperr.New(tagged.Kind, op, err)
	}

	if kind, ok := kindFromRevertData(err); ok {
		return apperr.New(kind, op, err)
	}

	return apperr.New(kindFromMessage(err.Error()), op, err)
}

func kindFromRevertData(err error) (apperr.Kind, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}

	encoded, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decodeErr := hexutil.Decode(encoded)
	if decodeErr != nil || len(data) < 4 {
		return "", false
	}

	if bytes.Equal(data[:4], errorStringSelector) {
		reason, unpackErr := abi.UnpackRevert(data)
		if unpackErr != nil {
			return "", false
		}
		return kindFromReason(reason)
	}

	for name, abiErr := range parsedABI.Errors {
		if bytes.Equal(abiErr.ID[:4], data[:4]) {
			return kindFromReason(name)
		}
	}

	return apperr.KindRemote, true
}

func kindFromReason(reason string) (apperr.Kind, bool) {
	lower := strings.ToLower(reason)
	for _, candidate := range revertKinds {
		if strings.Contains(lower, strings.ToLower(candidate.name)) {
			return candidate.kind, true
		}
	}
	return "", false
}

func kindFromMessage(message string) apperr.Kind {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "user rejected"), strings.Contains(lower, "user denied"):
		return apperr.KindUserRejected
	case strings.Contains(lower, "insufficient funds"):
		return apperr.KindInsufficientFunds
	}

	if kind, ok := kindFromReason(message); ok {
		return kind
	}
	return apperr.KindRemote
}
