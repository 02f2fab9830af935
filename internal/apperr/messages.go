package apperr

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
)

var supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(supported)

type catalog struct {
	kinds   map[Kind]string
	reasons map[error]string
}

var catalogs = []catalog{
	{
		kinds: map[Kind]string{
			KindNoProvider:           "No wallet provider available. Configure an RPC endpoint and a signing key",
			KindWrongNetwork:         "Please switch to the Sepolia test network",
			KindMissingConfiguration: "The bank contract address is not configured (KIPU_CONTRACT_ADDRESS)",
			KindUserRejected:         "Transaction cancelled by the user",
			KindInsufficientFunds:    "Insufficient funds in the wallet for this transaction",
			KindInsufficientBalance:  "Insufficient balance in the bank",
			KindExceedsMaxWithdrawal: "Exceeds the maximum allowed per withdrawal",
			KindExceedsBankCap:       "The deposit would exceed the bank capacity",
			KindNotOwner:             "Only the bank owner can perform this action",
			KindRemote:               "Network error",
			KindValidation:           "Invalid request",
			KindBusy:                 "Please wait for the current transaction to finish",
			KindSessionInvalidated:   "The wallet account or network changed. Please reconnect",
		},
		reasons: map[error]string{
			ErrInvalidAmount:         "Enter a valid amount",
			ErrTooManyDecimals:       "The amount supports at most 18 decimals",
			ErrExceedsWalletBalance:  "Insufficient balance in the wallet",
			ErrExceedsBankCapacity:   "The bank does not have enough remaining capacity",
			ErrExceedsUserBalance:    "Insufficient balance in the bank",
			ErrExceedsWithdrawLimit:  "Exceeds the maximum allowed per withdrawal",
			ErrNoFundsAvailable:      "No funds available in the bank right now",
			ErrPartialFunds:          "The bank only holds part of your balance. Withdraw at most the available funds",
			ErrExceedsBankBalance:    "Amount exceeds the funds held by the bank",
			ErrInvalidAddress:        "Enter a valid address",
			ErrSameAddress:           "The new owner must be a different address",
			ErrSnapshotNotLoaded:     "Ledger data is not loaded yet. Refresh first",
			ErrTransactionInProgress: "Please wait for the current transaction to finish",
		},
	},
	{
		kinds: map[Kind]string{
			KindNoProvider:           "No hay proveedor de wallet. Configure un endpoint RPC y una clave de firma",
			KindWrongNetwork:         "Por favor cambie a la red Sepolia Testnet",
			KindMissingConfiguration: "Debe configurar la dirección del contrato (KIPU_CONTRACT_ADDRESS)",
			KindUserRejected:         "Transacción cancelada por el usuario",
			KindInsufficientFunds:    "Fondos insuficientes para la transacción",
			KindInsufficientBalance:  "Saldo insuficiente en el contrato",
			KindExceedsMaxWithdrawal: "Excede el máximo permitido por transacción",
			KindExceedsBankCap:       "El depósito excede la capacidad del banco",
			KindNotOwner:             "Solo el dueño del banco puede realizar esta acción",
			KindRemote:               "Error de red",
			KindValidation:           "Solicitud inválida",
			KindBusy:                 "Espere a que termine la transacción en curso",
			KindSessionInvalidated:   "La cuenta o la red de la wallet cambió. Vuelva a conectar",
		},
		reasons: map[error]string{
			ErrInvalidAmount:         "Ingrese un monto válido",
			ErrTooManyDecimals:       "El monto admite como máximo 18 decimales",
			ErrExceedsWalletBalance:  "Saldo insuficiente en la wallet",
			ErrExceedsBankCapacity:   "El banco no tiene capacidad suficiente",
			ErrExceedsUserBalance:    "Saldo insuficiente en el contrato",
			ErrExceedsWithdrawLimit:  "Excede el máximo permitido por transacción",
			ErrNoFundsAvailable:      "No hay fondos disponibles en el banco",
			ErrPartialFunds:          "El banco solo tiene parte de su saldo. Retire como máximo los fondos disponibles",
			ErrExceedsBankBalance:    "El monto excede los fondos del banco",
			ErrInvalidAddress:        "Ingrese una dirección válida",
			ErrSameAddress:           "El nuevo dueño debe ser una dirección distinta",
			ErrSnapshotNotLoaded:     "Los datos aún no se cargaron. Actualice primero",
			ErrTransactionInProgress: "Espere a que termine la transacción en curso",
		},
	},
}

func catalogFor(lang string) catalog {
	// POSIX locales look like es_AR.UTF-8
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(lang, "_", "-")

	_, index := language.MatchStrings(matcher, lang)
	if index < 0 || index >= len(catalogs) {
		return catalogs[0]
	}
	return catalogs[index]
}

// Message renders err for the user in the language closest to lang.
// Validation failures use their specific reason. Remote and provider errors
// append the underlying error text so nothing is hidden.
func Message(err error, lang string) string {
	if err == nil {
		return ""
	}
	c := catalogFor(lang)

	for reason, text := range c.reasons {
		if errors.Is(err, reason) {
			return text
		}
	}

	kind := KindOf(err)
	text, ok := c.kinds[kind]
	if !ok {
		return err.Error()
	}

	switch kind {
	case KindRemote, KindValidation, KindNoProvider:
		return text + ": " + rootCause(err).Error()
	}
	return text
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
