package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Request describes a transaction waiting for the user's approval.
type Request struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Gas   uint64
	Data  []byte
	Nonce uint64
	Chain uint64
}

// Frontend is asked whenever a transaction needs to be signed. Returning
// false rejects the transaction; nothing is sent to the network.
type Frontend interface {
	ConfirmTransaction(req Request) bool
}

// FrontendFunc adapts a function to Frontend.
type FrontendFunc func(req Request) bool

func (f FrontendFunc) ConfirmTransaction(req Request) bool { return f(req) }

// AutoApprove signs every transaction without asking.
var AutoApprove Frontend = FrontendFunc(func(Request) bool { return true })
