package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// KipuBankABI is the call surface of the deployed bank contract.
const KipuBankABI = `[
  {"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getBalance","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"summary","stateMutability":"view","inputs":[],"outputs":[
    {"name":"totalBalance","type":"uint256"},
    {"name":"depositCount","type":"uint256"},
    {"name":"withdrawalCount","type":"uint256"},
    {"name":"cap","type":"uint256"},
    {"name":"maxWithdrawal","type":"uint256"}]},
  {"type":"function","name":"totalBankBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"bankCap","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"maxWithdrawalPerTx","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"userDepositsCount","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"userWithdrawalsCount","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownerWithdrawFromBank","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
  {"type":"event","name":"Deposit","anonymous":false,"inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"newBalance","type":"uint256","indexed":false},
    {"name":"depositIndex","type":"uint256","indexed":false}]},
  {"type":"event","name":"Withdrawal","anonymous":false,"inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"newBalance","type":"uint256","indexed":false},
    {"name":"withdrawalIndex","type":"uint256","indexed":false}]},
  {"type":"error","name":"InsufficientBalance","inputs":[{"name":"requested","type":"uint256"},{"name":"available","type":"uint256"}]},
  {"type":"error","name":"ExceedsMaxWithdrawal","inputs":[{"name":"requested","type":"uint256"},{"name":"limit","type":"uint256"}]},
  {"type":"error","name":"ExceedsBankCap","inputs":[{"name":"attempted","type":"uint256"},{"name":"cap","type":"uint256"}]},
  {"type":"error","name":"NotOwner","inputs":[]},
  {"type":"error","name":"OwnableUnauthorizedAccount","inputs":[{"name":"account","type":"address"}]}
]`

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(KipuBankABI))
	if err != nil {
		panic("invalid bank ABI: " + err.Error())
	}
	return parsed
}

// Describe renders call data of a bank transaction for a confirmation prompt.
func Describe(data []byte) string {
	method, err := parsedABI.MethodById(data)
	if err != nil {
		return "unknown call"
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(args) == 0 {
		return method.Name + "()"
	}

	rendered := make([]string, len(args))
	for i, arg := range args {
		rendered[i] = fmt.Sprint(arg)
	}
	return method.Name + "(" + strings.Join(rendered, ", ") + ")"
}
