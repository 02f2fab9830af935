package wallet

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kipubank/kipu-atm/internal/ledger"
	"github.com/kipubank/kipu-atm/internal/models"
)

// Prompt asks on out and reads the answer from in. Only "y" or "yes" approves.
func Prompt(in io.Reader, out io.Writer) Frontend {
	reader := bufio.NewReader(in)
	return FrontendFunc(func(req Request) bool {
		fmt.Fprintf(out, "Sign %s to %s with %s ETH (gas %d, nonce %d)? [y/N] ",
			ledger.Describe(req.Data), req.To.Hex(), models.FormatEther(req.Value), req.Gas, req.Nonce)

		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	})
}
