package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kipubank/kipu-atm/internal/ledger"
	"github.com/kipubank/kipu-atm/internal/models"
)

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Header
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("🏦 KipuBank ATM"))
	s.WriteString("\n\n")

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	if m.session.Connected {
		info := fmt.Sprintf("Account: %s | Network: %s (%d)",
			m.session.Account.Hex(), m.session.Network.Name, m.session.Network.ChainID)
		s.WriteString(infoStyle.Render(info))
		s.WriteString("\n\n")
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	s.WriteString(panelStyle.Render(m.screenView()))
	s.WriteString("\n")

	if m.confirm != nil {
		s.WriteString(m.confirmView())
		s.WriteString("\n")
	}

	s.WriteString(m.statusView())

	// Logs section
	if len(m.logs) > 0 {
		logSectionStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(m.width - 2)

		var logSection strings.Builder
		logSection.WriteString("📝 Recent activity\n")
		for _, log := range m.logs {
			logSection.WriteString(log + "\n")
		}
		s.WriteString(logSectionStyle.Render(logSection.String()))
		s.WriteString("\n")
	}

	// Footer
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	s.WriteString(footerStyle.Render(m.help()))

	return s.String()
}

func (m Model) screenView() string {
	var b strings.Builder
	snap := m.snapshot

	switch m.screen {
	case ScreenWelcome:
		b.WriteString("Welcome to KipuBank.\n\n")
		b.WriteString("Deposit and withdraw ETH from a bank that lives on-chain.\n")
		b.WriteString("Connect your wallet to continue.")

	case ScreenMain:
		b.WriteString("💰 Balances\n")
		b.WriteString(strings.Repeat("─", 40) + "\n")
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Wallet", models.FormatEther(snap.WalletBalance))
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Deposited in bank", models.FormatEther(snap.UserBalance))
		fmt.Fprintf(&b, "%-22s %d\n", "Your deposits", snap.UserDeposits)
		fmt.Fprintf(&b, "%-22s %d\n", "Your withdrawals", snap.UserWithdrawals)
		fmt.Fprintf(&b, "%-22s %s ETH", "Max withdrawal per tx", models.FormatEther(snap.MaxWithdrawalPerTx))
		if snap.IsOwner {
			b.WriteString("\n\n👑 You own this bank")
		}
		if shortfall := snap.Shortfall(); shortfall.Sign() > 0 {
			warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
			b.WriteString("\n\n" + warnStyle.Render(fmt.Sprintf(
				"⚠ The bank holds %s ETH less than your balance", models.FormatEther(shortfall))))
		}

	case ScreenDeposit:
		b.WriteString("📥 Deposit\n")
		b.WriteString(strings.Repeat("─", 40) + "\n")
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Available in wallet", models.FormatEther(snap.WalletBalance))
		fmt.Fprintf(&b, "%-22s %s ETH\n\n", "Bank capacity left", models.FormatEther(snap.RemainingCapacity()))
		b.WriteString("Amount (ETH): " + m.input.View())

	case ScreenWithdraw:
		b.WriteString("📤 Withdraw\n")
		b.WriteString(strings.Repeat("─", 40) + "\n")
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Deposited in bank", models.FormatEther(snap.UserBalance))
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Max per transaction", models.FormatEther(snap.MaxWithdrawalPerTx))
		fmt.Fprintf(&b, "%-22s %s ETH\n\n", "Withdrawable now", models.FormatEther(snap.WithdrawLimit()))
		b.WriteString("Amount (ETH): " + m.input.View())

	case ScreenSummary:
		b.WriteString("📊 Bank summary\n")
		b.WriteString(strings.Repeat("─", 40) + "\n")
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Total in bank", models.FormatEther(snap.TotalBankBalance))
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Bank cap", models.FormatEther(snap.BankCap))
		fmt.Fprintf(&b, "%-22s %s%%\n", "Utilization", snap.Utilization().StringFixed(2))
		fmt.Fprintf(&b, "%-22s %d\n", "Total deposits", snap.TotalDeposits)
		fmt.Fprintf(&b, "%-22s %d\n", "Total withdrawals", snap.TotalWithdrawals)
		fmt.Fprintf(&b, "%-22s %s ETH\n", "Max withdrawal per tx", models.FormatEther(snap.MaxWithdrawalPerTx))
		fmt.Fprintf(&b, "%-22s %s", "Owner", snap.Owner.Hex())
		if m.config != nil {
			if url := m.config.ContractURL(); url != "" {
				fmt.Fprintf(&b, "\n%-22s %s", "Contract", url)
			}
		}

	case ScreenOwner:
		b.WriteString("👑 Owner actions\n")
		b.WriteString(strings.Repeat("─", 40) + "\n")
		fmt.Fprintf(&b, "%-22s %s ETH\n\n", "Total in bank", models.FormatEther(snap.TotalBankBalance))
		if m.ownerForm == ownerTransferForm {
			b.WriteString("Transfer ownership to: " + m.input.View())
		} else {
			b.WriteString("Withdraw from bank (ETH): " + m.input.View())
		}
	}

	return b.String()
}

func (m Model) confirmView() string {
	req := m.confirm.Request

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(0, 1)

	var b strings.Builder
	b.WriteString("✍ Confirm transaction\n")
	fmt.Fprintf(&b, "%-8s %s\n", "Call", ledger.Describe(req.Data))
	fmt.Fprintf(&b, "%-8s %s\n", "To", req.To.Hex())
	fmt.Fprintf(&b, "%-8s %s ETH\n", "Value", models.FormatEther(req.Value))
	fmt.Fprintf(&b, "%-8s %d\n", "Gas", req.Gas)
	b.WriteString("\n[y] approve  [n] reject")

	return boxStyle.Render(b.String())
}

func (m Model) statusView() string {
	var b strings.Builder

	if m.busy {
		b.WriteString(m.spinner.View() + " Processing...\n")
	}
	if m.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✅ "+m.notice) + "\n")
	}
	if m.errText != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("❌ "+m.errText) + "\n")
	}
	if m.lastTx != "" && m.config != nil {
		if url := m.config.TxURL(m.lastTx); url != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("Last transaction: "+url) + "\n")
		}
	}

	return b.String()
}

func (m Model) help() string {
	switch m.screen {
	case ScreenWelcome:
		return "c connect • q quit"
	case ScreenMain:
		keys := "d deposit • w withdraw • s summary • r refresh"
		if m.snapshot.IsOwner {
			keys += " • o owner"
		}
		return keys + " • q quit"
	case ScreenSummary:
		return "esc back"
	case ScreenOwner:
		return "enter submit • tab switch action • esc back"
	}
	return "enter submit • esc back"
}

func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
