package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kipubank/kipu-atm/internal/apperr"
	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/logger"
	"github.com/kipubank/kipu-atm/internal/models"
	"github.com/kipubank/kipu-atm/internal/services"
	"github.com/kipubank/kipu-atm/internal/wallet"
)

// Service is the bank API the TUI drives.
type Service interface {
	Connect(ctx context.Context) (services.Session, models.Snapshot, error)
	Refresh(ctx context.Context, session services.Session) (models.Snapshot, error)
	VerifySession(ctx context.Context, session services.Session) error
	Deposit(ctx context.Context, session services.Session, snapshot models.Snapshot, input string) (services.Result, error)
	Withdraw(ctx context.Context, session services.Session, snapshot models.Snapshot, input string) (services.Result, error)
	OwnerWithdraw(ctx context.Context, session services.Session, snapshot models.Snapshot, input string) (services.Result, error)
	TransferOwnership(ctx context.Context, session services.Session, snapshot models.Snapshot, input string) (services.Result, error)
}

// ConfirmRequest asks the user to approve a transaction before it is signed.
type ConfirmRequest struct {
	Request wallet.Request
	Reply   chan<- bool
}

type connectedMsg struct {
	session  services.Session
	snapshot models.Snapshot
	err      error
}

type refreshedMsg struct {
	snapshot models.Snapshot
	err      error
}

type txDoneMsg struct {
	action string
	result services.Result
	err    error
}

type dismissMsg struct {
	seq int
}

type ownerForm int

const (
	ownerWithdrawForm ownerForm = iota
	ownerTransferForm
)

const maxLogs = 8

type Model struct {
	ctx     context.Context
	service Service
	config  *config.Config

	screen   Screen
	session  services.Session
	snapshot models.Snapshot

	input     textinput.Model
	ownerForm ownerForm
	spinner   spinner.Model
	busy      bool
	confirm   *ConfirmRequest

	notice  string
	errText string
	lastTx  string
	seq     int
	logs    []string

	width  int
	height int
	quit   bool
}

func NewModel(ctx context.Context, service Service, cfg *config.Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	in := textinput.New()
	in.CharLimit = 42
	in.Width = 44

	return Model{
		ctx:     ctx,
		service: service,
		config:  cfg,
		screen:  ScreenWelcome,
		input:   in,
		spinner: sp,
		logs:    []string{},
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKeyMsg(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case ConfirmRequest:
		m = m.handleConfirmRequest(msg)

	case connectedMsg:
		m = m.handleConnected(msg)

	case refreshedMsg:
		m = m.handleRefreshed(msg)

	case txDoneMsg:
		var cmd tea.Cmd
		m, cmd = m.handleTxDone(msg)
		cmds = append(cmds, cmd)

	case dismissMsg:
		m = m.handleDismiss(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) guard() Guard {
	return Guard{
		Connected: m.session.Connected,
		IsOwner:   m.snapshot.IsOwner,
		Busy:      m.busy,
	}
}

func (m Model) lang() string {
	if m.config == nil {
		return ""
	}
	return m.config.Language
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		if m.confirm != nil {
			m.confirm.Reply <- false
			m.confirm = nil
		}
		m.quit = true
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.handleConfirmKey(key), nil
	}

	// Input is disabled while processing
	if m.busy {
		return m, nil
	}

	switch m.screen {
	case ScreenWelcome:
		switch key {
		case "c", "enter":
			m.busy = true
			m.errText = ""
			return m, m.connectCmd()
		case "q":
			m.quit = true
			return m, tea.Quit
		}

	case ScreenMain:
		switch key {
		case "d":
			return m.navigate(ScreenDeposit)
		case "w":
			return m.navigate(ScreenWithdraw)
		case "s":
			return m.navigate(ScreenSummary)
		case "o":
			return m.navigate(ScreenOwner)
		case "r":
			m.busy = true
			m.errText = ""
			m.notice = ""
			return m, m.refreshCmd()
		case "q":
			m.quit = true
			return m, tea.Quit
		}

	case ScreenSummary:
		switch key {
		case "esc", "enter", "q":
			return m.navigate(ScreenMain)
		}

	default:
		return m.handleFormKey(msg)
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.navigate(ScreenMain)
	case "enter":
		return m.submit()
	case "tab":
		if m.screen == ScreenOwner {
			if m.ownerForm == ownerWithdrawForm {
				m.ownerForm = ownerTransferForm
			} else {
				m.ownerForm = ownerWithdrawForm
			}
			m.input.Reset()
			m.input.Placeholder = m.placeholder()
			m.errText = ""
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(key string) Model {
	switch key {
	case "y", "enter":
		m.confirm.Reply <- true
		m.confirm = nil
		m = m.addLog("Transaction approved")
	case "n", "esc":
		m.confirm.Reply <- false
		m.confirm = nil
		m = m.addLog("Transaction rejected")
	}
	return m
}

func (m Model) navigate(to Screen) (Model, tea.Cmd) {
	next, err := Transition(m.screen, to, m.guard())
	if err != nil {
		m.errText = err.Error()
		return m, nil
	}

	m.screen = next
	m.errText = ""
	m.notice = ""
	m.seq++
	m.input.Reset()

	switch next {
	case ScreenDeposit, ScreenWithdraw, ScreenOwner:
		m.ownerForm = ownerWithdrawForm
		m.input.Placeholder = m.placeholder()
		cmd := m.input.Focus()
		return m, cmd
	default:
		m.input.Blur()
	}

	return m, nil
}

func (m Model) placeholder() string {
	if m.screen == ScreenOwner && m.ownerForm == ownerTransferForm {
		return "0x..."
	}
	return "0.0"
}

func (m Model) action() string {
	switch m.screen {
	case ScreenDeposit:
		return services.ActionDeposit
	case ScreenWithdraw:
		return services.ActionWithdraw
	case ScreenOwner:
		if m.ownerForm == ownerTransferForm {
			return services.ActionTransferOwnership
		}
		return services.ActionOwnerWithdraw
	}
	return ""
}

func (m Model) submit() (Model, tea.Cmd) {
	action := m.action()
	if action == "" {
		return m, nil
	}

	m.busy = true
	m.errText = ""
	m.notice = ""
	m.input.Blur()
	m = m.addLog(fmt.Sprintf("Submitting %s", action))

	return m, m.transactCmd(action, m.input.Value())
}

func (m Model) connectCmd() tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		session, snapshot, err := service.Connect(ctx)
		return connectedMsg{session: session, snapshot: snapshot, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, service, session := m.ctx, m.service, m.session
	return func() tea.Msg {
		if err := service.VerifySession(ctx, session); err != nil {
			return refreshedMsg{err: err}
		}
		snapshot, err := service.Refresh(ctx, session)
		return refreshedMsg{snapshot: snapshot, err: err}
	}
}

func (m Model) transactCmd(action, input string) tea.Cmd {
	ctx, service, session, snapshot := m.ctx, m.service, m.session, m.snapshot
	return func() tea.Msg {
		var (
			result services.Result
			err    error
		)
		switch action {
		case services.ActionDeposit:
			result, err = service.Deposit(ctx, session, snapshot, input)
		case services.ActionWithdraw:
			result, err = service.Withdraw(ctx, session, snapshot, input)
		case services.ActionOwnerWithdraw:
			result, err = service.OwnerWithdraw(ctx, session, snapshot, input)
		case services.ActionTransferOwnership:
			result, err = service.TransferOwnership(ctx, session, snapshot, input)
		}
		return txDoneMsg{action: action, result: result, err: err}
	}
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	return m
}

func (m Model) handleConfirmRequest(msg ConfirmRequest) Model {
	if m.confirm != nil {
		msg.Reply <- false
		return m
	}
	m.confirm = &msg
	return m
}

func (m Model) handleConnected(msg connectedMsg) Model {
	m.busy = false

	if msg.err != nil {
		logger.Warn("Connect failed: %v", msg.err)
		m.errText = apperr.Message(msg.err, m.lang())
		return m
	}

	m.session = msg.session
	m.snapshot = msg.snapshot
	m, _ = m.navigate(ScreenMain)
	return m.addLog(fmt.Sprintf("Connected %s on %s", shortAddress(m.session.Account.Hex()), m.session.Network.Name))
}

func (m Model) handleRefreshed(msg refreshedMsg) Model {
	m.busy = false

	if msg.err != nil {
		if apperr.Is(msg.err, apperr.KindSessionInvalidated) {
			return m.reset(msg.err)
		}
		m.errText = apperr.Message(msg.err, m.lang())
		return m
	}

	m.snapshot = msg.snapshot
	m.notice = "Balances refreshed"
	return m
}

func (m Model) handleTxDone(msg txDoneMsg) (Model, tea.Cmd) {
	m.busy = false

	if msg.result.Tx != nil {
		m.lastTx = msg.result.Tx.Hash().Hex()
	}

	if msg.err != nil {
		if apperr.Is(msg.err, apperr.KindSessionInvalidated) {
			return m.reset(msg.err), nil
		}
		m.errText = apperr.Message(msg.err, m.lang())
		m = m.addLog(fmt.Sprintf("❌ %s failed: %s", msg.action, m.errText))
		cmd := m.input.Focus()
		return m, cmd
	}

	m.snapshot = msg.result.Snapshot
	m.input.Reset()
	m.notice = successText(msg.result)
	m = m.addLog("✅ " + m.notice)

	if msg.result.RefreshErr != nil {
		m.errText = apperr.Message(msg.result.RefreshErr, m.lang())
	}

	m.seq++
	seq := m.seq
	return m, tea.Tick(m.messageDelay(), func(time.Time) tea.Msg {
		return dismissMsg{seq: seq}
	})
}

func (m Model) handleDismiss(msg dismissMsg) Model {
	if msg.seq != m.seq || m.busy {
		return m
	}

	m.notice = ""
	if m.screen != ScreenMain && m.screen != ScreenWelcome {
		m, _ = m.navigate(ScreenMain)
	}
	return m
}

func (m Model) reset(cause error) Model {
	logger.Warn("Session reset: %v", cause)

	m.session = services.Session{}
	m.snapshot = models.Snapshot{}
	m.screen = Reset()
	m.busy = false
	m.notice = ""
	m.seq++
	m.input.Reset()
	m.input.Blur()
	m.errText = apperr.Message(cause, m.lang())
	return m.addLog("Session ended, reconnect to continue")
}

func (m Model) messageDelay() time.Duration {
	if m.config == nil {
		return 3 * time.Second
	}
	return m.config.MessageDelay
}

func (m Model) addLog(message string) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message))
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
	return m
}

func successText(result services.Result) string {
	switch result.Action {
	case services.ActionDeposit:
		return fmt.Sprintf("Deposited %s ETH", models.FormatEther(result.Amount))
	case services.ActionWithdraw:
		return fmt.Sprintf("Withdrew %s ETH", models.FormatEther(result.Amount))
	case services.ActionOwnerWithdraw:
		return fmt.Sprintf("Withdrew %s ETH from the bank", models.FormatEther(result.Amount))
	case services.ActionTransferOwnership:
		return fmt.Sprintf("Ownership transferred to %s", result.Target.Hex())
	}
	return "Transaction confirmed"
}
