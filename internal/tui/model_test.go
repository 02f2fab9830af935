package tui

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipubank/kipu-atm/internal/apperr"
	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/models"
	"github.com/kipubank/kipu-atm/internal/services"
	"github.com/kipubank/kipu-atm/internal/wallet"
)

var account = common.HexToAddress("0x1111111111111111111111111111111111111111")

type fakeService struct {
	inputs    []string
	txErr     error
	verifyErr  error
	refreshErr error
	snapshot   models.Snapshot
}

func (f *fakeService) Connect(context.Context) (services.Session, models.Snapshot, error) {
	return services.Session{ID: "s1", Account: account, Connected: true}, f.snapshot, nil
}

func (f *fakeService) Refresh(context.Context, services.Session) (models.Snapshot, error) {
	if f.refreshErr != nil {
		return models.Snapshot{}, f.refreshErr
	}
	return f.snapshot, nil
}

func (f *fakeService) VerifySession(context.Context, services.Session) error {
	return f.verifyErr
}

func (f *fakeService) transact(action, input string) (services.Result, error) {
	f.inputs = append(f.inputs, action+":"+input)
	if f.txErr != nil {
		return services.Result{}, f.txErr
	}
	amount, _ := models.ParseAmount(input)
	return services.Result{
		Action:   action,
		Amount:   amount,
		Tx:       types.NewTx(&types.LegacyTx{Nonce: uint64(len(f.inputs))}),
		Snapshot: f.snapshot,
	}, nil
}

func (f *fakeService) Deposit(_ context.Context, _ services.Session, _ models.Snapshot, input string) (services.Result, error) {
	return f.transact(services.ActionDeposit, input)
}

func (f *fakeService) Withdraw(_ context.Context, _ services.Session, _ models.Snapshot, input string) (services.Result, error) {
	return f.transact(services.ActionWithdraw, input)
}

func (f *fakeService) OwnerWithdraw(_ context.Context, _ services.Session, _ models.Snapshot, input string) (services.Result, error) {
	return f.transact(services.ActionOwnerWithdraw, input)
}

func (f *fakeService) TransferOwnership(_ context.Context, _ services.Session, _ models.Snapshot, input string) (services.Result, error) {
	return f.transact(services.ActionTransferOwnership, input)
}

func loaded(isOwner bool) models.Snapshot {
	return models.Snapshot{
		UserBalance:      big.NewInt(2e18),
		WalletBalance:    big.NewInt(3e18),
		TotalBankBalance: big.NewInt(1e18),
		IsOwner:          isOwner,
		RefreshedAt:      time.Now(),
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func connectedModel(t *testing.T, service *fakeService) Model {
	t.Helper()
	cfg := config.NewConfig()
	cfg.MessageDelay = 10 * time.Millisecond

	m := NewModel(context.Background(), service, cfg)
	m, cmd := update(t, m, key("c"))
	require.True(t, m.busy)
	require.NotNil(t, cmd)

	m, _ = update(t, m, m.connectCmd()())
	require.Equal(t, ScreenMain, m.screen)
	require.False(t, m.busy)
	return m
}

func TestConnectMovesToMain(t *testing.T) {
	m := connectedModel(t, &fakeService{snapshot: loaded(false)})
	assert.True(t, m.session.Connected)
	assert.Contains(t, m.View(), account.Hex())
}

func TestConnectFailureStaysOnWelcome(t *testing.T) {
	m := NewModel(context.Background(), &fakeService{}, config.NewConfig())
	m, _ = update(t, m, key("c"))

	err := apperr.New(apperr.KindWrongNetwork, "connect", errors.New("chain 1"))
	m, _ = update(t, m, connectedMsg{err: err})
	assert.Equal(t, ScreenWelcome, m.screen)
	assert.False(t, m.busy)
	assert.Equal(t, apperr.Message(err, "en"), m.errText)
}

func TestDepositFlow(t *testing.T) {
	service := &fakeService{snapshot: loaded(false)}
	m := connectedModel(t, service)

	m, _ = update(t, m, key("d"))
	require.Equal(t, ScreenDeposit, m.screen)

	m, _ = update(t, m, key("0.5"))
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// navigation is ignored while processing
	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ScreenDeposit, m.screen)

	m, cmd = update(t, m, m.transactCmd(services.ActionDeposit, m.input.Value())())
	assert.Equal(t, []string{"deposit:0.5"}, service.inputs)
	assert.False(t, m.busy)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, "Deposited 0.5000 ETH", m.notice)
	assert.NotEmpty(t, m.lastTx)
	require.NotNil(t, cmd)

	m, _ = update(t, m, dismissMsg{seq: m.seq})
	assert.Equal(t, ScreenMain, m.screen)
	assert.Empty(t, m.notice)
}

func TestFailedTransactionKeepsForm(t *testing.T) {
	service := &fakeService{
		snapshot: loaded(false),
		txErr:    apperr.Validation("withdraw", apperr.ErrExceedsUserBalance),
	}
	m := connectedModel(t, service)

	m, _ = update(t, m, key("w"))
	m, _ = update(t, m, key("5"))
	m, _ = update(t, m, key("enter"))
	m, _ = update(t, m, m.transactCmd(services.ActionWithdraw, "5")())

	assert.Equal(t, ScreenWithdraw, m.screen)
	assert.Equal(t, "5", m.input.Value())
	assert.Equal(t, apperr.Message(service.txErr, "en"), m.errText)
}

func TestStaleDismissIgnored(t *testing.T) {
	m := connectedModel(t, &fakeService{snapshot: loaded(false)})

	m, _ = update(t, m, key("d"))
	stale := m.seq
	m, _ = update(t, m, key("esc"))
	m, _ = update(t, m, key("w"))

	m, _ = update(t, m, dismissMsg{seq: stale})
	assert.Equal(t, ScreenWithdraw, m.screen)
}

func TestOwnerScreenRequiresOwner(t *testing.T) {
	m := connectedModel(t, &fakeService{snapshot: loaded(false)})
	m, _ = update(t, m, key("o"))
	assert.Equal(t, ScreenMain, m.screen)
	assert.NotEmpty(t, m.errText)
	assert.NotContains(t, m.help(), "owner")

	m = connectedModel(t, &fakeService{snapshot: loaded(true)})
	m, _ = update(t, m, key("o"))
	assert.Equal(t, ScreenOwner, m.screen)
	assert.Equal(t, services.ActionOwnerWithdraw, m.action())

	m, _ = update(t, m, key("tab"))
	assert.Equal(t, services.ActionTransferOwnership, m.action())
}

func TestSessionInvalidationResets(t *testing.T) {
	service := &fakeService{snapshot: loaded(false)}
	m := connectedModel(t, service)

	service.verifyErr = apperr.New(apperr.KindSessionInvalidated, "verify", errors.New("account changed"))
	m, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)

	m, _ = update(t, m, m.refreshCmd()())
	assert.Equal(t, ScreenWelcome, m.screen)
	assert.False(t, m.session.Connected)
	assert.False(t, m.snapshot.Loaded())
}

func TestFailedRefreshKeepsSnapshot(t *testing.T) {
	service := &fakeService{snapshot: loaded(false)}
	m := connectedModel(t, service)
	before := m.snapshot

	service.refreshErr = apperr.New(apperr.KindRemote, "refresh", errors.New("summary: dial tcp: timeout"))
	m, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	require.True(t, m.busy)

	m, _ = update(t, m, m.refreshCmd()())
	assert.False(t, m.busy)
	assert.Equal(t, ScreenMain, m.screen)
	assert.True(t, m.session.Connected)
	assert.Equal(t, before, m.snapshot)
	assert.Equal(t, apperr.Message(service.refreshErr, "en"), m.errText)
	assert.Contains(t, m.errText, "dial tcp: timeout")
}

func TestConfirmRequest(t *testing.T) {
	m := connectedModel(t, &fakeService{snapshot: loaded(false)})

	reply := make(chan bool, 1)
	m, _ = update(t, m, ConfirmRequest{Request: wallet.Request{Value: big.NewInt(1e18)}, Reply: reply})
	assert.True(t, strings.Contains(m.View(), "Confirm transaction"))

	m, _ = update(t, m, key("d"))
	assert.Equal(t, ScreenMain, m.screen)

	m, _ = update(t, m, key("y"))
	assert.True(t, <-reply)
	assert.Nil(t, m.confirm)

	m, _ = update(t, m, ConfirmRequest{Reply: reply})
	_, _ = update(t, m, key("n"))
	assert.False(t, <-reply)
}

func TestSummaryView(t *testing.T) {
	snap := loaded(false)
	snap.BankCap = big.NewInt(4e18)
	m := connectedModel(t, &fakeService{snapshot: snap})

	m, _ = update(t, m, key("s"))
	require.Equal(t, ScreenSummary, m.screen)
	assert.Contains(t, m.View(), "25.00%")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ScreenMain, m.screen)
}

func TestShortfallWarning(t *testing.T) {
	m := connectedModel(t, &fakeService{snapshot: loaded(false)})
	assert.Contains(t, m.View(), "1.0000 ETH less than your balance")
}
