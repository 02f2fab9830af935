package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/logger"
	"github.com/kipubank/kipu-atm/internal/wallet"
)

// App runs the TUI program and bridges wallet confirmations into it.
type App struct {
	config  *config.Config
	program *tea.Program
	mu      sync.Mutex
	done    chan struct{}
}

func NewApp(cfg *config.Config) *App {
	return &App{
		config: cfg,
		done:   make(chan struct{}),
	}
}

// Frontend returns a wallet frontend that asks for confirmation on screen.
// Requests made while the program is not running are rejected.
func (a *App) Frontend() wallet.Frontend {
	return wallet.FrontendFunc(func(req wallet.Request) bool {
		a.mu.Lock()
		program := a.program
		a.mu.Unlock()

		if program == nil {
			logger.Warn("Signing request while the TUI is not running, rejecting")
			return false
		}

		reply := make(chan bool, 1)
		program.Send(ConfirmRequest{Request: req, Reply: reply})

		select {
		case approved := <-reply:
			return approved
		case <-a.done:
			return false
		}
	})
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context, service Service) error {
	model := NewModel(ctx, service, a.config)

	a.mu.Lock()
	a.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	program := a.program
	a.mu.Unlock()

	defer close(a.done)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.program != nil {
		a.program.Quit()
	}
}
