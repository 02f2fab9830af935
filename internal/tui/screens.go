package tui

import (
	"errors"
	"fmt"
)

// Screen is one view of the client.
type Screen string

const (
	ScreenWelcome  Screen = "welcome"
	ScreenMain     Screen = "main"
	ScreenDeposit  Screen = "deposit"
	ScreenWithdraw Screen = "withdraw"
	ScreenSummary  Screen = "summary"
	ScreenOwner    Screen = "owner"
)

var (
	ErrNotConnected      = errors.New("not connected")
	ErrNotOwner          = errors.New("owner screen requires the owner account")
	ErrBusy              = errors.New("a transaction is in progress")
	ErrInvalidTransition = errors.New("invalid screen transition")
)

// Guard is the state a transition is checked against.
type Guard struct {
	Connected bool
	IsOwner   bool
	Busy      bool
}

// Transition returns the screen after moving from one screen to another.
// Welcome leads only to main, the action screens are reached from main and
// lead back to it. Returning to welcome is Reset, not a transition.
func Transition(from, to Screen, g Guard) (Screen, error) {
	if g.Busy {
		return from, ErrBusy
	}
	if from == to {
		return from, nil
	}

	switch from {
	case ScreenWelcome:
		if to != ScreenMain {
			return from, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
		}
		if !g.Connected {
			return from, ErrNotConnected
		}
		return to, nil

	case ScreenMain:
		switch to {
		case ScreenDeposit, ScreenWithdraw, ScreenSummary:
			return to, nil
		case ScreenOwner:
			if !g.IsOwner {
				return from, ErrNotOwner
			}
			return to, nil
		}

	case ScreenDeposit, ScreenWithdraw, ScreenSummary, ScreenOwner:
		if to == ScreenMain {
			return to, nil
		}
	}

	return from, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

// Reset is where any screen goes when the session is lost.
func Reset() Screen {
	return ScreenWelcome
}
