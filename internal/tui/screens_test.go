package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	connected := Guard{Connected: true}
	owner := Guard{Connected: true, IsOwner: true}

	tests := []struct {
		name  string
		from  Screen
		to    Screen
		guard Guard
		want  Screen
		err   error
	}{
		{"connect", ScreenWelcome, ScreenMain, connected, ScreenMain, nil},
		{"connect without session", ScreenWelcome, ScreenMain, Guard{}, ScreenWelcome, ErrNotConnected},
		{"skip main", ScreenWelcome, ScreenDeposit, connected, ScreenWelcome, ErrInvalidTransition},
		{"deposit", ScreenMain, ScreenDeposit, connected, ScreenDeposit, nil},
		{"withdraw", ScreenMain, ScreenWithdraw, connected, ScreenWithdraw, nil},
		{"summary", ScreenMain, ScreenSummary, connected, ScreenSummary, nil},
		{"owner", ScreenMain, ScreenOwner, owner, ScreenOwner, nil},
		{"owner as user", ScreenMain, ScreenOwner, connected, ScreenMain, ErrNotOwner},
		{"back", ScreenDeposit, ScreenMain, connected, ScreenMain, nil},
		{"sideways", ScreenDeposit, ScreenWithdraw, connected, ScreenDeposit, ErrInvalidTransition},
		{"main to welcome", ScreenMain, ScreenWelcome, connected, ScreenMain, ErrInvalidTransition},
		{"busy", ScreenWithdraw, ScreenMain, Guard{Connected: true, Busy: true}, ScreenWithdraw, ErrBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.to, tt.guard)
			assert.Equal(t, tt.want, got)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
