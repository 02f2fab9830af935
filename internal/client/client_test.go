package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipubank/kipu-atm/internal/config"
)

func TestDialRequiresURL(t *testing.T) {
	cfg := config.NewConfig()

	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc url")
}

func TestTimedPassesThroughResultAndError(t *testing.T) {
	got, err := timed("http://node", "eth_test", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	boom := errors.New("boom")
	_, err = timed("http://node", "eth_test", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
