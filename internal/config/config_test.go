package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, SepoliaChainID, cfg.ChainID)
	assert.Equal(t, 3*time.Second, cfg.MessageDelay)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KIPU_RPC_URL", "http://localhost:8545")
	t.Setenv("KIPU_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("KIPU_CHAIN_ID", "31337")
	t.Setenv("KIPU_MESSAGE_DELAY_MS", "500")
	t.Setenv("KIPU_POLL_INTERVAL_MS", "100")
	t.Setenv("KIPU_LANG", "es")
	t.Setenv("KIPU_DATA_DIR", "/tmp/kipu")

	cfg := NewConfig()
	cfg.LoadFromEnvironment()

	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, uint64(31337), cfg.ChainID)
	assert.Equal(t, 500*time.Millisecond, cfg.MessageDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, common.HexToAddress("0xaa"), cfg.Contract())
	assert.Equal(t, "https://sepolia.etherscan.io/address/0x00000000000000000000000000000000000000aa", cfg.ContractURL())

	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", cfg.TxURL("0xabc"))

	dir, err := cfg.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kipu", dir)
}

func TestLoadFromEnvironmentIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("KIPU_CHAIN_ID", "sepolia")
	t.Setenv("KIPU_POLL_INTERVAL_MS", "soon")

	cfg := NewConfig()
	cfg.LoadFromEnvironment()

	assert.Equal(t, SepoliaChainID, cfg.ChainID)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	cfg.ContractAddress = "not-an-address"
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.ChainID = 0
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	assert.Equal(t, common.Address{}, cfg.Contract())
	assert.Empty(t, cfg.ContractURL())
}

func TestResolveDataDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := NewConfig()
	dir, err := cfg.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".kipu-atm"), dir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `network:
  rpc_url: https://rpc.sepolia.org
  poll_interval_ms: 500
contract:
  address: "0x00000000000000000000000000000000000000bb"
wallet:
  keystore: /keys/kipu.json
ui:
  language: es
  message_delay_ms: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://rpc.sepolia.org", cfg.RPCURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, common.HexToAddress("0xbb"), cfg.Contract())
	assert.Equal(t, "/keys/kipu.json", cfg.KeystorePath)
	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, time.Duration(0), cfg.MessageDelay)
	assert.Equal(t, SepoliaChainID, cfg.ChainID)

	// the environment overrides the file
	t.Setenv("KIPU_RPC_URL", "http://localhost:8545")
	cfg.LoadFromEnvironment()
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
}

func TestLoadFromFileMissingOrInvalid(t *testing.T) {
	dir := t.TempDir()

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(filepath.Join(dir, "absent.yaml")))
	assert.Empty(t, cfg.RPCURL)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: [unclosed"), 0600))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("KIPU_CONFIG", "/etc/kipu.yaml")
	assert.Equal(t, "/etc/kipu.yaml", DefaultConfigPath())
}
