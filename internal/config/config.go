package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// SepoliaChainID is the only network the bank contract is deployed on.
const SepoliaChainID uint64 = 11155111

// Config holds all application configuration
type Config struct {
	// Node and contract
	RPCURL          string
	ContractAddress string
	ChainID         uint64
	DialTimeout     time.Duration

	// Signing key, either an encrypted keystore file or a raw hex key
	KeystorePath string
	Passphrase   string
	PrivateKey   string

	// UI settings
	MessageDelay time.Duration
	Language     string
	ExplorerURL  string

	// Confirmation polling
	PollInterval time.Duration

	// Local data (receipt journal, TUI logs)
	DataDir string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ChainID:      SepoliaChainID,
		DialTimeout:  15 * time.Second,
		MessageDelay: 3 * time.Second,
		PollInterval: 2 * time.Second,
		Language:     "en",
		ExplorerURL:  "https://sepolia.etherscan.io",
		DataDir:      "~/.kipu-atm",
	}
}

// configFile is the YAML schema of the optional config file. Secrets
// (passphrase, private key) are only read from the environment.
type configFile struct {
	Network struct {
		RPCURL             string `yaml:"rpc_url"`
		ChainID            uint64 `yaml:"chain_id"`
		DialTimeoutSeconds int    `yaml:"dial_timeout_seconds"`
		PollIntervalMS     int    `yaml:"poll_interval_ms"`
	} `yaml:"network"`
	Contract struct {
		Address     string `yaml:"address"`
		ExplorerURL string `yaml:"explorer_url"`
	} `yaml:"contract"`
	Wallet struct {
		Keystore string `yaml:"keystore"`
	} `yaml:"wallet"`
	UI struct {
		Language       string `yaml:"language"`
		MessageDelayMS *int   `yaml:"message_delay_ms"`
	} `yaml:"ui"`
	DataDir string `yaml:"data_dir"`
}

// DefaultConfigPath returns KIPU_CONFIG, or config.yaml in the default data directory.
func DefaultConfigPath() string {
	if path := os.Getenv("KIPU_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(NewConfig().DataDir, "config.yaml")
}

// LoadFromFile applies the YAML config file at path. A missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if f.Network.RPCURL != "" {
		c.RPCURL = f.Network.RPCURL
	}
	if f.Network.ChainID > 0 {
		c.ChainID = f.Network.ChainID
	}
	if f.Network.DialTimeoutSeconds > 0 {
		c.DialTimeout = time.Duration(f.Network.DialTimeoutSeconds) * time.Second
	}
	if f.Network.PollIntervalMS > 0 {
		c.PollInterval = time.Duration(f.Network.PollIntervalMS) * time.Millisecond
	}
	if f.Contract.Address != "" {
		c.ContractAddress = f.Contract.Address
	}
	if f.Contract.ExplorerURL != "" {
		c.ExplorerURL = f.Contract.ExplorerURL
	}
	if f.Wallet.Keystore != "" {
		c.KeystorePath = f.Wallet.Keystore
	}
	if f.UI.Language != "" {
		c.Language = f.UI.Language
	}
	if f.UI.MessageDelayMS != nil {
		c.MessageDelay = time.Duration(*f.UI.MessageDelayMS) * time.Millisecond
	}
	if f.DataDir != "" {
		c.DataDir = f.DataDir
	}

	return nil
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if rpcURL := os.Getenv("KIPU_RPC_URL"); rpcURL != "" {
		c.RPCURL = rpcURL
	}

	if address := os.Getenv("KIPU_CONTRACT_ADDRESS"); address != "" {
		c.ContractAddress = address
	}

	if chainID := os.Getenv("KIPU_CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseUint(chainID, 10, 64); err == nil {
			c.ChainID = id
		}
	}

	if timeout := os.Getenv("KIPU_DIAL_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.DialTimeout = time.Duration(t) * time.Second
		}
	}

	if keystore := os.Getenv("KIPU_KEYSTORE"); keystore != "" {
		c.KeystorePath = keystore
	}

	if passphrase := os.Getenv("KIPU_PASSPHRASE"); passphrase != "" {
		c.Passphrase = passphrase
	}

	if key := os.Getenv("KIPU_PRIVATE_KEY"); key != "" {
		c.PrivateKey = key
	}

	if delay := os.Getenv("KIPU_MESSAGE_DELAY_MS"); delay != "" {
		if d, err := strconv.Atoi(delay); err == nil {
			c.MessageDelay = time.Duration(d) * time.Millisecond
		}
	}

	if interval := os.Getenv("KIPU_POLL_INTERVAL_MS"); interval != "" {
		if i, err := strconv.Atoi(interval); err == nil {
			c.PollInterval = time.Duration(i) * time.Millisecond
		}
	}

	if lang := os.Getenv("KIPU_LANG"); lang != "" {
		c.Language = lang
	} else if lang := os.Getenv("LANG"); lang != "" {
		c.Language = lang
	}

	if explorer := os.Getenv("KIPU_EXPLORER_URL"); explorer != "" {
		c.ExplorerURL = explorer
	}

	if dataDir := os.Getenv("KIPU_DATA_DIR"); dataDir != "" {
		c.DataDir = dataDir
	}
}

// Validate checks if the configuration is valid.
// A missing contract address is not an error here: it is reported when connecting.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("chain id must be positive")
	}

	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("contract address is not a valid hex address: %q", c.ContractAddress)
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got: %v", c.DialTimeout)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got: %v", c.PollInterval)
	}

	if c.MessageDelay < 0 {
		return fmt.Errorf("message delay must be non-negative, got: %v", c.MessageDelay)
	}

	return nil
}

// Contract returns the configured contract address, or the zero address if unset.
func (c *Config) Contract() common.Address {
	if c.ContractAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.ContractAddress)
}

// ResolveDataDir expands a leading ~ in DataDir.
func (c *Config) ResolveDataDir() (string, error) {
	return expandHome(c.DataDir)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// ContractURL returns the block explorer page of the contract.
func (c *Config) ContractURL() string {
	if c.ContractAddress == "" || c.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", strings.TrimRight(c.ExplorerURL, "/"), c.ContractAddress)
}

// TxURL returns the block explorer page of a transaction.
func (c *Config) TxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(c.ExplorerURL, "/"), hash)
}
