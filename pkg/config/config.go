// Package config loads bookstore client settings.
//
// Values are layered: built-in defaults for the public test deployment, then an
// optional TOML file, then .env files and BOOKSTORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything needed to wire a client.
type Config struct {
	RPCURL          string
	ChainID         *big.Int
	StoreAddress    string
	TokenAddress    string
	NativeDecimals  int
	TokenDecimals   int
	ReadConcurrency int
	PollInterval    time.Duration
	ReceiptTimeout  time.Duration
	MetadataPath    string
	PinataJWT       string
	PinataEndpoint  string
	PinataGateway   string
	ListenAddr      string
	LogLevel        string

	// APIKey, when set, must accompany every mutating HTTP request.
	APIKey string

	// PrivateKey is optional. Without it the client runs read-only.
	PrivateKey string
}

const (
	defaultConfigPath      = "~/.config/bookstore/config.toml"
	defaultMetadataPath    = "~/.local/share/bookstore/metadata.toml"
	defaultRPCURL          = "https://ethereum-sepolia.publicnode.com"
	defaultChainID         = 11155111
	defaultStoreAddress    = "0x45F46Ec77c5BbfeE42daC36cC9eCb18DCF3Ada71"
	defaultTokenAddress    = "0xD9cFff0E93c198A2e5215E49097E8eF3FaE8443E"
	defaultDecimals        = 18
	defaultReadConcurrency = 4
	defaultPollInterval    = 2 * time.Second
	defaultReceiptTimeout  = 3 * time.Minute
	defaultPinataEndpoint  = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	defaultPinataGateway   = "https://gateway.pinata.cloud/ipfs/"
	defaultListenAddr      = "127.0.0.1:8080"
	defaultLogLevel        = "info"

	envPrefix = "BOOKSTORE_"
)

// fileConfig mirrors the TOML layout. Empty values keep the defaults.
type fileConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ChainID         int64  `toml:"chain_id"`
	StoreAddress    string `toml:"store_address"`
	TokenAddress    string `toml:"token_address"`
	NativeDecimals  int    `toml:"native_decimals"`
	TokenDecimals   int    `toml:"token_decimals"`
	ReadConcurrency int    `toml:"read_concurrency"`
	PollInterval    string `toml:"poll_interval"`
	ReceiptTimeout  string `toml:"receipt_timeout"`
	MetadataPath    string `toml:"metadata_path"`
	ListenAddr      string `toml:"listen_addr"`
	LogLevel        string `toml:"log_level"`
	APIKey          string `toml:"api_key"`
	Pinata          struct {
		JWT      string `toml:"jwt"`
		Endpoint string `toml:"endpoint"`
		Gateway  string `toml:"gateway"`
	} `toml:"pinata"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RPCURL:          defaultRPCURL,
		ChainID:         big.NewInt(defaultChainID),
		StoreAddress:    defaultStoreAddress,
		TokenAddress:    defaultTokenAddress,
		NativeDecimals:  defaultDecimals,
		TokenDecimals:   defaultDecimals,
		ReadConcurrency: defaultReadConcurrency,
		PollInterval:    defaultPollInterval,
		ReceiptTimeout:  defaultReceiptTimeout,
		MetadataPath:    mustExpand(defaultMetadataPath),
		PinataEndpoint:  defaultPinataEndpoint,
		PinataGateway:   defaultPinataGateway,
		ListenAddr:      defaultListenAddr,
		LogLevel:        defaultLogLevel,
	}
}

// Load reads the TOML file at path (the default location when empty), then the
// given .env files (".env" when none), then the environment. A missing file is
// not an error.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if err := applyFile(&cfg, resolved); err != nil {
		return Config{}, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks addresses and numeric bounds.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.RPCURL) == "" {
		errs = append(errs, errors.New("rpc url is required"))
	}
	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		errs = append(errs, fmt.Errorf("invalid chain id: %v", c.ChainID))
	}
	if !common.IsHexAddress(c.StoreAddress) {
		errs = append(errs, fmt.Errorf("invalid store address: %q", c.StoreAddress))
	}
	if !common.IsHexAddress(c.TokenAddress) {
		errs = append(errs, fmt.Errorf("invalid token address: %q", c.TokenAddress))
	}
	if c.NativeDecimals < 0 || c.NativeDecimals > 77 {
		errs = append(errs, fmt.Errorf("invalid native decimals: %d", c.NativeDecimals))
	}
	if c.TokenDecimals < 0 || c.TokenDecimals > 77 {
		errs = append(errs, fmt.Errorf("invalid token decimals: %d", c.TokenDecimals))
	}
	if c.ReadConcurrency < 1 {
		errs = append(errs, fmt.Errorf("read concurrency must be positive: %d", c.ReadConcurrency))
	}
	return errors.Join(errs...)
}

// ReadOnly reports whether no private key is configured.
func (c Config) ReadOnly() bool {
	return strings.TrimSpace(c.PrivateKey) == ""
}

// UploadsEnabled reports whether a pinning service token is configured.
func (c Config) UploadsEnabled() bool {
	return strings.TrimSpace(c.PinataJWT) != ""
}

// SlogLevel parses LogLevel, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.RPCURL, raw.RPCURL)
	setString(&cfg.StoreAddress, raw.StoreAddress)
	setString(&cfg.TokenAddress, raw.TokenAddress)
	setString(&cfg.ListenAddr, raw.ListenAddr)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.APIKey, raw.APIKey)
	setString(&cfg.PinataJWT, raw.Pinata.JWT)
	setString(&cfg.PinataEndpoint, raw.Pinata.Endpoint)
	setString(&cfg.PinataGateway, raw.Pinata.Gateway)
	if p := strings.TrimSpace(raw.MetadataPath); p != "" {
		cfg.MetadataPath = mustExpand(p)
	}
	if raw.ChainID != 0 {
		cfg.ChainID = big.NewInt(raw.ChainID)
	}
	if raw.NativeDecimals != 0 {
		cfg.NativeDecimals = raw.NativeDecimals
	}
	if raw.TokenDecimals != 0 {
		cfg.TokenDecimals = raw.TokenDecimals
	}
	if raw.ReadConcurrency != 0 {
		cfg.ReadConcurrency = raw.ReadConcurrency
	}
	if err := setDuration(&cfg.PollInterval, raw.PollInterval); err != nil {
		return fmt.Errorf("parse config: poll_interval: %w", err)
	}
	if err := setDuration(&cfg.ReceiptTimeout, raw.ReceiptTimeout); err != nil {
		return fmt.Errorf("parse config: receipt_timeout: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.RPCURL, env("RPC_URL"))
	setString(&cfg.StoreAddress, env("STORE_ADDRESS"))
	setString(&cfg.TokenAddress, env("TOKEN_ADDRESS"))
	setString(&cfg.ListenAddr, env("LISTEN_ADDR"))
	setString(&cfg.LogLevel, env("LOG_LEVEL"))
	setString(&cfg.APIKey, env("API_KEY"))
	setString(&cfg.PinataJWT, env("PINATA_JWT"))
	setString(&cfg.PinataEndpoint, env("PINATA_ENDPOINT"))
	setString(&cfg.PinataGateway, env("PINATA_GATEWAY"))
	setString(&cfg.PrivateKey, env("PRIVATE_KEY"))
	if p := env("METADATA_PATH"); p != "" {
		cfg.MetadataPath = mustExpand(p)
	}

	if v := env("CHAIN_ID"); v != "" {
		id, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return fmt.Errorf("%sCHAIN_ID: invalid integer %q", envPrefix, v)
		}
		cfg.ChainID = id
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"NATIVE_DECIMALS", &cfg.NativeDecimals},
		{"TOKEN_DECIMALS", &cfg.TokenDecimals},
		{"READ_CONCURRENCY", &cfg.ReadConcurrency},
	}
	for _, i := range ints {
		v := env(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, i.key, err)
		}
		*i.dst = n
	}
	if err := setDuration(&cfg.PollInterval, env("POLL_INTERVAL")); err != nil {
		return fmt.Errorf("%sPOLL_INTERVAL: %w", envPrefix, err)
	}
	if err := setDuration(&cfg.ReceiptTimeout, env("RECEIPT_TIMEOUT")); err != nil {
		return fmt.Errorf("%sRECEIPT_TIMEOUT: %w", envPrefix, err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive: %s", v)
	}
	*dst = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
