package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"), filepath.Join(home, "missing.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RPCURL != defaultRPCURL {
		t.Fatalf("RPCURL = %q, want %q", cfg.RPCURL, defaultRPCURL)
	}
	if cfg.ChainID.Int64() != defaultChainID {
		t.Fatalf("ChainID = %s, want %d", cfg.ChainID, defaultChainID)
	}
	if cfg.StoreAddress != defaultStoreAddress || cfg.TokenAddress != defaultTokenAddress {
		t.Fatalf("addresses = %s/%s, want defaults", cfg.StoreAddress, cfg.TokenAddress)
	}
	if cfg.TokenDecimals != 18 || cfg.NativeDecimals != 18 {
		t.Fatalf("decimals = %d/%d, want 18/18", cfg.NativeDecimals, cfg.TokenDecimals)
	}
	if !strings.HasPrefix(cfg.MetadataPath, home) {
		t.Fatalf("MetadataPath = %q, want it under HOME %q", cfg.MetadataPath, home)
	}
	if !cfg.ReadOnly() {
		t.Fatal("expected read-only config without a private key")
	}
	if cfg.UploadsEnabled() {
		t.Fatal("expected uploads disabled without a JWT")
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
rpc_url = "  http://localhost:8545  "
chain_id = 31337
store_address = "0x1111111111111111111111111111111111111111"
token_decimals = 6
read_concurrency = 8
poll_interval = "250ms"
metadata_path = "~/books.toml"

[pinata]
jwt = "file-jwt"
`)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RPCURL != "http://localhost:8545" {
		t.Fatalf("RPCURL = %q", cfg.RPCURL)
	}
	if cfg.ChainID.Int64() != 31337 {
		t.Fatalf("ChainID = %s, want 31337", cfg.ChainID)
	}
	if cfg.StoreAddress != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("StoreAddress = %q", cfg.StoreAddress)
	}
	if cfg.TokenAddress != defaultTokenAddress {
		t.Fatalf("TokenAddress = %q, want default", cfg.TokenAddress)
	}
	if cfg.TokenDecimals != 6 || cfg.NativeDecimals != 18 {
		t.Fatalf("decimals = %d/%d, want 18/6", cfg.NativeDecimals, cfg.TokenDecimals)
	}
	if cfg.ReadConcurrency != 8 {
		t.Fatalf("ReadConcurrency = %d, want 8", cfg.ReadConcurrency)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("PollInterval = %s, want 250ms", cfg.PollInterval)
	}
	if cfg.ReceiptTimeout != defaultReceiptTimeout {
		t.Fatalf("ReceiptTimeout = %s, want default", cfg.ReceiptTimeout)
	}
	if !strings.HasSuffix(cfg.MetadataPath, "books.toml") || strings.HasPrefix(cfg.MetadataPath, "~") {
		t.Fatalf("MetadataPath = %q, want expanded", cfg.MetadataPath)
	}
	if !cfg.UploadsEnabled() {
		t.Fatal("expected uploads enabled")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
rpc_url = "http://file:8545"
chain_id = 5
`)
	t.Setenv("BOOKSTORE_RPC_URL", "http://env:8545")
	t.Setenv("BOOKSTORE_CHAIN_ID", "31337")
	t.Setenv("BOOKSTORE_PRIVATE_KEY", "0xabc")
	t.Setenv("BOOKSTORE_RECEIPT_TIMEOUT", "30s")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RPCURL != "http://env:8545" {
		t.Fatalf("RPCURL = %q, want env value", cfg.RPCURL)
	}
	if cfg.ChainID.Int64() != 31337 {
		t.Fatalf("ChainID = %s, want 31337", cfg.ChainID)
	}
	if cfg.ReadOnly() {
		t.Fatal("expected signing config with a private key")
	}
	if cfg.ReceiptTimeout != 30*time.Second {
		t.Fatalf("ReceiptTimeout = %s, want 30s", cfg.ReceiptTimeout)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	envPath := writeFile(t, dir, "test.env", "BOOKSTORE_PINATA_JWT=from-dotenv\nBOOKSTORE_LISTEN_ADDR=0.0.0.0:9000\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("BOOKSTORE_PINATA_JWT")
		_ = os.Unsetenv("BOOKSTORE_LISTEN_ADDR")
	})

	cfg, err := Load(filepath.Join(dir, "none.toml"), envPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PinataJWT != "from-dotenv" {
		t.Fatalf("PinataJWT = %q, want from-dotenv", cfg.PinataJWT)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	missingEnv := filepath.Join(dir, "missing.env")

	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad toml", file: "rpc_url = ", wantErr: "parse config"},
		{name: "bad duration", file: `poll_interval = "soon"`, wantErr: "poll_interval"},
		{name: "bad store address", file: `store_address = "0x123"`, wantErr: "invalid store address"},
		{name: "bad env chain id", env: map[string]string{"BOOKSTORE_CHAIN_ID": "sepolia"}, wantErr: "CHAIN_ID"},
		{name: "bad env decimals", env: map[string]string{"BOOKSTORE_TOKEN_DECIMALS": "x"}, wantErr: "TOKEN_DECIMALS"},
		{name: "negative concurrency", env: map[string]string{"BOOKSTORE_READ_CONCURRENCY": "-1"}, wantErr: "read concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, t.TempDir(), "config.toml", tt.file)
			_, err := Load(path, missingEnv)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	cfg := Default()
	if cfg.SlogLevel().String() != "INFO" {
		t.Fatalf("default level = %s, want INFO", cfg.SlogLevel())
	}
	cfg.LogLevel = "debug"
	if cfg.SlogLevel().String() != "DEBUG" {
		t.Fatalf("level = %s, want DEBUG", cfg.SlogLevel())
	}
	cfg.LogLevel = "loud"
	if cfg.SlogLevel().String() != "INFO" {
		t.Fatalf("unknown level = %s, want INFO", cfg.SlogLevel())
	}
}
