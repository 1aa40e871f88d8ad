package tokenmetadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	ledgerevm "github.com/jgbooks/bookstore/go/ledger/evm"
)

// DefaultTimeout bounds the three metadata reads
const DefaultTimeout = 10 * time.Second

// TokenMetadata describes an ERC-20 token
type TokenMetadata struct {
	TokenAddress string `json:"tokenAddress"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Decimals     int    `json:"decimals"`
}

// Config contains configuration for the token metadata client
type Config struct {
	// Timeout bounds a GetMetadata call
	// Defaults to 10 seconds if not set
	Timeout time.Duration
}

// Client reads token metadata straight from the token contract
type Client struct {
	reader  ledgerevm.ContractReader
	timeout time.Duration
}

// NewClient creates a new token metadata client
func NewClient(reader ledgerevm.ContractReader, config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{reader: reader, timeout: timeout}
}

// GetMetadata reads name, symbol and decimals of tokenAddress
func (c *Client) GetMetadata(ctx context.Context, tokenAddress string) (*TokenMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	metadata := &TokenMetadata{TokenAddress: ledgerevm.NormalizeAddress(tokenAddress)}

	name, err := c.readString(ctx, tokenAddress, ledgerevm.FunctionName)
	if err != nil {
		return nil, err
	}
	metadata.Name = name

	symbol, err := c.readString(ctx, tokenAddress, ledgerevm.FunctionSymbol)
	if err != nil {
		return nil, err
	}
	metadata.Symbol = symbol

	result, err := c.reader.ReadContract(ctx, tokenAddress, ledgerevm.TokenABI, ledgerevm.FunctionDecimals)
	if err != nil {
		return nil, fmt.Errorf("failed to read token decimals: %w", err)
	}
	decimals, ok := result.(uint8)
	if !ok {
		return nil, fmt.Errorf("unexpected decimals type %T", result)
	}
	metadata.Decimals = int(decimals)

	return metadata, nil
}

func (c *Client) readString(ctx context.Context, tokenAddress, fn string) (string, error) {
	result, err := c.reader.ReadContract(ctx, tokenAddress, ledgerevm.TokenABI, fn)
	if err != nil {
		return "", fmt.Errorf("failed to read token %s: %w", fn, err)
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s type %T", fn, result)
	}
	return strings.TrimSpace(s), nil
}
