package tokenmetadata

import (
	"context"
	"errors"
	"testing"

	ledgerevm "github.com/jgbooks/bookstore/go/ledger/evm"
)

type fakeReader struct {
	values map[string]interface{}
	err    error
}

func (f *fakeReader) ReadContract(_ context.Context, _ string, _ []byte, fn string, _ ...interface{}) (interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.values[fn], nil
}

func TestGetMetadata(t *testing.T) {
	reader := &fakeReader{values: map[string]interface{}{
		ledgerevm.FunctionName:     "JG Token ",
		ledgerevm.FunctionSymbol:   "JG",
		ledgerevm.FunctionDecimals: uint8(18),
	}}
	client := NewClient(reader, Config{})

	metadata, err := client.GetMetadata(context.Background(), "0xd9cfff0e93c198a2e5215e49097e8ef3fae8443e")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if metadata.Name != "JG Token" || metadata.Symbol != "JG" || metadata.Decimals != 18 {
		t.Errorf("Unexpected metadata: %+v", metadata)
	}
	if metadata.TokenAddress != "0xD9cFff0E93c198A2e5215E49097E8eF3FaE8443E" {
		t.Errorf("Expected checksummed address, got %s", metadata.TokenAddress)
	}
}

func TestGetMetadata_Errors(t *testing.T) {
	client := NewClient(&fakeReader{err: errors.New("rpc down")}, Config{})
	if _, err := client.GetMetadata(context.Background(), "0x2222222222222222222222222222222222222222"); err == nil {
		t.Error("Expected read error")
	}

	client = NewClient(&fakeReader{values: map[string]interface{}{
		ledgerevm.FunctionName:     "JG",
		ledgerevm.FunctionSymbol:   "JG",
		ledgerevm.FunctionDecimals: "eighteen",
	}}, Config{})
	if _, err := client.GetMetadata(context.Background(), "0x2222222222222222222222222222222222222222"); err == nil {
		t.Error("Expected decimals type error")
	}
}
