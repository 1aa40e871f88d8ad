package bookstore_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	bookstore "github.com/jgbooks/bookstore/go"
	"github.com/jgbooks/bookstore/go/pkg/metastore"
	"github.com/jgbooks/bookstore/go/test/mocks/ledger"
)

const (
	storeAddr = "0x1111111111111111111111111111111111111111"
	tokenAddr = "0x2222222222222222222222222222222222222222"
	adminAddr = "0x3333333333333333333333333333333333333333"
	buyerAddr = "0x4444444444444444444444444444444444444444"
)

var (
	milliEth = big.NewInt(1_000_000_000_000_000)
	twoToken = new(big.Int).Mul(big.NewInt(2), big.NewInt(1_000_000_000_000_000_000))
)

type recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

type fixture struct {
	ledger  *ledger.Ledger
	client  *bookstore.Client
	meta    *metastore.Memory
	notices *recorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture prices items 1..3, with item 2 at 0.001 native / 2 tokens.
func newFixture(t *testing.T, opts ...bookstore.ClientOption) *fixture {
	t.Helper()

	l := ledger.New(storeAddr, tokenAddr, adminAddr)
	l.SetPrice(1, big.NewInt(500), big.NewInt(700))
	l.SetPrice(2, milliEth, twoToken)
	l.SetPrice(3, big.NewInt(0), big.NewInt(0))

	f := &fixture{
		ledger:  l,
		meta:    metastore.NewMemory(nil),
		notices: &recorder{},
	}
	opts = append([]bookstore.ClientOption{
		bookstore.WithLogger(discardLogger()),
		bookstore.WithNotifier(f.notices),
		bookstore.WithMetadataStore(f.meta),
	}, opts...)
	f.client = bookstore.NewClient(l, opts...)
	return f
}

func (f *fixture) connect(t *testing.T, caller string) bookstore.State {
	t.Helper()
	return f.client.Connect(context.Background(), f.ledger.Wallet(caller))
}
