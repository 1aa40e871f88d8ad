package bookstore

import (
	"context"
	"io"
	"log/slog"
)

// DefaultDecimals is the number of decimals of the native currency and of the
// token unless configured otherwise.
const DefaultDecimals = 18

// Client ties the collaborators together: it resolves tracked items, keeps the
// application state in sync with the ledger, and exposes purchase, claim, admin
// and catalog operations.
type Client struct {
	ledger       LedgerReader
	store        *Store
	reader       *Reader
	syncer       *Syncer
	session      *Session
	pending      *PendingPurchases
	catalog      *Catalog
	hooks        *hookRegistry
	orchestrator *Orchestrator
	admin        *AdminExecutor
	notifier     Notifier
	logger       *slog.Logger
	cfg          clientConfig
}

type clientConfig struct {
	logger          *slog.Logger
	notifier        Notifier
	metadata        MetadataStore
	uploader        Uploader
	baseline        []ItemID
	readConcurrency int
	nativeDecimals  int
	tokenDecimals   int
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithNotifier sets the receiver of user-visible messages
func WithNotifier(n Notifier) ClientOption {
	return func(c *clientConfig) {
		c.notifier = n
	}
}

// WithMetadataStore sets the local metadata cache
func WithMetadataStore(store MetadataStore) ClientOption {
	return func(c *clientConfig) {
		c.metadata = store
	}
}

// WithUploader sets the cover image uploader
func WithUploader(u Uploader) ClientOption {
	return func(c *clientConfig) {
		c.uploader = u
	}
}

// WithBaseline replaces the fixed baseline item set
func WithBaseline(ids ...ItemID) ClientOption {
	return func(c *clientConfig) {
		c.baseline = append([]ItemID(nil), ids...)
	}
}

// WithReadConcurrency bounds concurrent per-item ledger reads
func WithReadConcurrency(n int) ClientOption {
	return func(c *clientConfig) {
		c.readConcurrency = n
	}
}

// WithDecimals sets the decimals used to parse human price input
func WithDecimals(native, token int) ClientOption {
	return func(c *clientConfig) {
		c.nativeDecimals = native
		c.tokenDecimals = token
	}
}

// NewClient creates a disconnected client reading from ledger.
func NewClient(ledger LedgerReader, opts ...ClientOption) *Client {
	cfg := clientConfig{
		logger:         slog.Default(),
		notifier:       discardNotifier{},
		baseline:       BaselineItemIDs(),
		nativeDecimals: DefaultDecimals,
		tokenDecimals:  DefaultDecimals,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.notifier == nil {
		cfg.notifier = discardNotifier{}
	}

	c := &Client{
		ledger:   ledger,
		store:    NewStore(),
		session:  &Session{},
		pending:  NewPendingPurchases(),
		hooks:    &hookRegistry{},
		notifier: cfg.notifier,
		logger:   cfg.logger,
		cfg:      cfg,
	}
	c.catalog = NewCatalog(cfg.metadata, cfg.uploader, cfg.baseline, cfg.logger)
	c.reader = NewReader(ledger, cfg.logger, cfg.readConcurrency)
	c.syncer = NewSyncer(c.store, c.reader, c.catalog.IDs, cfg.logger)
	c.orchestrator = &Orchestrator{
		ledger:   ledger,
		syncer:   c.syncer,
		session:  c.session,
		pending:  c.pending,
		hooks:    c.hooks,
		notifier: c.notifier,
		logger:   cfg.logger,
	}
	c.admin = &AdminExecutor{
		syncer:         c.syncer,
		session:        c.session,
		hooks:          c.hooks,
		notifier:       c.notifier,
		logger:         cfg.logger,
		nativeDecimals: cfg.nativeDecimals,
		tokenDecimals:  cfg.tokenDecimals,
	}
	return c
}

// Start runs the initial resync without a caller.
func (c *Client) Start(ctx context.Context) State {
	return c.syncer.Resync(ctx, ScopeAll(), ReasonConnect)
}

// Connect attaches a wallet and resyncs everything for the new caller.
func (c *Client) Connect(ctx context.Context, wallet Wallet) State {
	c.session.set(wallet)
	caller := ""
	if wallet != nil {
		caller = wallet.Address()
	}
	c.logger.Info("wallet connected", slog.String("caller", caller))
	return c.syncer.Connect(ctx, caller)
}

// Disconnect detaches the wallet. Ownership and balance reset to empty and zero.
func (c *Client) Disconnect() State {
	c.session.set(nil)
	c.logger.Info("wallet disconnected")
	return c.syncer.Disconnect()
}

// Wallet returns the connected wallet or nil.
func (c *Client) Wallet() Wallet {
	return c.session.Wallet()
}

// Snapshot returns the current application state.
func (c *Client) Snapshot() State {
	return c.store.Snapshot()
}

// Resync re-reads ledger state for scope.
func (c *Client) Resync(ctx context.Context, scope Scope, reason Reason) State {
	return c.syncer.Resync(ctx, scope, reason)
}

// Purchase buys id through path.
func (c *Client) Purchase(ctx context.Context, id ItemID, path Path) (Outcome, error) {
	return c.orchestrator.Purchase(ctx, id, path)
}

// Claim mints the faucet amount of token to the caller.
func (c *Client) Claim(ctx context.Context) (*Receipt, error) {
	wallet, err := c.session.requireWallet()
	if err != nil {
		c.notifier.Notify(err.Error())
		return nil, err
	}
	receipt, err := submitAndWait(ctx, wallet, 0, "claim", func(ctx context.Context) (string, error) {
		return wallet.ClaimToken(ctx)
	})
	if err != nil {
		c.logger.Error("claim failed", slog.Any("err", err))
		c.notifier.Notify(err.Error())
		return nil, err
	}
	c.syncer.Resync(ctx, ScopeAll(), ReasonClaim)
	c.notifier.Notify("Claimed tokens")
	return receipt, nil
}

// Admin returns the administrative command executor.
func (c *Client) Admin() *AdminExecutor {
	return c.admin
}

// Orchestrator returns the purchase orchestrator.
func (c *Client) Orchestrator() *Orchestrator {
	return c.orchestrator
}

// Pending returns the in-flight purchases.
func (c *Client) Pending() []PendingPurchase {
	return c.pending.List()
}

// WaitForPurchase blocks until no purchase of id is in flight.
func (c *Client) WaitForPurchase(ctx context.Context, id ItemID) error {
	return c.pending.Wait(ctx, id)
}

// Decimals returns the native and token decimals.
func (c *Client) Decimals() (native, token int) {
	return c.cfg.nativeDecimals, c.cfg.tokenDecimals
}

// CanRead reports whether the caller owns id and may open it.
func (c *Client) CanRead(id ItemID) bool {
	return c.store.Snapshot().Owns(id)
}

// Catalog joins tracked ids with metadata, quotes, ownership and pending markers.
func (c *Client) Catalog() []CatalogEntry {
	snap := c.store.Snapshot()
	ids := snap.IDs
	if len(ids) == 0 {
		ids = c.catalog.IDs()
	}

	entries := make([]CatalogEntry, 0, len(ids))
	for _, id := range ids {
		entry := CatalogEntry{
			ID:       id,
			Metadata: c.catalog.Metadata(id),
			Owned:    snap.Owns(id),
		}
		if q, ok := snap.Quote(id); ok {
			entry.Quote = &q
		}
		if p, ok := c.pending.Get(id); ok {
			entry.Pending = p.Path
		}
		entries = append(entries, entry)
	}
	return entries
}

// SaveItemMetadata stores a display name for the id entered by the user and
// starts tracking the id if it is new.
func (c *Client) SaveItemMetadata(ctx context.Context, idText, name string) (ItemMetadata, error) {
	id, err := ParseItemID(idText)
	if err != nil {
		c.notifier.Notify(err.Error())
		return ItemMetadata{}, err
	}
	return c.trackMetadataChange(ctx, func() (ItemMetadata, error) {
		return c.catalog.SaveName(id, name)
	}, "Item saved")
}

// UploadCover uploads a cover image for the id entered by the user.
func (c *Client) UploadCover(ctx context.Context, idText, filename string, r io.Reader) (ItemMetadata, error) {
	id, err := ParseItemID(idText)
	if err != nil {
		c.notifier.Notify(err.Error())
		return ItemMetadata{}, err
	}
	return c.trackMetadataChange(ctx, func() (ItemMetadata, error) {
		return c.catalog.UploadImage(ctx, id, filename, r)
	}, "Image uploaded")
}

// VideoLink returns the saved video link.
func (c *Client) VideoLink() string {
	return c.catalog.VideoLink()
}

// SetVideoLink saves the video link.
func (c *Client) SetVideoLink(link string) error {
	if err := c.catalog.SetVideoLink(link); err != nil {
		c.logger.Error("save video link failed", slog.Any("err", err))
		c.notifier.Notify("Could not save video link")
		return err
	}
	c.notifier.Notify("Video link saved")
	return nil
}

// trackMetadataChange applies a metadata change and resyncs any id that the
// change added to the tracked set.
func (c *Client) trackMetadataChange(ctx context.Context, change func() (ItemMetadata, error), notice string) (ItemMetadata, error) {
	before := c.catalog.IDs()
	meta, err := change()
	if err != nil {
		c.logger.Error("metadata change failed", slog.Any("err", err))
		c.notifier.Notify(err.Error())
		return ItemMetadata{}, err
	}
	after := c.catalog.IDs()
	if !sameIDs(before, after) {
		c.syncer.Resync(ctx, ScopeIDs(addedIDs(before, after)...), ReasonIDsChanged)
	}
	c.notifier.Notify(notice)
	return meta, nil
}

// OnBeforePurchase registers a hook to execute before a purchase
func (c *Client) OnBeforePurchase(hook BeforePurchaseHook) *Client {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.beforePurchase = append(c.hooks.beforePurchase, hook)
	return c
}

// OnAfterPurchase registers a hook to execute after a successful purchase
func (c *Client) OnAfterPurchase(hook AfterPurchaseHook) *Client {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.afterPurchase = append(c.hooks.afterPurchase, hook)
	return c
}

// OnPurchaseFailure registers a hook to execute when a purchase fails
func (c *Client) OnPurchaseFailure(hook OnPurchaseFailureHook) *Client {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onFailure = append(c.hooks.onFailure, hook)
	return c
}

// OnAfterAdmin registers a hook to execute after an administrative command
func (c *Client) OnAfterAdmin(hook AfterAdminHook) *Client {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.afterAdmin = append(c.hooks.afterAdmin, hook)
	return c
}
