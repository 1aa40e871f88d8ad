package bookstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Catalog holds the locally cached item metadata and the video link.
// It is independent of ledger state and never invalidated by remote reads.
type Catalog struct {
	mu        sync.RWMutex
	store     MetadataStore
	uploader  Uploader
	baseline  []ItemID
	items     map[ItemID]ItemMetadata
	videoLink string
	logger    *slog.Logger
}

// NewCatalog loads cached metadata from store. A store that fails to load
// starts the catalog empty.
func NewCatalog(store MetadataStore, uploader Uploader, baseline []ItemID, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		store:    store,
		uploader: uploader,
		baseline: append([]ItemID(nil), baseline...),
		items:    make(map[ItemID]ItemMetadata),
		logger:   logger,
	}
	if store == nil {
		return c
	}

	items, err := store.LoadItems()
	if err != nil {
		logger.Warn("load item metadata failed", slog.Any("err", err))
	}
	for id, meta := range items {
		c.items[id] = meta
	}
	link, err := store.LoadVideoLink()
	if err != nil {
		logger.Warn("load video link failed", slog.Any("err", err))
	}
	c.videoLink = link
	return c
}

// IDs resolves the tracked identifier set.
func (c *Catalog) IDs() []ItemID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ResolveItemIDs(c.baseline, c.items)
}

// Metadata returns the cached metadata of id, defaulting the name.
func (c *Catalog) Metadata(id ItemID) ItemMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta := c.items[id]
	if meta.Name == "" {
		meta.Name = defaultItemName(id)
	}
	return meta
}

// SaveName stores a display name for id. An empty name keeps the existing one.
func (c *Catalog) SaveName(id ItemID, name string) (ItemMetadata, error) {
	return c.update(id, func(meta *ItemMetadata) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			meta.Name = trimmed
		}
	})
}

// UploadImage uploads the cover through the Uploader and stores its URL.
func (c *Catalog) UploadImage(ctx context.Context, id ItemID, filename string, r io.Reader) (ItemMetadata, error) {
	if c.uploader == nil {
		return ItemMetadata{}, fmt.Errorf("no uploader configured")
	}
	url, err := c.uploader.Upload(ctx, filename, r)
	if err != nil {
		return ItemMetadata{}, fmt.Errorf("upload cover: %w", err)
	}
	return c.update(id, func(meta *ItemMetadata) {
		meta.ImageURL = url
	})
}

// VideoLink returns the saved video link.
func (c *Catalog) VideoLink() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.videoLink
}

// SetVideoLink saves the video link.
func (c *Catalog) SetVideoLink(link string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	link = strings.TrimSpace(link)
	if c.store != nil {
		if err := c.store.SaveVideoLink(link); err != nil {
			return fmt.Errorf("save video link: %w", err)
		}
	}
	c.videoLink = link
	return nil
}

func (c *Catalog) update(id ItemID, mutate func(meta *ItemMetadata)) (ItemMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[ItemID]ItemMetadata, len(c.items)+1)
	for k, v := range c.items {
		next[k] = v
	}
	meta := next[id]
	mutate(&meta)
	if meta.Name == "" {
		meta.Name = defaultItemName(id)
	}
	next[id] = meta

	if c.store != nil {
		if err := c.store.SaveItems(next); err != nil {
			return ItemMetadata{}, fmt.Errorf("save item metadata: %w", err)
		}
	}
	c.items = next
	return meta, nil
}

func defaultItemName(id ItemID) string {
	return fmt.Sprintf("Book #%d", id)
}
