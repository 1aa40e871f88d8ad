// Package metastore persists catalog metadata the user entered locally.
// Entries are stored in a single TOML document keyed by item id.
package metastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	bookstore "github.com/jgbooks/bookstore/go"
)

type document struct {
	VideoLink string                            `toml:"video_link"`
	Items     map[string]bookstore.ItemMetadata `toml:"items"`
}

// File is a MetadataStore backed by a TOML file.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a store at path. The file is created on first save.
func NewFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("metadata path is empty")
	}
	return &File{path: path}, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// LoadItems returns every stored entry. A missing file yields an empty map.
func (f *File) LoadItems() (map[bookstore.ItemID]bookstore.ItemMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	items := make(map[bookstore.ItemID]bookstore.ItemMetadata, len(doc.Items))
	for key, meta := range doc.Items {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			// Hand-edited files may carry junk keys
			continue
		}
		items[bookstore.ItemID(id)] = meta
	}
	return items, nil
}

// SaveItems replaces every stored entry.
func (f *File) SaveItems(items map[bookstore.ItemID]bookstore.ItemMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Items = make(map[string]bookstore.ItemMetadata, len(items))
	for id, meta := range items {
		doc.Items[id.String()] = meta
	}
	return f.write(doc)
}

// LoadVideoLink returns the stored video link, or "" when unset.
func (f *File) LoadVideoLink() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", err
	}
	return doc.VideoLink, nil
}

// SaveVideoLink stores the video link.
func (f *File) SaveVideoLink(link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.VideoLink = strings.TrimSpace(link)
	return f.write(doc)
}

func (f *File) read() (document, error) {
	var doc document

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("open metadata: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return doc, fmt.Errorf("read metadata: %w", err)
	}
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		return doc, fmt.Errorf("parse metadata: %w", err)
	}
	return doc, nil
}

func (f *File) write(doc document) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}

	bytes, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.toml")
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Memory is an in-process MetadataStore.
type Memory struct {
	mu        sync.Mutex
	items     map[bookstore.ItemID]bookstore.ItemMetadata
	videoLink string
}

// NewMemory creates a store seeded with items.
func NewMemory(items map[bookstore.ItemID]bookstore.ItemMetadata) *Memory {
	m := &Memory{items: make(map[bookstore.ItemID]bookstore.ItemMetadata, len(items))}
	for id, meta := range items {
		m.items[id] = meta
	}
	return m
}

func (m *Memory) LoadItems() (map[bookstore.ItemID]bookstore.ItemMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[bookstore.ItemID]bookstore.ItemMetadata, len(m.items))
	for id, meta := range m.items {
		out[id] = meta
	}
	return out, nil
}

func (m *Memory) SaveItems(items map[bookstore.ItemID]bookstore.ItemMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[bookstore.ItemID]bookstore.ItemMetadata, len(items))
	for id, meta := range items {
		m.items[id] = meta
	}
	return nil
}

func (m *Memory) LoadVideoLink() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videoLink, nil
}

func (m *Memory) SaveVideoLink(link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoLink = strings.TrimSpace(link)
	return nil
}

// IDs returns the stored ids in ascending order.
func (m *Memory) IDs() []bookstore.ItemID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]bookstore.ItemID, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var (
	_ bookstore.MetadataStore = (*File)(nil)
	_ bookstore.MetadataStore = (*Memory)(nil)
)
