package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const fileExt = ".json"

// FileStore keeps one JSON file per key in a directory. File names are the
// xxhash of the key, so any key is safe to store; the key itself lives in the
// file's envelope.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	name := strconv.FormatUint(xxhash.Sum64String(key), 16)
	return filepath.Join(f.dir, name+fileExt)
}

// GetItem reads the envelope for key.
func (f *FileStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	item, err := readItem(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if item.Key != key {
		// hash collision with another key
		return "", false, nil
	}
	return item.Value, true, nil
}

// SetItem writes the envelope atomically (temp file + rename).
func (f *FileStore) SetItem(ctx context.Context, key, value string) error {
	data, err := json.Marshal(Item{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "item-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write item: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write item: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store item: %w", err)
	}
	return nil
}

// RemoveItem deletes the file for key.
func (f *FileStore) RemoveItem(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

// Keys scans the directory and returns the keys starting with prefix.
// Unreadable files are skipped.
func (f *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		item, err := readItem(filepath.Join(f.dir, e.Name()))
		if err != nil {
			continue
		}
		if strings.HasPrefix(item.Key, prefix) {
			keys = append(keys, item.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for FileStore.
func (f *FileStore) Close() error {
	return nil
}

func readItem(path string) (Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Item{}, err
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return Item{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return item, nil
}
