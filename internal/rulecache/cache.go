// Package rulecache stores the last visibility decision for each page under
// the key acpt_conditional_rules_cache_<page>.
package rulecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acptdev/condrules/internal/store"
	"github.com/acptdev/condrules/internal/visibility"
	"github.com/rs/zerolog"
)

// KeyPrefix is prepended to the page id to form the storage key.
const KeyPrefix = "acpt_conditional_rules_cache_"

// Key returns the storage key for page.
func Key(page string) string {
	return KeyPrefix + page
}

// Cache reads and writes decisions through a store.Store.
type Cache struct {
	store  store.Store
	logger zerolog.Logger
}

// New wraps s. A nil logger pointer falls back to a no-op logger.
func New(s store.Store, logger *zerolog.Logger) *Cache {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Cache{store: s, logger: l}
}

// Read returns the decision stored for page. A backend error or an entry that
// does not parse is treated like a miss.
func (c *Cache) Read(ctx context.Context, page string) (visibility.Decision, bool) {
	raw, ok, err := c.store.GetItem(ctx, Key(page))
	if err != nil {
		c.logger.Warn().Err(err).Str("page", page).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	d, err := visibility.ParseDecision([]byte(raw))
	if err != nil {
		c.logger.Debug().Err(err).Str("page", page).Msg("ignoring unparsable cache entry")
		return nil, false
	}
	return d, true
}

// Write overwrites the entry for page.
func (c *Cache) Write(ctx context.Context, page string, d visibility.Decision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}
	if err := c.store.SetItem(ctx, Key(page), string(data)); err != nil {
		return fmt.Errorf("failed to write cache for page %s: %w", page, err)
	}
	return nil
}

// Clear removes the entry for page.
func (c *Cache) Clear(ctx context.Context, page string) error {
	if err := c.store.RemoveItem(ctx, Key(page)); err != nil {
		return fmt.Errorf("failed to clear cache for page %s: %w", page, err)
	}
	return nil
}

// Pages lists the pages that have a cached decision, sorted.
func (c *Cache) Pages(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, len(keys))
	for _, k := range keys {
		pages = append(pages, strings.TrimPrefix(k, KeyPrefix))
	}
	return pages, nil
}

var _ visibility.Cache = (*Cache)(nil)
