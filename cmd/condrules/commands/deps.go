package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/acptdev/condrules/internal/ajax"
	"github.com/acptdev/condrules/internal/cli"
	"github.com/acptdev/condrules/internal/htmlform"
	"github.com/acptdev/condrules/internal/rulecache"
	"github.com/acptdev/condrules/internal/store"
	"github.com/acptdev/condrules/internal/visibility"
)

func newAjaxClient() (*ajax.Client, error) {
	endpoint, err := ajax.ResolveEndpoint(cfg.SiteURL, cfg.AjaxURL)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	c := ajax.NewClient(endpoint, cfg.HTTPTimeout)
	c.Cookie = cfg.AjaxCookie
	c.Logger = logger
	return c, nil
}

// openCache opens the configured storage backend. The caller closes the
// returned store.
func openCache(ctx context.Context) (*rulecache.Cache, store.Store, error) {
	s, err := store.NewStore(ctx, store.Options{
		Type: cfg.StorageType,
		Dir:  cfg.StorageDir,
		DSN:  cfg.DatabaseDSN,
		Redis: store.RedisOptions{
			Address:   cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.RedisNamespace,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageType, err)
	}
	return rulecache.New(s, &logger), s, nil
}

func clientOptions(extra ...visibility.Option) []visibility.Option {
	opts := []visibility.Option{
		visibility.WithLogger(logger),
		visibility.WithDebounce(cfg.Debounce),
		visibility.WithStrictOrdering(cfg.StrictOrdering),
	}
	return append(opts, extra...)
}

func readForm(path string) (*htmlform.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open form: %w", err)
	}
	defer f.Close()
	return htmlform.Parse(f)
}

// writeForm renders doc to path, or to stdout when path is "-".
func writeForm(doc *htmlform.Document, path string) error {
	if path == "-" {
		return doc.Render(os.Stdout)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to render form: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", err)
	}
	return os.Rename(tmp, path)
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(format)
}
