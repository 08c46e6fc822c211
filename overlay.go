// Package overlay maintains a community overlay of corrections and
// additions to live game data. Overlay sources are JSON5/JSON/YAML
// files describing per-entity patches; the package merges them into a
// hash-stamped artifact, applies them to live entities, and reconciles
// each correction against the upstream API to find overrides that are
// still needed, fixed upstream, or stale.
package overlay

import (
	"context"
	"io/fs"
	"os"
	"sync"

	"github.com/tarkovhub/overlay/internal/schema"
	"github.com/tarkovhub/overlay/internal/snapshot"
	"github.com/tarkovhub/overlay/internal/tarkovdev"
	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/logging"
	"github.com/tarkovhub/overlay/pkg/overlays"
	"github.com/tarkovhub/overlay/pkg/reconcile"
)

// Source provides live game data for reconciliation. mode selects the
// game mode ("" means the default mode).
type Source interface {
	Category(ctx context.Context, category, mode string) ([]apply.Entity, error)
}

// Client ties the overlay sources, the live-data source, and the
// snapshot cache together.
type Client struct {
	mu      sync.Mutex
	config  config
	overlay *overlays.Overlay
	store   *snapshot.Store
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{config: defaultConfig}
	if err := c.options(opts...); err != nil {
		return nil, err
	}

	if c.config.source == nil {
		c.config.source = tarkovdev.NewClient()
	}
	if c.config.offline && c.config.dbPath == "" {
		return nil, &errors.ConfigError{
			Component: "client",
			Message:   "offline mode requires a snapshot store",
		}
	}

	if c.config.dbPath != "" {
		store, err := snapshot.Open(c.config.dbPath)
		if err != nil {
			return nil, err
		}
		c.store = store
	}
	return c, nil
}

// Close releases the snapshot store, if one is open.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Client) sources() fs.FS {
	if c.config.fsys != nil {
		return c.config.fsys
	}
	return os.DirFS(c.config.dir)
}

// Load parses and merges the overlay source files. The result is
// cached; call Reload to pick up changes on disk.
func (c *Client) Load() (*overlays.Overlay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay != nil {
		return c.overlay, nil
	}
	return c.reload()
}

// Reload discards the cached overlay and parses the sources again.
func (c *Client) Reload() (*overlays.Overlay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reload()
}

func (c *Client) reload() (*overlays.Overlay, error) {
	o, err := overlays.Load(c.sources())
	if err != nil {
		return nil, err
	}
	c.overlay = o
	return o, nil
}

// Validate checks every overlay source file against its JSON schema
// and returns the per-file results.
func (c *Client) Validate() ([]schema.FileResult, error) {
	return schema.ValidateFS(c.sources())
}

// Build merges the overlay sources into the distributable artifact,
// stamped with version, generation time, and content hash.
func (c *Client) Build(version string) ([]byte, error) {
	o, err := c.Load()
	if err != nil {
		return nil, err
	}
	return o.Artifact(version, c.config.now())
}

// Live returns the current entities of one category, consulting the
// snapshot store per the client's configuration. In offline mode the
// source is never contacted; otherwise fetched data is cached and the
// snapshot serves as a fallback when the source is unreachable.
func (c *Client) Live(ctx context.Context, category, mode string) ([]apply.Entity, error) {
	if c.config.offline {
		return c.store.Get(ctx, category, mode, c.config.maxAge)
	}

	entities, err := c.config.source.Category(ctx, category, mode)
	if err != nil {
		if c.store != nil {
			cached, cacheErr := c.store.Get(ctx, category, mode, c.config.maxAge)
			if cacheErr == nil {
				logging.Warn().
					Err(err).
					Str("category", category).
					Msg("live fetch failed, serving snapshot")
				return cached, nil
			}
		}
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Put(ctx, category, mode, entities); err != nil {
			logging.Warn().Err(err).Str("category", category).Msg("snapshot write failed")
		}
	}
	return entities, nil
}

// Apply fetches the live entities of one category and applies the
// overlay's corrections and additions to them. Disabled entities are
// dropped, additions appended.
func (c *Client) Apply(ctx context.Context, category, mode string) ([]apply.Entity, error) {
	o, err := c.Load()
	if err != nil {
		return nil, err
	}

	cat := o.Category(category)
	if mode != "" {
		if modeCat, ok := o.Modes[mode]; ok {
			if mc, ok := modeCat[category]; ok {
				cat = mc
			}
		}
	}

	entities, err := c.Live(ctx, category, mode)
	if err != nil {
		return nil, err
	}
	return apply.Category(entities, cat)
}

// Check reconciles every override and addition against live data and
// reports which corrections are still needed, fixed upstream, or refer
// to entities the API no longer returns. mode limits the check to one
// game mode's subtree; with mode empty the base overlay and every mode
// subtree are checked.
func (c *Client) Check(ctx context.Context, mode string) (*reconcile.Report, error) {
	o, err := c.Load()
	if err != nil {
		return nil, err
	}

	results := make(map[string][]reconcile.Result)

	if mode == "" {
		for _, name := range o.CategoryNames() {
			categoryResults, err := c.checkCategory(ctx, name, "", o.Categories[name])
			if err != nil {
				return nil, err
			}
			results[name] = categoryResults
		}
		for modeName, categories := range o.Modes {
			for name, cat := range categories {
				categoryResults, err := c.checkCategory(ctx, name, modeName, cat)
				if err != nil {
					return nil, err
				}
				results[modeName+"/"+name] = categoryResults
			}
		}
	} else {
		categories, ok := o.Modes[mode]
		if !ok {
			return nil, &errors.NotFoundError{Resource: "game mode", ID: mode}
		}
		for name, cat := range categories {
			categoryResults, err := c.checkCategory(ctx, name, mode, cat)
			if err != nil {
				return nil, err
			}
			results[mode+"/"+name] = categoryResults
		}
	}

	return reconcile.Categorize(results), nil
}

func (c *Client) checkCategory(ctx context.Context, category, mode string, cat *overlays.Category) ([]reconcile.Result, error) {
	if cat.IsEmpty() {
		return nil, nil
	}
	live, err := c.Live(ctx, category, mode)
	if err != nil {
		if errors.IsNotFound(err) {
			logging.Warn().Str("category", category).Msg("no live data for category, skipping")
			return nil, nil
		}
		return nil, err
	}
	return reconcile.Category(cat, live)
}
