package overlay

import (
	"io/fs"
	"time"
)

// Option is a function that configures a Client.
type Option func(*config) error

type config struct {
	dir     string
	fsys    fs.FS
	source  Source
	dbPath  string
	maxAge  time.Duration
	offline bool
	now     func() time.Time
}

var defaultConfig = config{
	dir: "overlays",
	now: time.Now,
}

// WithDir configures the directory holding the overlay source files.
func WithDir(dir string) Option {
	return func(c *config) error {
		c.dir = dir
		return nil
	}
}

// WithFS configures an fs.FS to load overlay sources from instead of a
// directory on disk. Useful for embedded overlays and tests.
func WithFS(fsys fs.FS) Option {
	return func(c *config) error {
		c.fsys = fsys
		return nil
	}
}

// WithSource configures the live game-data source to reconcile against.
func WithSource(source Source) Option {
	return func(c *config) error {
		c.source = source
		return nil
	}
}

// WithSnapshot configures an on-disk snapshot store at path. Fetched
// live data is cached there, and reads tolerate entries up to maxAge
// old. A maxAge of zero accepts snapshots of any age.
func WithSnapshot(path string, maxAge time.Duration) Option {
	return func(c *config) error {
		c.dbPath = path
		c.maxAge = maxAge
		return nil
	}
}

// WithOffline configures whether to skip the live source entirely and
// serve from the snapshot store.
func WithOffline(enabled bool) Option {
	return func(c *config) error {
		c.offline = enabled
		return nil
	}
}

// WithClock configures the time source used for artifact stamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}

func (c *Client) options(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&c.config); err != nil {
			return err
		}
	}
	return nil
}
