package logos

import (
	"context"
	"io/fs"
	"sync"

	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
)

// Catalog holds the current entry list. Views take a Snapshot when they mount
// and keep it for their whole lifetime; Rescan only affects later snapshots.
type Catalog struct {
	fsys      fs.FS
	urlPrefix string
	logger    logging.Logger

	mu      sync.RWMutex
	entries []Entry
	assets  int
}

// NewCatalog creates a catalog over fsys and performs the initial scan. A nil
// fsys behaves like an empty directory.
func NewCatalog(fsys fs.FS, urlPrefix string, logger logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.Nop()
	}
	c := &Catalog{
		fsys:      fsys,
		urlPrefix: urlPrefix,
		logger:    logger.WithComponent("logos"),
	}
	c.Rescan(context.Background())
	return c
}

// Rescan rediscovers the assets. Discovery failures degrade to placeholders
// and are only logged.
func (c *Catalog) Rescan(ctx context.Context) {
	var assets []Asset
	if c.fsys != nil {
		found, err := Discover(c.fsys, c.urlPrefix)
		if err != nil {
			c.logger.Warn(ctx, errors.NewIOError(errors.ErrCodeAssetDiscovery, "logo discovery failed", err),
				"Falling back to placeholder logos")
		} else {
			assets = found
		}
	}

	entries := BuildEntries(assets)

	c.mu.Lock()
	c.entries = entries
	c.assets = len(assets)
	c.mu.Unlock()

	c.logger.Info(ctx, "Logo catalog scanned", "assets", len(assets), "entries", len(entries))
}

// Snapshot returns a copy of the current entries.
func (c *Catalog) Snapshot() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AssetCount returns how many image files the last scan found.
func (c *Catalog) AssetCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assets
}
