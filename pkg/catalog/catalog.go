// Package catalog keeps the in-memory dataset that searches run against.
//
// Each request takes a Snapshot; reloads publish a new slice rather than
// mutating the old one, so a snapshot stays consistent for as long as the
// request holds it.
package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/devraulu/alisopan/pkg/search"
	"github.com/devraulu/alisopan/pkg/storage"
)

type Catalog struct {
	src      storage.Source
	snapshot atomic.Pointer[[]search.Record]
	loadedAt atomic.Int64
}

func New(src storage.Source) *Catalog {
	c := &Catalog{src: src}
	empty := []search.Record{}
	c.snapshot.Store(&empty)
	return c
}

// Reload reads the source and publishes the result. On error the current
// snapshot is kept, which is the empty dataset if nothing has loaded yet.
func (c *Catalog) Reload(ctx context.Context) error {
	records, err := c.src.Load(ctx)
	if err != nil {
		slog.Error("dataset reload failed, keeping current snapshot",
			slog.Int("current", c.Len()),
			slog.Any("err", err))
		return err
	}

	if records == nil {
		records = []search.Record{}
	}
	c.snapshot.Store(&records)
	c.loadedAt.Store(time.Now().UnixNano())

	slog.Info("dataset published", slog.Int("records", len(records)))
	return nil
}

// Snapshot returns the current dataset. Callers must treat it as read-only.
func (c *Catalog) Snapshot() []search.Record {
	return *c.snapshot.Load()
}

func (c *Catalog) Len() int {
	return len(c.Snapshot())
}

// LoadedAt is the time of the last successful reload, or the zero time.
func (c *Catalog) LoadedAt() time.Time {
	ns := c.loadedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Poll reloads every interval until ctx is done.
func (c *Catalog) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Reload(ctx)
		}
	}
}
