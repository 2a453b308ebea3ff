package storage

import (
	"context"
	"errors"

	"github.com/devraulu/alisopan/pkg/search"
)

var (
	ErrNotArray = errors.New("dataset is not a JSON array")
)

// Source supplies the full dataset. Implementations return every record
// they can read; the caller decides what to do on error.
type Source interface {
	Load(ctx context.Context) ([]search.Record, error)
	Close() error
}
