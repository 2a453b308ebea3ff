package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/devraulu/alisopan/pkg/search"
)

// JSONFileSource reads records from a JSON array of objects such as
//
//	[{"name": "...", "url": "...", "sj": "2024-06-01 10:00"}]
//
// Unknown keys are ignored; "timestamp" is accepted in place of "sj".
type JSONFileSource struct {
	Path string
}

func NewJSONFileSource(path string) *JSONFileSource {
	return &JSONFileSource{Path: path}
}

func (s *JSONFileSource) Load(ctx context.Context) ([]search.Record, error) {
	slog.Debug("loading dataset", "path", s.Path)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}

	slog.Info("loaded dataset", "path", s.Path, "count", len(records))
	return records, nil
}

func (s *JSONFileSource) Close() error {
	return nil
}

// DecodeRecords parses a dataset document. Entries that are not objects are
// skipped; missing or null fields become empty strings.
func DecodeRecords(data []byte) ([]search.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, ErrNotArray
	}

	records := make([]search.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			slog.Debug("skipping non-object dataset entry", slog.Int("index", i))
			continue
		}

		ts := field(obj, "sj")
		if ts == "" {
			ts = field(obj, "timestamp")
		}

		records = append(records, search.Record{
			Name:      field(obj, "name"),
			URL:       field(obj, "url"),
			Timestamp: ts,
		})
	}
	return records, nil
}

func field(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
