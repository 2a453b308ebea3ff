package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/devraulu/alisopan/pkg/search"
)

type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Load(ctx context.Context) ([]search.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(name, ''), COALESCE(url, ''), COALESCE(sj, '')
		FROM resources
		ORDER BY id`)
	if err != nil {
		slog.Error("dataset query failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var records []search.Record
	for rows.Next() {
		var r search.Record
		if err := rows.Scan(&r.Name, &r.URL, &r.Timestamp); err != nil {
			slog.Error("dataset scan failed", "err", err)
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		slog.Error("dataset rows iteration failed", "err", err)
		return nil, err
	}

	slog.Info("loaded dataset", "source", "postgres", "count", len(records))
	return records, nil
}

// ReplaceAll swaps the table contents for records in one transaction, so
// readers see either the old dataset or the new one.
func (s *PostgresSource) ReplaceAll(ctx context.Context, records []search.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources`); err != nil {
		return fmt.Errorf("clear resources: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("resources", "name", "url", "sj"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Name, r.URL, r.Timestamp); err != nil {
			stmt.Close()
			return fmt.Errorf("copy record %q: %w", r.Name, err)
		}
	}

	// flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("replaced dataset", "count", len(records))
	return nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}
