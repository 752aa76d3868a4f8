package sqlite

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) GetNamespace(ctx context.Context, namespace string) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not loaded")
	}
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv WHERE namespace = ?", namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", namespace, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", namespace, err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", namespace, err)
	}
	return values, nil
}

func (s *Store) PutNamespace(ctx context.Context, namespace string, values map[string]string) error {
	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range values {
		if _, err := stmt.ExecContext(ctx, namespace, key, value, now); err != nil {
			return fmt.Errorf("failed to write %s.%s: %w", namespace, key, err)
		}
	}

	return tx.Commit()
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE namespace = ?", namespace); err != nil {
		return fmt.Errorf("failed to delete %s: %w", namespace, err)
	}
	return nil
}
