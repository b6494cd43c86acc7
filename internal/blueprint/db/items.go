package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// ItemStore handles item catalog access.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

// GetItem retrieves an item by ID. Returns nil if not found.
func (s *ItemStore) GetItem(ctx context.Context, id string) (*blueprint.Item, error) {
	item := &blueprint.Item{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, icon_id FROM items WHERE id = ?
	`, id).Scan(&item.Name, &item.IconID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return item, nil
}

// GetAllItems retrieves the full item catalog.
func (s *ItemStore) GetAllItems(ctx context.Context) ([]blueprint.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, icon_id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying all items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []blueprint.Item
	for rows.Next() {
		var it blueprint.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.IconID); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// BulkInsertItems inserts multiple items in a transaction.
func (s *ItemStore) BulkInsertItems(ctx context.Context, items []blueprint.Item) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO items (id, name, icon_id)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing item statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, it.ID, it.Name, it.IconID); err != nil {
				return fmt.Errorf("inserting item %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// ClearItems removes all items.
func (s *ItemStore) ClearItems(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	return nil
}
