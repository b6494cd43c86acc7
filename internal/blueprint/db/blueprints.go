package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// BlueprintStore handles blueprint data access.
type BlueprintStore struct {
	db *DB
}

// NewBlueprintStore creates a new BlueprintStore.
func NewBlueprintStore(db *DB) *BlueprintStore {
	return &BlueprintStore{db: db}
}

// GetBlueprint retrieves a single blueprint by exact name with its resources.
// Returns nil when no such blueprint exists.
func (s *BlueprintStore) GetBlueprint(ctx context.Context, name string) (*blueprint.Blueprint, error) {
	bp := &blueprint.Blueprint{Name: name}

	err := s.db.QueryRowContext(ctx, `
		SELECT type, tech_level, production_cost, production_time, production_count
		FROM blueprints WHERE name = ?
	`, name).Scan(
		&bp.Type,
		&bp.TechLevel,
		&bp.ProductionCost,
		&bp.ProductionTime,
		&bp.ProductionCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying blueprint: %w", err)
	}

	resources, err := s.getResources(ctx, name)
	if err != nil {
		return nil, err
	}
	bp.Resources = resources

	return bp, nil
}

// getResources retrieves the resource quantities of a blueprint.
func (s *BlueprintStore) getResources(ctx context.Context, name string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resource_key, quantity
		FROM blueprint_resources
		WHERE blueprint_name = ?
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying blueprint resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resources := make(map[string]float64)
	for rows.Next() {
		var key string
		var qty float64
		if err := rows.Scan(&key, &qty); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		resources[key] = qty
	}

	return resources, rows.Err()
}

// GetAllBlueprints retrieves every blueprint in import order.
func (s *BlueprintStore) GetAllBlueprints(ctx context.Context) ([]blueprint.Blueprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, tech_level, production_cost, production_time, production_count
		FROM blueprints
		ORDER BY position, name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all blueprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bps []blueprint.Blueprint
	index := make(map[string]int)
	for rows.Next() {
		var bp blueprint.Blueprint
		if err := rows.Scan(
			&bp.Name,
			&bp.Type,
			&bp.TechLevel,
			&bp.ProductionCost,
			&bp.ProductionTime,
			&bp.ProductionCount,
		); err != nil {
			return nil, fmt.Errorf("scanning blueprint: %w", err)
		}
		bp.Resources = make(map[string]float64)
		index[bp.Name] = len(bps)
		bps = append(bps, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load all resources in one pass
	resRows, err := s.db.QueryContext(ctx, `
		SELECT blueprint_name, resource_key, quantity
		FROM blueprint_resources
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all resources: %w", err)
	}
	defer func() { _ = resRows.Close() }()

	for resRows.Next() {
		var name, key string
		var qty float64
		if err := resRows.Scan(&name, &key, &qty); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		if i, ok := index[name]; ok {
			bps[i].Resources[key] = qty
		}
	}

	return bps, resRows.Err()
}

// CountBlueprints returns the total number of blueprints.
func (s *BlueprintStore) CountBlueprints(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blueprints`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting blueprints: %w", err)
	}
	return count, nil
}

// BulkInsertBlueprints inserts multiple blueprints in a transaction.
// Position follows slice order so catalog ranking ties stay stable.
func (s *BlueprintStore) BulkInsertBlueprints(ctx context.Context, bps []blueprint.Blueprint) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		bpStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO blueprints
			(name, type, tech_level, production_cost, production_time, production_count, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing blueprint statement: %w", err)
		}
		defer func() { _ = bpStmt.Close() }()

		resStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO blueprint_resources (blueprint_name, resource_key, quantity)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing resource statement: %w", err)
		}
		defer func() { _ = resStmt.Close() }()

		for i, bp := range bps {
			_, err := bpStmt.ExecContext(ctx,
				bp.Name, bp.Type, bp.TechLevel,
				bp.ProductionCost, bp.ProductionTime, bp.ProductionCount, i,
			)
			if err != nil {
				return fmt.Errorf("inserting blueprint %s: %w", bp.Name, err)
			}

			for key, qty := range bp.Resources {
				if qty == 0 {
					continue
				}
				if _, err := resStmt.ExecContext(ctx, bp.Name, key, qty); err != nil {
					return fmt.Errorf("inserting resource %s for %s: %w", key, bp.Name, err)
				}
			}
		}

		return nil
	})
}

// ClearBlueprints removes all blueprint data (for re-import).
func (s *BlueprintStore) ClearBlueprints(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Foreign keys will cascade delete resources
		_, err := tx.ExecContext(ctx, `DELETE FROM blueprints`)
		return err
	})
}
