// Package sync imports the static blueprint datasets into the database.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rsned/blueprint-cost-server/internal/blueprint/db"
	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// Syncer loads dataset files into the database.
type Syncer struct {
	db *db.DB
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB) *Syncer {
	return &Syncer{db: database}
}

// ItemImport is one entry of items.json, keyed by item id.
type ItemImport struct {
	Name   string `json:"name"`
	IconID any    `json:"icon_id"` // number or string in the wild
}

// SnapshotImport is one market snapshot record.
type SnapshotImport struct {
	ItemID     string   `json:"item_id"`
	ItemName   string   `json:"item_name"`
	Time       int64    `json:"time"` // unix seconds
	Sell       *float64 `json:"sell"`
	LowestSell *float64 `json:"lowest_sell"`
	Buy        *float64 `json:"buy"`
	HighestBuy *float64 `json:"highest_buy"`
	Volume     int64    `json:"volume"`
}

// ImportBlueprintsFromFile imports blueprints from a JSON file, replacing
// the existing blueprint table.
func (s *Syncer) ImportBlueprintsFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var imports []blueprint.Blueprint
	if err := json.Unmarshal(data, &imports); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	bps := make([]blueprint.Blueprint, 0, len(imports))
	for _, bp := range imports {
		bp.Name = strings.TrimSpace(bp.Name)
		if bp.Name == "" {
			continue
		}
		bps = append(bps, bp)
	}

	store := db.NewBlueprintStore(s.db)
	if err := store.ClearBlueprints(ctx); err != nil {
		return fmt.Errorf("clearing blueprints: %w", err)
	}
	if err := store.BulkInsertBlueprints(ctx, bps); err != nil {
		return fmt.Errorf("inserting blueprints: %w", err)
	}

	return s.recordSync(ctx, "blueprints", len(bps))
}

// ImportItemsFromFile imports the item catalog from a JSON object keyed by id.
func (s *Syncer) ImportItemsFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var imports map[string]ItemImport
	if err := json.Unmarshal(data, &imports); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	items := make([]blueprint.Item, 0, len(imports))
	for id, imp := range imports {
		items = append(items, transformItem(id, imp))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	if err := db.NewItemStore(s.db).BulkInsertItems(ctx, items); err != nil {
		return fmt.Errorf("inserting items: %w", err)
	}

	return s.recordSync(ctx, "items", len(items))
}

// ImportMarketDataFromFile imports market snapshots from a JSON file.
func (s *Syncer) ImportMarketDataFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var imports []SnapshotImport
	if err := json.Unmarshal(data, &imports); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	points := make([]db.MarketSnapshot, 0, len(imports))
	for _, imp := range imports {
		if imp.ItemID == "" && imp.ItemName == "" {
			continue
		}
		ts := time.Unix(imp.Time, 0)
		if imp.Time == 0 {
			ts = time.Now()
		}
		id := imp.ItemID
		if id == "" {
			id = blueprint.NameKey(imp.ItemName)
		}
		points = append(points, db.MarketSnapshot{
			ItemID:     id,
			ItemName:   imp.ItemName,
			Time:       ts,
			Sell:       imp.Sell,
			LowestSell: imp.LowestSell,
			Buy:        imp.Buy,
			HighestBuy: imp.HighestBuy,
			Volume:     imp.Volume,
		})
	}

	// Zero max age: importing never filters by freshness.
	if err := db.NewMarketStore(s.db, 0).ImportSnapshots(ctx, points); err != nil {
		return fmt.Errorf("importing market data: %w", err)
	}

	return s.recordSync(ctx, "market", len(points))
}

// ClearAll removes all imported data.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewBlueprintStore(s.db).ClearBlueprints(ctx); err != nil {
		return err
	}
	if err := db.NewItemStore(s.db).ClearItems(ctx); err != nil {
		return err
	}
	return db.NewMarketStore(s.db, 0).ClearMarketData(ctx)
}

func (s *Syncer) recordSync(ctx context.Context, dataset string, count int) error {
	if err := s.db.SetSyncMetadata(ctx, dataset+"_last_sync", time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.db.SetSyncMetadata(ctx, dataset+"_count", fmt.Sprintf("%d", count))
}

// transformItem converts import format to domain format.
func transformItem(id string, imp ItemImport) blueprint.Item {
	item := blueprint.Item{ID: id, Name: imp.Name}
	switch v := imp.IconID.(type) {
	case string:
		item.IconID = v
	case float64:
		item.IconID = fmt.Sprintf("%.0f", v)
	}
	return item
}
