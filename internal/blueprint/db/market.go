package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// MarketStore serves imported market snapshots. It satisfies the same lookup
// contract as the HTTP market client so the server can run offline.
type MarketStore struct {
	db     *DB
	maxAge time.Duration
	now    func() time.Time
}

// NewMarketStore creates a new MarketStore. A zero maxAge accepts snapshots of
// any age.
func NewMarketStore(db *DB, maxAge time.Duration) *MarketStore {
	return &MarketStore{db: db, maxAge: maxAge, now: time.Now}
}

// MarketSnapshot represents a single price record for import.
type MarketSnapshot struct {
	ItemID     string
	ItemName   string
	Time       time.Time
	Sell       *float64
	LowestSell *float64
	Buy        *float64
	HighestBuy *float64
	Volume     int64
}

// MarketData returns the stored history of the named item, or nil when the
// item has no snapshots.
func (s *MarketStore) MarketData(ctx context.Context, itemName string) (*blueprint.MarketItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, item_name, recorded_at,
			COALESCE(sell, 0), COALESCE(lowest_sell, 0),
			COALESCE(buy, 0), COALESCE(highest_buy, 0), volume
		FROM market_snapshots
		WHERE name_key = ?
		ORDER BY recorded_at
	`, blueprint.NameKey(itemName))
	if err != nil {
		return nil, fmt.Errorf("querying market snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var item *blueprint.MarketItem
	for rows.Next() {
		var id, name string
		var ts int64
		var q blueprint.PriceQuote
		if err := rows.Scan(&id, &name, &ts, &q.Sell, &q.LowestSell, &q.Buy, &q.HighestBuy, &q.Volume); err != nil {
			return nil, fmt.Errorf("scanning market snapshot: %w", err)
		}
		q.Time = time.Unix(ts, 0).UTC()
		if item == nil {
			item = &blueprint.MarketItem{ItemID: id, Name: name}
		}
		item.Stats = append(item.Stats, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return item, nil
}

// LatestValidPrice selects the newest usable snapshot of item.
func (s *MarketStore) LatestValidPrice(item *blueprint.MarketItem) *blueprint.PriceQuote {
	return item.LatestValid(s.now(), s.maxAge)
}

// ImportSnapshots imports market snapshots.
func (s *MarketStore) ImportSnapshots(ctx context.Context, data []MarketSnapshot) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO market_snapshots
			(item_id, item_name, name_key, recorded_at, sell, lowest_sell, buy, highest_buy, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, d := range data {
			_, err := stmt.ExecContext(ctx,
				d.ItemID, d.ItemName, blueprint.NameKey(d.ItemName), d.Time.Unix(),
				d.Sell, d.LowestSell, d.Buy, d.HighestBuy, d.Volume,
			)
			if err != nil {
				return fmt.Errorf("inserting snapshot for %s: %w", d.ItemID, err)
			}
		}

		return nil
	})
}

// PruneOldSnapshots removes snapshots recorded before the cutoff.
func (s *MarketStore) PruneOldSnapshots(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM market_snapshots WHERE recorded_at < ?
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning old snapshots: %w", err)
	}
	return result.RowsAffected()
}

// ClearMarketData removes all market data.
func (s *MarketStore) ClearMarketData(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM market_snapshots`)
	if err != nil {
		return fmt.Errorf("clearing market data: %w", err)
	}
	return nil
}
