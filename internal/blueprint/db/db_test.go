package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenAndInit(context.Background(), filepath.Join(t.TempDir(), "bp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestBlueprintStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewBlueprintStore(openTestDB(t))

	bps := []blueprint.Blueprint{
		{
			Name: "rifter", Type: "Frigate", TechLevel: 1,
			ProductionCost: 12000, ProductionTime: 3600, ProductionCount: 10,
			Resources: map[string]float64{"tritanium": 1000, "pyerite": 250},
		},
		{
			Name: "afterburner i", Type: "Module", TechLevel: 1,
			Resources: map[string]float64{"baseMetals": 12},
		},
	}
	require.NoError(t, store.BulkInsertBlueprints(ctx, bps))

	count, err := store.CountBlueprints(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	all, err := store.GetAllBlueprints(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "rifter", all[0].Name, "import order preserved")
	require.Equal(t, 1000.0, all[0].Quantity("tritanium"))
	require.Equal(t, 12.0, all[1].Quantity("baseMetals"))

	got, err := store.GetBlueprint(ctx, "rifter")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 10, got.ProductionCount)
	require.Equal(t, 250.0, got.Quantity("pyerite"))

	missing, err := store.GetBlueprint(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, store.ClearBlueprints(ctx))
	count, err = store.CountBlueprints(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestItemStore(t *testing.T) {
	ctx := context.Background()
	store := NewItemStore(openTestDB(t))

	require.NoError(t, store.BulkInsertItems(ctx, []blueprint.Item{
		{ID: "100", Name: "Rifter Blueprint", IconID: "icon-100"},
		{ID: "200", Name: "Tritanium", IconID: "icon-200"},
	}))

	it, err := store.GetItem(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, "icon-100", it.IconID)

	all, err := store.GetAllItems(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	none, err := store.GetItem(ctx, "999")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestMarketStoreLatestValid(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store := NewMarketStore(openTestDB(t), 48*time.Hour)
	store.now = func() time.Time { return now }

	price := func(v float64) *float64 { return &v }
	require.NoError(t, store.ImportSnapshots(ctx, []MarketSnapshot{
		{ItemID: "200", ItemName: "Tritanium", Time: now.Add(-72 * time.Hour), Sell: price(6), Buy: price(5)},
		{ItemID: "200", ItemName: "Tritanium", Time: now.Add(-2 * time.Hour), Sell: price(4), Buy: price(3), Volume: 900},
		{ItemID: "200", ItemName: "Tritanium", Time: now.Add(-1 * time.Hour), Sell: price(4)},
	}))

	item, err := store.MarketData(ctx, "tritanium")
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Len(t, item.Stats, 3)

	q := store.LatestValidPrice(item)
	require.NotNil(t, q)
	require.Equal(t, 3.0, q.Buy, "newest snapshot lacks a buy price")
	require.Equal(t, int64(900), q.Volume)

	missing, err := store.MarketData(ctx, "Morphite")
	require.NoError(t, err)
	require.Nil(t, missing)

	pruned, err := store.PruneOldSnapshots(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)
}

func TestSyncMetadata(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	v, err := database.GetSyncMetadata(ctx, "blueprints_count")
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, database.SetSyncMetadata(ctx, "blueprints_count", "3"))
	require.NoError(t, database.SetSyncMetadata(ctx, "blueprints_count", "4"))
	v, err = database.GetSyncMetadata(ctx, "blueprints_count")
	require.NoError(t, err)
	require.Equal(t, "4", v)
}
