package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type itemIDs map[string]string

func (m itemIDs) ItemIDByName(name string) (string, bool) {
	id, ok := m[name]
	return id, ok
}

const tritaniumStats = `[
  {"time": 1700000000, "sell": 6, "buy": 4, "lowest_sell": 5.5, "highest_buy": 4.5, "volume": 1000},
  {"time": 1700003600, "sell": 7, "buy": null, "lowest_sell": 6, "highest_buy": null, "volume": 10},
  {"time": 1699990000, "sell": 5, "buy": 3, "lowest_sell": 4, "highest_buy": 3.5, "volume": 700}
]`

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch strings.TrimPrefix(r.URL.Path, "/market-stats/") {
		case "34":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(tritaniumStats))
		case "35":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		case "500":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, maxAge time.Duration) *Client {
	items := itemIDs{"Tritanium": "34", "Pyerite": "35", "Broken": "500", "Unlisted": "99"}
	return NewClient(items, Options{BaseURL: srv.URL, Timeout: 2 * time.Second, MaxAge: maxAge})
}

func TestMarketDataDecodesNullablePrices(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits), 0)

	item, err := c.MarketData(context.Background(), "Tritanium")
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Equal(t, "34", item.ItemID)
	require.Equal(t, "Tritanium", item.Name)
	require.Len(t, item.Stats, 3)
	require.Equal(t, 0.0, item.Stats[1].Buy)
	require.Equal(t, int64(1000), item.Stats[0].Volume)

	q := c.LatestValidPrice(item)
	require.NotNil(t, q)
	require.Equal(t, 6.0, q.Sell)
	require.Equal(t, 4.0, q.Buy)
	require.Equal(t, time.Unix(1700000000, 0), q.Time)
}

func TestMarketDataCachesHitsAndMisses(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits), 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.MarketData(ctx, "Tritanium")
		require.NoError(t, err)
		item, err := c.MarketData(ctx, "Unlisted")
		require.NoError(t, err)
		require.Nil(t, item)
	}
	require.Equal(t, int32(2), hits.Load())

	c.Purge()
	_, err := c.MarketData(ctx, "Tritanium")
	require.NoError(t, err)
	require.Equal(t, int32(3), hits.Load())
}

func TestMarketDataMisses(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits), 0)
	ctx := context.Background()

	item, err := c.MarketData(ctx, "No Such Item")
	require.NoError(t, err)
	require.Nil(t, item)
	require.Equal(t, int32(0), hits.Load())

	item, err = c.MarketData(ctx, "Pyerite")
	require.NoError(t, err)
	require.Nil(t, item)
}

func TestMarketDataServerError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits), 0)

	item, err := c.MarketData(context.Background(), "Broken")
	require.Error(t, err)
	require.Nil(t, item)

	// Errors are not cached.
	_, err = c.MarketData(context.Background(), "Broken")
	require.Error(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestLatestValidPriceMaxAge(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits), time.Hour)
	c.now = func() time.Time { return time.Unix(1700000000, 0).Add(2 * time.Hour) }

	item, err := c.MarketData(context.Background(), "Tritanium")
	require.NoError(t, err)
	require.Nil(t, c.LatestValidPrice(item))

	c.now = func() time.Time { return time.Unix(1700000000, 0).Add(30 * time.Minute) }
	q := c.LatestValidPrice(item)
	require.NotNil(t, q)
	require.Equal(t, 4.0, q.Buy)
}
