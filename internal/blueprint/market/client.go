// Package market fetches item price history from the market stats API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultCacheTTL  = 5 * time.Minute
	DefaultCacheSize = 4096
)

// ItemResolver maps item names to market item ids.
type ItemResolver interface {
	ItemIDByName(name string) (string, bool)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
	// MaxAge bounds how old a usable snapshot may be. Zero disables the check.
	MaxAge time.Duration
	Logger *slog.Logger
}

// Client is a cached market stats API client.
type Client struct {
	http   *resty.Client
	items  ItemResolver
	cache  *expirable.LRU[string, *blueprint.MarketItem]
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// snapshot is one entry of the /market-stats response. Prices are null when
// the market had no orders.
type snapshot struct {
	Time       int64    `json:"time"`
	Sell       *float64 `json:"sell"`
	Buy        *float64 `json:"buy"`
	LowestSell *float64 `json:"lowest_sell"`
	HighestBuy *float64 `json:"highest_buy"`
	Volume     *int64   `json:"volume"`
}

// NewClient creates a market client.
func NewClient(items ItemResolver, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetBaseURL(opts.BaseURL)
	client.SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		items:  items,
		cache:  expirable.NewLRU[string, *blueprint.MarketItem](opts.CacheSize, nil, opts.CacheTTL),
		maxAge: opts.MaxAge,
		now:    time.Now,
		logger: opts.Logger,
	}
}

// MarketData returns the price history of itemName, or nil when the item is
// unknown or the market has no data for it. Misses are cached like hits.
func (c *Client) MarketData(ctx context.Context, itemName string) (*blueprint.MarketItem, error) {
	id, ok := c.items.ItemIDByName(itemName)
	if !ok {
		return nil, nil
	}
	if item, ok := c.cache.Get(id); ok {
		return item, nil
	}

	item, err := c.fetch(ctx, id, itemName)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, item)
	return item, nil
}

func (c *Client) fetch(ctx context.Context, id, itemName string) (*blueprint.MarketItem, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/market-stats/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetching market stats for %s: %w", id, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		c.logger.Debug("no market data", "item_id", id, "item", itemName)
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("fetching market stats for %s: status %d", id, resp.StatusCode())
	}

	var snaps []snapshot
	if err := json.Unmarshal(resp.Body(), &snaps); err != nil {
		return nil, fmt.Errorf("decoding market stats for %s: %w", id, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	item := &blueprint.MarketItem{ItemID: id, Name: itemName, Stats: make([]blueprint.PriceQuote, 0, len(snaps))}
	for _, s := range snaps {
		item.Stats = append(item.Stats, s.quote())
	}
	return item, nil
}

func (s snapshot) quote() blueprint.PriceQuote {
	q := blueprint.PriceQuote{
		Sell:       deref(s.Sell),
		Buy:        deref(s.Buy),
		LowestSell: deref(s.LowestSell),
		HighestBuy: deref(s.HighestBuy),
		Time:       time.Unix(s.Time, 0),
	}
	if s.Volume != nil {
		q.Volume = *s.Volume
	}
	return q
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// LatestValidPrice selects the newest snapshot with positive sell and buy
// prices that is within the configured max age.
func (c *Client) LatestValidPrice(item *blueprint.MarketItem) *blueprint.PriceQuote {
	return item.LatestValid(c.now(), c.maxAge)
}

// Purge drops every cached entry.
func (c *Client) Purge() {
	c.cache.Purge()
}
