// Package engine contains the blueprint lookup business logic.
package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/rsned/blueprint-cost-server/internal/blueprint/catalog"
	"github.com/rsned/blueprint-cost-server/internal/blueprint/query"
	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// DefaultConcurrency bounds parallel price lookups per request.
const DefaultConcurrency = 8

// PriceSource provides market quotes by item name.
type PriceSource interface {
	// MarketData returns the market history of an item, or nil when the
	// market has no data for it.
	MarketData(ctx context.Context, itemName string) (*blueprint.MarketItem, error)
	// LatestValidPrice selects the newest usable snapshot, or nil.
	LatestValidPrice(item *blueprint.MarketItem) *blueprint.PriceQuote
}

// Engine is the main query engine for blueprint lookups.
type Engine struct {
	catalog     *catalog.Catalog
	prices      PriceSource
	logger      *slog.Logger
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConcurrency bounds parallel price lookups. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates a new Engine over a read-only catalog and a price source.
func New(cat *catalog.Catalog, prices PriceSource, opts ...Option) *Engine {
	e := &Engine{
		catalog:     cat,
		prices:      prices,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Catalog returns the catalog the engine searches.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Report is the computed cost breakdown of one lookup, before rendering.
type Report struct {
	Blueprint    *blueprint.Blueprint  `json:"blueprint"`
	Score        float64               `json:"score"`
	Skills       blueprint.SkillLevels `json:"skills"`
	Modifiers    blueprint.Modifiers   `json:"modifiers"`
	Groups       []GroupCost           `json:"groups"`
	BuildTimeMs  int64                 `json:"build_time_ms"`
	TotalCost    float64               `json:"total_cost"`
	Market       *MarketSummary        `json:"market,omitempty"`
	ThumbnailURL string                `json:"thumbnail_url,omitempty"`
}

// MarketSummary holds the finished item and blueprint quotes. It is only set
// when the market knows both.
type MarketSummary struct {
	Item      *blueprint.PriceQuote `json:"item,omitempty"` // nil when no valid snapshot
	Blueprint blueprint.PriceQuote  `json:"blueprint"`      // zero when no valid snapshot
}

// Estimate parses text, resolves the best blueprint, and prices it. It
// returns nil when the text names no known blueprint.
func (e *Engine) Estimate(ctx context.Context, text string) (*Report, error) {
	reqID := uuid.NewString()

	q, ok := query.Parse(text)
	if !ok {
		e.logger.Debug("unparseable query", "request_id", reqID, "query", text)
		return nil, nil
	}

	match, ok := e.catalog.Best(q.Name)
	if !ok {
		e.logger.Debug("no blueprint matched", "request_id", reqID, "name", q.Name)
		return nil, nil
	}
	bp := match.Blueprint
	e.logger.Debug("blueprint matched",
		"request_id", reqID, "name", q.Name, "blueprint", bp.Name, "score", match.Score)

	mods := SkillModifier(q.Skills)
	qs := e.fetchQuotes(ctx, reqID, quoteNames(bp))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var total CostAccumulator
	groups := aggregateGroups(bp, mods.Material, qs, &total)
	total.Add(bp.ProductionCost)

	report := &Report{
		Blueprint:    bp,
		Score:        match.Score,
		Skills:       q.Skills,
		Modifiers:    mods,
		Groups:       groups,
		BuildTimeMs:  int64(math.Ceil(bp.ProductionTime * 1000 * mods.Time)),
		TotalCost:    total.Cost,
		ThumbnailURL: e.catalog.ThumbnailURL(blueprintItemName(bp)),
	}

	if qs.resolved(bp.Name) && qs.resolved(blueprintItemName(bp)) {
		summary := &MarketSummary{Item: qs.quote(bp.Name)}
		if bq := qs.quote(blueprintItemName(bp)); bq != nil {
			summary.Blueprint = *bq
		}
		report.Market = summary
	}

	return report, nil
}

// Respond answers a chat lookup with a rendered message, or nil when nothing
// matched.
func (e *Engine) Respond(ctx context.Context, req blueprint.LookupRequest) (*blueprint.Message, error) {
	report, err := e.Estimate(ctx, req.Query)
	if err != nil || report == nil {
		return nil, err
	}
	return Render(report, req.Mobile), nil
}

// Search returns ranked catalog matches for the name phrase of a query.
func (e *Engine) Search(ctx context.Context, req blueprint.SearchRequest) (*blueprint.SearchResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 10
	}
	resp := &blueprint.SearchResponse{Query: req.Query, Hits: []blueprint.SearchHit{}}

	q, ok := query.Parse(req.Query)
	if !ok {
		return resp, nil
	}
	for _, m := range e.catalog.Search(q.Name) {
		if len(resp.Hits) >= req.Limit {
			break
		}
		resp.Hits = append(resp.Hits, blueprint.SearchHit{
			Name:      m.Blueprint.Name,
			Type:      m.Blueprint.Type,
			TechLevel: m.Blueprint.TechLevel,
			Score:     m.Score,
		})
	}
	return resp, ctx.Err()
}
