package engine

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// CostAccumulator is the running build cost of a single response.
type CostAccumulator struct {
	Cost float64
}

// Add adds v to the running total.
func (a *CostAccumulator) Add(v float64) {
	a.Cost += v
}

// ResourceLine is one required resource of a blueprint.
type ResourceLine struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Priced   bool    `json:"priced"`
	UnitCost float64 `json:"unit_cost,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
}

// GroupCost is a priced resource section.
type GroupCost struct {
	Title    string         `json:"title"`
	Lines    []ResourceLine `json:"lines"`
	Subtotal float64        `json:"subtotal"`
}

// RequiredQuantity is the skill-adjusted amount of a resource, rounded up.
func RequiredQuantity(raw, material float64) int64 {
	if raw <= 0 || material <= 0 {
		return 0
	}
	return int64(math.Ceil(raw * material))
}

// quoteSet holds the price lookups of one request.
type quoteSet struct {
	mu     sync.Mutex
	quotes map[string]*blueprint.PriceQuote // item name -> latest valid quote
	found  map[string]bool                  // item name -> market data resolved
}

func (q *quoteSet) set(name string, found bool, quote *blueprint.PriceQuote) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.found[name] = found
	q.quotes[name] = quote
}

func (q *quoteSet) quote(name string) *blueprint.PriceQuote {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.quotes[name]
}

func (q *quoteSet) resolved(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.found[name]
}

// fetchQuotes looks up every name concurrently. Lookup failures are logged
// and leave the name unresolved; they never fail the request.
func (e *Engine) fetchQuotes(ctx context.Context, reqID string, names []string) *quoteSet {
	qs := &quoteSet{
		quotes: make(map[string]*blueprint.PriceQuote, len(names)),
		found:  make(map[string]bool, len(names)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, name := range names {
		name := name
		g.Go(func() error {
			item, err := e.prices.MarketData(gctx, name)
			if err != nil {
				e.logger.Debug("price lookup failed", "request_id", reqID, "item", name, "error", err)
				qs.set(name, false, nil)
				return nil
			}
			if item == nil {
				qs.set(name, false, nil)
				return nil
			}
			qs.set(name, true, e.prices.LatestValidPrice(item))
			return nil
		})
	}
	_ = g.Wait()

	return qs
}

// quoteNames lists the market names a blueprint needs priced: every nonzero
// resource, the finished item and the blueprint itself.
func quoteNames(bp *blueprint.Blueprint) []string {
	var names []string
	for _, group := range blueprint.ResourceGroups() {
		for _, key := range group.Keys {
			if bp.Quantity(key) > 0 {
				names = append(names, blueprint.DisplayName(key))
			}
		}
	}
	return append(names, bp.Name, blueprintItemName(bp))
}

func blueprintItemName(bp *blueprint.Blueprint) string {
	return bp.Name + " Blueprint"
}

// aggregateGroups prices each non-empty resource group in order and adds the
// group subtotals to total. Groups without any nonzero field are omitted.
func aggregateGroups(bp *blueprint.Blueprint, material float64, qs *quoteSet, total *CostAccumulator) []GroupCost {
	var groups []GroupCost
	for _, group := range blueprint.ResourceGroups() {
		if !bp.HasAny(group.Keys) {
			continue
		}

		gc := GroupCost{Title: group.Title}
		for _, key := range group.Keys {
			raw := bp.Quantity(key)
			if raw <= 0 {
				continue
			}
			line := ResourceLine{
				Key:      key,
				Name:     blueprint.DisplayName(key),
				Quantity: RequiredQuantity(raw, material),
			}
			if q := qs.quote(line.Name); q != nil {
				line.Priced = true
				line.UnitCost = q.Buy
				line.Cost = q.Buy * float64(line.Quantity)
				gc.Subtotal += line.Cost
			}
			gc.Lines = append(gc.Lines, line)
		}

		total.Add(gc.Subtotal)
		groups = append(groups, gc)
	}
	return groups
}
