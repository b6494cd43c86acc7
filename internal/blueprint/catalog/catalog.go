// Package catalog holds the read-only blueprint and item catalog with its
// fuzzy name index. A Catalog is built once at startup and shared by every
// request.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rsned/blueprint-cost-server/internal/blueprint/db"
	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// DefaultIconURLTemplate maps an icon id to its image URL.
const DefaultIconURLTemplate = "https://storage.googleapis.com/o7-store/icons/%s.png"

// Catalog is the immutable lookup context for blueprint queries.
type Catalog struct {
	entries []entry
	items   map[string]blueprint.Item
	itemIDs map[string]string // name key -> item id
	iconURL string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithIconURLTemplate sets the fmt template used to build thumbnail URLs.
func WithIconURLTemplate(tmpl string) Option {
	return func(c *Catalog) {
		if tmpl != "" {
			c.iconURL = tmpl
		}
	}
}

// New builds a catalog from blueprint and item records. The slices are
// copied; later changes by the caller are not observed.
func New(bps []blueprint.Blueprint, items []blueprint.Item, opts ...Option) *Catalog {
	c := &Catalog{
		entries: make([]entry, 0, len(bps)),
		items:   make(map[string]blueprint.Item, len(items)),
		itemIDs: make(map[string]string, len(items)),
		iconURL: DefaultIconURLTemplate,
	}
	for _, o := range opts {
		o(c)
	}

	for i := range bps {
		c.entries = append(c.entries, newEntry(cloneBlueprint(bps[i])))
	}

	for _, it := range items {
		c.items[it.ID] = it
		key := blueprint.NameKey(it.Name)
		if key == "" {
			continue
		}
		// First id wins for duplicate names.
		if _, exists := c.itemIDs[key]; !exists {
			c.itemIDs[key] = it.ID
		}
	}

	return c
}

// Load reads the datasets from the database and builds a catalog.
func Load(ctx context.Context, database *db.DB, opts ...Option) (*Catalog, error) {
	bps, err := db.NewBlueprintStore(database).GetAllBlueprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading blueprints: %w", err)
	}
	items, err := db.NewItemStore(database).GetAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	return New(bps, items, opts...), nil
}

// Len returns the number of indexed blueprints.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Item returns the item with the given id.
func (c *Catalog) Item(id string) (blueprint.Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// ItemIDByName resolves an item name, ignoring case and punctuation.
func (c *Catalog) ItemIDByName(name string) (string, bool) {
	id, ok := c.itemIDs[blueprint.NameKey(name)]
	return id, ok
}

// ThumbnailURL returns the icon URL of the named item, or "" when the item or
// its icon is unknown.
func (c *Catalog) ThumbnailURL(itemName string) string {
	id, ok := c.ItemIDByName(itemName)
	if !ok {
		return ""
	}
	it, ok := c.items[id]
	if !ok || it.IconID == "" {
		return ""
	}
	return fmt.Sprintf(c.iconURL, it.IconID)
}

func cloneBlueprint(bp blueprint.Blueprint) blueprint.Blueprint {
	res := make(map[string]float64, len(bp.Resources))
	for k, v := range bp.Resources {
		res[k] = v
	}
	bp.Resources = res
	bp.Name = strings.TrimSpace(bp.Name)
	return bp
}
