// Package blueprint contains the core types for the blueprint cost server.
package blueprint

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================
// CATALOG TYPES
// ============================================

// Blueprint is a manufacturable item's recipe record.
type Blueprint struct {
	Name            string             `json:"name"`
	Type            string             `json:"type"`
	TechLevel       int                `json:"techLevel"`
	ProductionCost  float64            `json:"productionCost"`
	ProductionTime  float64            `json:"productionTime"` // seconds
	ProductionCount int                `json:"productionCount"`
	Resources       map[string]float64 `json:"-"` // resource key -> raw quantity
}

// Quantity returns the raw quantity of a resource key, 0 when absent.
func (b *Blueprint) Quantity(key string) float64 {
	if b.Resources == nil {
		return 0
	}
	return b.Resources[key]
}

// HasAny reports whether any of the keys has a positive quantity.
func (b *Blueprint) HasAny(keys []string) bool {
	for _, k := range keys {
		if b.Quantity(k) > 0 {
			return true
		}
	}
	return false
}

// UnmarshalJSON reads the flat dataset layout where resource quantities sit
// next to the descriptive fields.
func (b *Blueprint) UnmarshalJSON(data []byte) error {
	type plain Blueprint
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Resources = make(map[string]float64)
	for _, key := range AllResourceKeys() {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			continue
		}
		var qty float64
		if err := json.Unmarshal(v, &qty); err != nil {
			return fmt.Errorf("resource %s: %w", key, err)
		}
		if qty != 0 {
			p.Resources[key] = qty
		}
	}

	*b = Blueprint(p)
	return nil
}

// MarshalJSON writes the flat dataset layout.
func (b Blueprint) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"name":            b.Name,
		"type":            b.Type,
		"techLevel":       b.TechLevel,
		"productionCost":  b.ProductionCost,
		"productionTime":  b.ProductionTime,
		"productionCount": b.ProductionCount,
	}
	for k, v := range b.Resources {
		out[k] = v
	}
	return json.Marshal(out)
}

// Item holds display metadata for an in-game item.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IconID string `json:"icon_id"`
}

// ============================================
// SKILL TYPES
// ============================================

// MaxSkillLevel is the highest trainable level of a manufacturing skill.
const MaxSkillLevel = 5

// SkillLevels holds the basic, advanced and expert manufacturing skill levels.
type SkillLevels struct {
	Basic    int `json:"basic"`
	Advanced int `json:"advanced"`
	Expert   int `json:"expert"`
}

// Clamp returns the levels limited to [0, MaxSkillLevel].
func (s SkillLevels) Clamp() SkillLevels {
	return SkillLevels{
		Basic:    clampLevel(s.Basic),
		Advanced: clampLevel(s.Advanced),
		Expert:   clampLevel(s.Expert),
	}
}

func clampLevel(l int) int {
	if l < 0 {
		return 0
	}
	if l > MaxSkillLevel {
		return MaxSkillLevel
	}
	return l
}

// Modifiers are the multipliers derived from skill levels.
type Modifiers struct {
	Material float64 `json:"material"`
	Time     float64 `json:"time"`
}

// ============================================
// MARKET TYPES
// ============================================

// PriceQuote is a point-in-time market snapshot for one item.
type PriceQuote struct {
	Sell       float64   `json:"sell"`
	LowestSell float64   `json:"lowest_sell"`
	Buy        float64   `json:"buy"`
	HighestBuy float64   `json:"highest_buy"`
	Time       time.Time `json:"time"`
	Volume     int64     `json:"volume"`
}

// MarketItem is the market history of one item.
type MarketItem struct {
	ItemID string       `json:"item_id"`
	Name   string       `json:"name"`
	Stats  []PriceQuote `json:"stats"`
}

// LatestValid returns the newest snapshot with positive sell and buy prices
// recorded no earlier than maxAge before now. A zero maxAge disables the age
// check. Returns nil when no snapshot qualifies.
func (m *MarketItem) LatestValid(now time.Time, maxAge time.Duration) *PriceQuote {
	if m == nil {
		return nil
	}
	var best *PriceQuote
	for i := range m.Stats {
		q := &m.Stats[i]
		if q.Sell <= 0 || q.Buy <= 0 {
			continue
		}
		if maxAge > 0 && now.Sub(q.Time) > maxAge {
			continue
		}
		if best == nil || q.Time.After(best.Time) {
			best = q
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// ============================================
// RESPONSE TYPES
// ============================================

// Field is one titled section of a rendered message.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is the rendered response handed to the chat layer.
type Message struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Color        string  `json:"color"`
	Author       string  `json:"author,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Fields       []Field `json:"fields"`
}

// AddField appends a section.
func (m *Message) AddField(name, value string) {
	m.Fields = append(m.Fields, Field{Name: name, Value: value})
}

// ============================================
// REQUEST/RESPONSE TYPES
// ============================================

// LookupRequest is the input for a blueprint lookup.
type LookupRequest struct {
	Query  string `json:"query"`
	Mobile bool   `json:"mobile"`
}

// SearchRequest is the input for a ranked catalog search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchHit is one ranked catalog match.
type SearchHit struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	TechLevel int     `json:"tech_level"`
	Score     float64 `json:"score"`
}

// SearchResponse is the output for a ranked catalog search.
type SearchResponse struct {
	Query string      `json:"query"`
	Hits  []SearchHit `json:"hits"`
}
