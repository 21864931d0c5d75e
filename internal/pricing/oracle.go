// Package pricing implements the regional pricing oracle: static base-price
// and labor-rate tables, a zip-to-region multiplier resolution, and a TTL
// cache of resolved lookups. The oracle is a pure function of
// (item, location) with no network dependency.
package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/renoquote/renoquote/internal/domain"
)

// Confidence levels attached to oracle quotes.
const (
	// TableHitConfidence applies when the item matched a table entry.
	TableHitConfidence = 0.85

	// FallbackConfidence applies to the documented generic default
	// returned when no table entry matches.
	FallbackConfidence = 0.5
)

// DefaultTTL bounds the age of cached lookups.
const DefaultTTL = time.Hour

// Quote is a resolved, regionally adjusted price for a single item.
type Quote struct {
	Item       string           `json:"item"`
	Price      float64          `json:"price"`
	Range      domain.CostRange `json:"range"`
	Unit       string           `json:"unit"`
	Confidence float64          `json:"confidence"`
}

// LaborQuote is a resolved, regionally adjusted hourly rate for a trade.
type LaborQuote struct {
	Trade string           `json:"trade"`
	Rate  float64          `json:"rate"`
	Range domain.CostRange `json:"range"`
}

// Context summarizes regional pricing for prompt enrichment and synthesis.
type Context struct {
	ZipCode    string             `json:"zip_code,omitempty"`
	Region     string             `json:"region"`
	Multiplier float64            `json:"multiplier"`
	LaborRates map[string]float64 `json:"labor_rates"`
}

// Oracle resolves item and labor prices against the static tables with
// regional adjustment and TTL caching. Safe for concurrent use; the only
// lock is the cache's RWMutex, held briefly and never nested.
type Oracle struct {
	cache *quoteCache
}

// NewOracle creates an oracle with the given cache TTL.
// A non-positive TTL falls back to DefaultTTL.
func NewOracle(ttl time.Duration) *Oracle {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Oracle{cache: newQuoteCache(ttl)}
}

// PriceFor resolves a material or fixture price for a location.
// A cache hit younger than the TTL short-circuits the lookup; otherwise
// the result is recomputed from the static tables and the cache entry is
// overwritten. Unknown items return the documented generic default with
// reduced confidence.
func (o *Oracle) PriceFor(itemName, zip string) Quote {
	key := cacheKey("material", itemName, zip)
	if q, ok := o.cache.get(key); ok {
		return q
	}

	e, matched := match(materialTable, itemName)
	if !matched {
		e = genericMaterial
	}

	_, mult := RegionFor(zip)

	q := Quote{
		Item:       normalizeName(itemName),
		Price:      applyMultiplier(e.Base, mult),
		Range:      rangeWithMultiplier(e, mult),
		Unit:       e.Unit,
		Confidence: TableHitConfidence,
	}
	if !matched {
		q.Confidence = FallbackConfidence
	}

	o.cache.put(key, q)
	return q
}

// LaborRateFor resolves an hourly labor rate for a trade and location.
// Resolution and caching follow the same rules as PriceFor.
func (o *Oracle) LaborRateFor(trade, zip string) LaborQuote {
	key := cacheKey("labor", trade, zip)
	if q, ok := o.cache.get(key); ok {
		return LaborQuote{Trade: q.Item, Rate: q.Price, Range: q.Range}
	}

	e, matched := match(laborTable, trade)
	if !matched {
		e = genericLabor
	}

	_, mult := RegionFor(zip)

	q := Quote{
		Item:       normalizeName(trade),
		Price:      applyMultiplier(e.Base, mult),
		Range:      rangeWithMultiplier(e, mult),
		Unit:       e.Unit,
		Confidence: TableHitConfidence,
	}
	if !matched {
		q.Confidence = FallbackConfidence
	}

	o.cache.put(key, q)
	return LaborQuote{Trade: q.Item, Rate: q.Price, Range: q.Range}
}

// Context builds the pricing summary embedded into model prompts and used
// by the synthesizer for regional adjustment.
func (o *Oracle) Context(zip string) Context {
	region, mult := RegionFor(zip)
	rates := make(map[string]float64, 4)
	for _, trade := range []string{"general contractor", "plumber", "electrician", "carpenter"} {
		rates[trade] = o.LaborRateFor(trade, zip).Rate
	}
	return Context{
		ZipCode:    zip,
		Region:     region,
		Multiplier: mult,
		LaborRates: rates,
	}
}

// match finds the table entry for a free-text name using case-insensitive
// substring comparison. Where multiple entries match, the longest table
// name wins; remaining ties resolve to table order.
func match(table []baseEntry, name string) (baseEntry, bool) {
	needle := normalizeName(name)
	if needle == "" {
		return baseEntry{}, false
	}

	var best baseEntry
	bestLen := -1
	for _, e := range table {
		if !strings.Contains(needle, e.Name) && !strings.Contains(e.Name, needle) {
			continue
		}
		if len(e.Name) > bestLen {
			best = e
			bestLen = len(e.Name)
		}
	}
	return best, bestLen >= 0
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cacheKey(kind, name, zip string) string {
	return fmt.Sprintf("%s|%s|%s", kind, normalizeName(name), zip)
}

// applyMultiplier scales a base price exactly before converting to float
// at the boundary.
func applyMultiplier(base decimal.Decimal, mult float64) float64 {
	v, _ := base.Mul(decimal.NewFromFloat(mult)).Round(2).Float64()
	return v
}

func rangeWithMultiplier(e baseEntry, mult float64) domain.CostRange {
	return domain.CostRange{
		Low:  applyMultiplier(e.Low, mult),
		High: applyMultiplier(e.High, mult),
	}
}
