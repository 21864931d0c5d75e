package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Domain validation errors.
var (
	ErrInvalidRoomType    = errors.New("invalid room type")
	ErrInvalidQualityTier = errors.New("invalid quality tier")
	ErrInvalidCostRange   = errors.New("cost range low exceeds high")
	ErrInvalidConfidence  = errors.New("confidence must be in [0,1]")
)

// CostCategory is the fixed set of line-item buckets every estimate is
// aggregated into. The set is closed: normalization maps free-text model
// categories onto these values and never invents new ones.
type CostCategory string

const (
	CategoryLabor       CostCategory = "Labor"
	CategoryMaterials   CostCategory = "Materials"
	CategoryPermits     CostCategory = "Permits"
	CategoryDesign      CostCategory = "Design"
	CategoryContingency CostCategory = "Contingency"
	CategoryOverhead    CostCategory = "Overhead"
)

// AllCategories returns the closed category set in aggregation order.
func AllCategories() []CostCategory {
	return []CostCategory{
		CategoryLabor, CategoryMaterials, CategoryPermits,
		CategoryDesign, CategoryContingency, CategoryOverhead,
	}
}

// CostRange is an inclusive low/high dollar interval.
// Every range in the system maintains Low <= High.
type CostRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Valid reports whether the range is well-formed.
func (c CostRange) Valid() bool {
	return c.Low >= 0 && c.Low <= c.High
}

// Add returns the component-wise sum of two ranges.
func (c CostRange) Add(o CostRange) CostRange {
	return CostRange{Low: c.Low + o.Low, High: c.High + o.High}
}

// Scale returns the range multiplied by a non-negative factor.
func (c CostRange) Scale(f float64) CostRange {
	return CostRange{Low: c.Low * f, High: c.High * f}
}

// Mid returns the midpoint of the range.
func (c CostRange) Mid() float64 { return (c.Low + c.High) / 2 }

// IsZero reports whether both bounds are zero.
func (c CostRange) IsZero() bool { return c.Low == 0 && c.High == 0 }

func (c CostRange) String() string {
	return fmt.Sprintf("$%.2f-$%.2f", c.Low, c.High)
}

// LineItem is a single priced entry in an estimate breakdown.
// JSON field names follow the documented response contract.
type LineItem struct {
	Category    string  `json:"category"`
	Item        string  `json:"item"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	CostLow     float64 `json:"costLow"`
	CostHigh    float64 `json:"costHigh"`
	Optional    bool    `json:"optional,omitempty"`
}

// Cost returns the item's unit cost as a range.
func (l LineItem) Cost() CostRange {
	return CostRange{Low: l.CostLow, High: l.CostHigh}
}

// Total returns the item's implied total: quantity times unit cost.
// A zero quantity is treated as one so flat-fee items price correctly.
func (l LineItem) Total() CostRange {
	qty := l.Quantity
	if qty <= 0 {
		qty = 1
	}
	return l.Cost().Scale(qty)
}

// Timeline is the projected schedule for the work.
type Timeline struct {
	DaysLow           int    `json:"daysLow"`
	DaysHigh          int    `json:"daysHigh"`
	RecommendedSeason string `json:"recommendedSeason,omitempty"`
}

// Valid reports whether the timeline is well-formed.
func (t Timeline) Valid() bool {
	return t.DaysLow >= 0 && t.DaysLow <= t.DaysHigh
}

// RegionalData records the location adjustment applied to an estimate.
type RegionalData struct {
	Multiplier float64 `json:"multiplier"`
	Region     string  `json:"region"`
}

// NormalizedEstimate is the canonical caller-facing estimate shape.
// Produced once per request and immutable after synthesis. JSON field names
// follow the documented response contract exactly.
type NormalizedEstimate struct {
	RequestID       string       `json:"requestId,omitempty"`
	TotalCost       CostRange    `json:"totalCost"`
	Breakdown       []LineItem   `json:"breakdown"`
	Timeline        Timeline     `json:"timeline"`
	Notes           string       `json:"notes,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
	Confidence      float64      `json:"confidence"`
	Regional        RegionalData `json:"regionalData"`

	// DegradedParse marks estimates recovered through best-effort scalar
	// extraction rather than strict schema decoding.
	DegradedParse bool `json:"degradedParse,omitempty"`

	// UsedVision marks estimates informed by photo analysis.
	UsedVision bool `json:"usedVision,omitempty"`

	// Model records which model tier produced the raw output.
	Model string `json:"model,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Validate checks the estimate's structural invariants: ordered cost ranges,
// ordered timeline, and bounded confidence.
func (e *NormalizedEstimate) Validate() error {
	if !e.TotalCost.Valid() {
		return fmt.Errorf("%w: total %s", ErrInvalidCostRange, e.TotalCost)
	}
	for i, item := range e.Breakdown {
		if item.CostLow < 0 || item.CostLow > item.CostHigh {
			return fmt.Errorf("%w: item %d (%s)", ErrInvalidCostRange, i, item.Item)
		}
	}
	if !e.Timeline.Valid() {
		return fmt.Errorf("invalid timeline: %d-%d days", e.Timeline.DaysLow, e.Timeline.DaysHigh)
	}
	if e.Confidence < 0 || e.Confidence > 1 || math.IsNaN(e.Confidence) {
		return fmt.Errorf("%w: %f", ErrInvalidConfidence, e.Confidence)
	}
	return nil
}

// AddWarning appends a warning, skipping duplicates.
func (e *NormalizedEstimate) AddWarning(w string) {
	for _, existing := range e.Warnings {
		if existing == w {
			return
		}
	}
	e.Warnings = append(e.Warnings, w)
}

// CategoryTotals sums line-item totals per category.
// Items whose category is not in the closed set are counted as Materials.
func (e *NormalizedEstimate) CategoryTotals() map[CostCategory]CostRange {
	totals := make(map[CostCategory]CostRange)
	for _, item := range e.Breakdown {
		cat := CostCategory(item.Category)
		valid := false
		for _, known := range AllCategories() {
			if cat == known {
				valid = true
				break
			}
		}
		if !valid {
			cat = CategoryMaterials
		}
		totals[cat] = totals[cat].Add(item.Total())
	}
	return totals
}
