// Package synthesis merges a normalized model estimate with oracle pricing
// into the final quote: category reconciliation, zero-cost substitution,
// total recomputation, regional stamping, and confidence adjustment.
package synthesis

import (
	"log/slog"
	"math"
	"strings"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/pricing"
)

// Confidence adjustments applied during synthesis.
const (
	// degradedPenalty lowers confidence for estimates recovered through
	// scalar extraction.
	degradedPenalty = 0.1

	// visionBonus raises confidence for estimates informed by photos.
	visionBonus = 0.05
)

// divergenceTolerance is the relative gap between the model-reported total
// and the breakdown-recomputed total beyond which the recomputed total
// replaces the reported one.
const divergenceTolerance = 0.15

// Synthesizer finalizes normalized estimates against the pricing oracle.
type Synthesizer struct {
	oracle *pricing.Oracle
	logger *slog.Logger
}

// New creates a synthesizer backed by the given oracle.
func New(oracle *pricing.Oracle) *Synthesizer {
	return &Synthesizer{
		oracle: oracle,
		logger: slog.Default().With("component", "synthesis"),
	}
}

// Synthesize reconciles the estimate in place and returns it.
// The pass is deterministic: the same estimate and zip always produce the
// same result modulo oracle cache age.
//
// The model-reported total is retained when it agrees with the recomputed
// line-item sum within the divergence tolerance; only a larger mismatch
// replaces it with the recomputed range, recorded as a warning.
func (s *Synthesizer) Synthesize(est *domain.NormalizedEstimate, req *domain.EstimateRequest) *domain.NormalizedEstimate {
	region, mult := pricing.RegionFor(req.ZipCode)
	est.RequestID = req.ID
	est.Regional = domain.RegionalData{Multiplier: mult, Region: region}

	s.reconcileItems(est, req.ZipCode)
	s.reconcileTotal(est)
	s.adjustConfidence(est)

	if err := est.Validate(); err != nil {
		// Repair rather than fail: ordering problems were fixed upstream,
		// so the only reachable violation is a negative bound from a
		// hostile payload.
		s.logger.Warn("estimate failed validation after synthesis, clamping",
			"request_id", req.ID, "error", err)
		clampNonNegative(est)
	}
	return est
}

// reconcileItems maps free-text categories onto the closed set and
// substitutes oracle pricing for items the model left unpriced.
func (s *Synthesizer) reconcileItems(est *domain.NormalizedEstimate, zip string) {
	substituted := 0
	for i := range est.Breakdown {
		item := &est.Breakdown[i]
		item.Category = string(Categorize(item.Category))

		if item.CostLow == 0 && item.CostHigh == 0 {
			if s.substitute(item, zip) {
				substituted++
			}
		} else if item.CostLow > item.CostHigh {
			item.CostLow, item.CostHigh = item.CostHigh, item.CostLow
		}
	}
	if substituted > 0 {
		est.AddWarning("some line items were priced from regional tables instead of model output")
		s.logger.Info("substituted oracle prices", "items", substituted, "zip", zip)
	}
}

// substitute fills a zero-cost item from the oracle. Labor items resolve
// through the labor-rate table; everything else through the material table.
func (s *Synthesizer) substitute(item *domain.LineItem, zip string) bool {
	name := item.Item
	if name == "" {
		name = item.Description
	}
	if name == "" {
		return false
	}

	var r domain.CostRange
	if domain.CostCategory(item.Category) == domain.CategoryLabor {
		r = s.oracle.LaborRateFor(name, zip).Range
	} else {
		r = s.oracle.PriceFor(name, zip).Range
	}
	if r.IsZero() {
		return false
	}
	item.CostLow, item.CostHigh = r.Low, r.High
	return true
}

// reconcileTotal recomputes the total from the breakdown and replaces the
// model-reported total when the two diverge beyond tolerance. Degraded
// estimates carry no breakdown and keep their extracted total untouched.
func (s *Synthesizer) reconcileTotal(est *domain.NormalizedEstimate) {
	if len(est.Breakdown) == 0 {
		return
	}

	var sum domain.CostRange
	for _, item := range est.Breakdown {
		if item.Optional {
			continue
		}
		sum = sum.Add(item.Total())
	}
	if sum.IsZero() {
		return
	}

	if est.TotalCost.IsZero() {
		est.TotalCost = sum
		return
	}

	reported := est.TotalCost.Mid()
	recomputed := sum.Mid()
	if reported > 0 && math.Abs(recomputed-reported)/reported > divergenceTolerance {
		s.logger.Info("total diverges from breakdown, using recomputed",
			"reported", reported, "recomputed", recomputed)
		est.TotalCost = sum
		est.AddWarning("reported total diverged from line-item sum; total recomputed from breakdown")
	}
}

// adjustConfidence applies the degraded-parse penalty and vision bonus,
// clamped to [0, 1].
func (s *Synthesizer) adjustConfidence(est *domain.NormalizedEstimate) {
	c := est.Confidence
	if est.DegradedParse {
		c -= degradedPenalty
	}
	if est.UsedVision {
		c += visionBonus
	}
	est.Confidence = math.Min(1, math.Max(0, c))
}

// categorySynonyms maps lowercase free-text category labels onto the
// closed set. Matching is by whole-word containment so "Labor Costs" and
// "skilled labour" both resolve to Labor.
var categorySynonyms = map[string]domain.CostCategory{
	"labor":        domain.CategoryLabor,
	"labour":       domain.CategoryLabor,
	"installation": domain.CategoryLabor,
	"workmanship":  domain.CategoryLabor,
	"demolition":   domain.CategoryLabor,
	"material":     domain.CategoryMaterials,
	"materials":    domain.CategoryMaterials,
	"fixture":      domain.CategoryMaterials,
	"fixtures":     domain.CategoryMaterials,
	"supplies":     domain.CategoryMaterials,
	"appliances":   domain.CategoryMaterials,
	"permit":       domain.CategoryPermits,
	"permits":      domain.CategoryPermits,
	"inspection":   domain.CategoryPermits,
	"fees":         domain.CategoryPermits,
	"design":       domain.CategoryDesign,
	"architect":    domain.CategoryDesign,
	"architecture": domain.CategoryDesign,
	"contingency":  domain.CategoryContingency,
	"buffer":       domain.CategoryContingency,
	"misc":         domain.CategoryContingency,
	"overhead":     domain.CategoryOverhead,
	"management":   domain.CategoryOverhead,
	"profit":       domain.CategoryOverhead,
}

// Categorize resolves a free-text category label to the closed set.
// Unknown labels default to Materials.
func Categorize(label string) domain.CostCategory {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return domain.CategoryMaterials
	}

	// Exact label first, then word-level lookup.
	if cat, ok := categorySynonyms[normalized]; ok {
		return cat
	}
	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '/' || r == '&' || r == '-' || r == ','
	}) {
		if cat, ok := categorySynonyms[word]; ok {
			return cat
		}
	}
	return domain.CategoryMaterials
}

func clampNonNegative(est *domain.NormalizedEstimate) {
	if est.TotalCost.Low < 0 {
		est.TotalCost.Low = 0
	}
	if est.TotalCost.High < est.TotalCost.Low {
		est.TotalCost.High = est.TotalCost.Low
	}
	for i := range est.Breakdown {
		if est.Breakdown[i].CostLow < 0 {
			est.Breakdown[i].CostLow = 0
		}
		if est.Breakdown[i].CostHigh < est.Breakdown[i].CostLow {
			est.Breakdown[i].CostHigh = est.Breakdown[i].CostLow
		}
	}
	if est.Confidence < 0 {
		est.Confidence = 0
	} else if est.Confidence > 1 {
		est.Confidence = 1
	}
}
