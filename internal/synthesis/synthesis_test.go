package synthesis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/pricing"
)

func newSynth() *Synthesizer {
	return New(pricing.NewOracle(time.Hour))
}

func caRequest(t *testing.T) *domain.EstimateRequest {
	t.Helper()
	req, err := domain.NewEstimateRequest(domain.RoomKitchen, 180, domain.TierStandard)
	require.NoError(t, err)
	req.ZipCode = "90210"
	return req
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		label string
		want  domain.CostCategory
	}{
		{"Labor", domain.CategoryLabor},
		{"labour", domain.CategoryLabor},
		{"Labor Costs", domain.CategoryLabor},
		{"installation", domain.CategoryLabor},
		{"Demolition", domain.CategoryLabor},
		{"Materials", domain.CategoryMaterials},
		{"fixtures & appliances", domain.CategoryMaterials},
		{"Permits", domain.CategoryPermits},
		{"inspection fees", domain.CategoryPermits},
		{"Design", domain.CategoryDesign},
		{"architect services", domain.CategoryDesign},
		{"Contingency", domain.CategoryContingency},
		{"misc buffer", domain.CategoryContingency},
		{"Overhead", domain.CategoryOverhead},
		{"profit margin", domain.CategoryOverhead},
		{"", domain.CategoryMaterials},
		{"something unheard of", domain.CategoryMaterials},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.label))
		})
	}
}

func TestSynthesize_StampsRegionalData(t *testing.T) {
	est := &domain.NormalizedEstimate{
		TotalCost:  domain.CostRange{Low: 10000, High: 15000},
		Timeline:   domain.Timeline{DaysLow: 10, DaysHigh: 20},
		Confidence: 0.85,
	}

	req := caRequest(t)
	out := newSynth().Synthesize(est, req)

	assert.Equal(t, req.ID, out.RequestID)
	assert.Equal(t, "CA", out.Regional.Region)
	assert.Equal(t, 1.35, out.Regional.Multiplier)
}

func TestSynthesize_MapsCategories(t *testing.T) {
	est := &domain.NormalizedEstimate{
		TotalCost: domain.CostRange{Low: 1000, High: 2000},
		Breakdown: []domain.LineItem{
			{Category: "labour", Item: "framing", CostLow: 500, CostHigh: 900},
			{Category: "shiny things", Item: "hardware", CostLow: 500, CostHigh: 1100},
		},
		Timeline:   domain.Timeline{DaysLow: 5, DaysHigh: 10},
		Confidence: 0.85,
	}

	out := newSynth().Synthesize(est, caRequest(t))

	assert.Equal(t, string(domain.CategoryLabor), out.Breakdown[0].Category)
	assert.Equal(t, string(domain.CategoryMaterials), out.Breakdown[1].Category)
}

func TestSynthesize_SubstitutesOraclePricesForZeroCostItems(t *testing.T) {
	est := &domain.NormalizedEstimate{
		TotalCost: domain.CostRange{Low: 100, High: 200},
		Breakdown: []domain.LineItem{
			{Category: "Materials", Item: "hardwood flooring", Quantity: 1},
			{Category: "Labor", Item: "plumber", Quantity: 1},
		},
		Timeline:   domain.Timeline{DaysLow: 5, DaysHigh: 10},
		Confidence: 0.85,
	}

	out := newSynth().Synthesize(est, caRequest(t))

	// Regionally adjusted table ranges fill the blanks.
	assert.Equal(t, 8.1, out.Breakdown[0].CostLow)
	assert.Equal(t, 24.3, out.Breakdown[0].CostHigh)
	assert.Equal(t, 94.5, out.Breakdown[1].CostLow)
	assert.Equal(t, 216.0, out.Breakdown[1].CostHigh)
	assert.NotEmpty(t, out.Warnings)
}

func TestSynthesize_RecomputesDivergentTotal(t *testing.T) {
	est := &domain.NormalizedEstimate{
		// Reported total far below the line-item sum.
		TotalCost: domain.CostRange{Low: 1000, High: 1500},
		Breakdown: []domain.LineItem{
			{Category: "Labor", Item: "crew", Quantity: 1, CostLow: 4000, CostHigh: 6000},
			{Category: "Materials", Item: "cabinets", Quantity: 1, CostLow: 5000, CostHigh: 8000},
		},
		Timeline:   domain.Timeline{DaysLow: 10, DaysHigh: 20},
		Confidence: 0.85,
	}

	out := newSynth().Synthesize(est, caRequest(t))

	assert.Equal(t, domain.CostRange{Low: 9000, High: 14000}, out.TotalCost)
	assert.NotEmpty(t, out.Warnings)
}

func TestSynthesize_KeepsConsistentTotal(t *testing.T) {
	est := &domain.NormalizedEstimate{
		TotalCost: domain.CostRange{Low: 9000, High: 14500},
		Breakdown: []domain.LineItem{
			{Category: "Labor", Item: "crew", Quantity: 1, CostLow: 4000, CostHigh: 6000},
			{Category: "Materials", Item: "cabinets", Quantity: 1, CostLow: 5000, CostHigh: 8000},
		},
		Timeline:   domain.Timeline{DaysLow: 10, DaysHigh: 20},
		Confidence: 0.85,
	}

	out := newSynth().Synthesize(est, caRequest(t))

	// Within tolerance: the reported total stands.
	assert.Equal(t, domain.CostRange{Low: 9000, High: 14500}, out.TotalCost)
}

func TestSynthesize_OptionalItemsExcludedFromTotal(t *testing.T) {
	est := &domain.NormalizedEstimate{
		TotalCost: domain.CostRange{Low: 1000, High: 2000},
		Breakdown: []domain.LineItem{
			{Category: "Materials", Item: "base scope", Quantity: 1, CostLow: 1000, CostHigh: 2000},
			{Category: "Materials", Item: "upgrade", Quantity: 1, CostLow: 50000, CostHigh: 80000, Optional: true},
		},
		Timeline:   domain.Timeline{DaysLow: 5, DaysHigh: 10},
		Confidence: 0.85,
	}

	out := newSynth().Synthesize(est, caRequest(t))
	assert.Equal(t, domain.CostRange{Low: 1000, High: 2000}, out.TotalCost)
}

func TestSynthesize_DegradedEstimateKeepsExtractedTotal(t *testing.T) {
	est := &domain.NormalizedEstimate{
		TotalCost:     domain.CostRange{Low: 5000, High: 9000},
		Breakdown:     []domain.LineItem{},
		Timeline:      domain.Timeline{DaysLow: 14, DaysHigh: 45},
		Confidence:    0.7,
		DegradedParse: true,
	}

	out := newSynth().Synthesize(est, caRequest(t))

	assert.Equal(t, domain.CostRange{Low: 5000, High: 9000}, out.TotalCost)
	assert.InDelta(t, 0.6, out.Confidence, 1e-9)
}

func TestSynthesize_ConfidenceAdjustments(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		degraded bool
		vision   bool
		want     float64
	}{
		{"plain", 0.85, false, false, 0.85},
		{"vision_bonus", 0.85, false, true, 0.9},
		{"degraded_penalty", 0.7, true, false, 0.6},
		{"both_adjustments", 0.7, true, true, 0.65},
		{"clamped_at_one", 0.98, false, true, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &domain.NormalizedEstimate{
				TotalCost:     domain.CostRange{Low: 100, High: 200},
				Timeline:      domain.Timeline{DaysLow: 1, DaysHigh: 2},
				Confidence:    tt.base,
				DegradedParse: tt.degraded,
				UsedVision:    tt.vision,
			}
			out := newSynth().Synthesize(est, caRequest(t))
			assert.InDelta(t, tt.want, out.Confidence, 1e-9)
		})
	}
}
