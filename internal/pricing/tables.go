package pricing

import "github.com/shopspring/decimal"

// baseEntry is one row of the static pricing reference.
// Base and the range bounds are national averages before any regional
// multiplier; Unit documents what the price applies to.
type baseEntry struct {
	Name string
	Base decimal.Decimal
	Low  decimal.Decimal
	High decimal.Decimal
	Unit string
}

func entry(name string, low, base, high float64, unit string) baseEntry {
	return baseEntry{
		Name: name,
		Base: decimal.NewFromFloat(base),
		Low:  decimal.NewFromFloat(low),
		High: decimal.NewFromFloat(high),
		Unit: unit,
	}
}

// materialTable is the static base-price reference for common renovation
// materials and fixtures. Matching is case-insensitive substring with
// longest-match-wins; order breaks remaining ties.
var materialTable = []baseEntry{
	entry("kitchen cabinets", 4000, 8000, 15000, "set"),
	entry("cabinets", 3000, 6500, 13000, "set"),
	entry("granite countertop", 45, 65, 100, "sqft"),
	entry("quartz countertop", 55, 75, 120, "sqft"),
	entry("laminate countertop", 15, 25, 40, "sqft"),
	entry("countertop", 30, 55, 95, "sqft"),
	entry("hardwood flooring", 6, 10, 18, "sqft"),
	entry("tile flooring", 5, 9, 15, "sqft"),
	entry("laminate flooring", 2, 4, 7, "sqft"),
	entry("vinyl flooring", 2, 3.5, 6, "sqft"),
	entry("carpet", 2, 4, 8, "sqft"),
	entry("flooring", 3, 7, 14, "sqft"),
	entry("backsplash", 10, 18, 35, "sqft"),
	entry("subway tile", 7, 13, 25, "sqft"),
	entry("tile", 5, 10, 20, "sqft"),
	entry("paint", 2, 3.5, 6, "sqft"),
	entry("drywall", 1.5, 2.5, 4, "sqft"),
	entry("insulation", 1, 2, 4, "sqft"),
	entry("refrigerator", 800, 1800, 4000, "unit"),
	entry("range", 600, 1400, 3500, "unit"),
	entry("dishwasher", 400, 800, 1800, "unit"),
	entry("appliances", 2000, 4500, 10000, "set"),
	entry("kitchen sink", 200, 450, 1000, "unit"),
	entry("sink", 150, 350, 800, "unit"),
	entry("faucet", 100, 250, 600, "unit"),
	entry("bathtub", 400, 1200, 3500, "unit"),
	entry("walk-in shower", 1500, 3500, 8000, "unit"),
	entry("shower", 800, 2000, 5000, "unit"),
	entry("toilet", 150, 350, 800, "unit"),
	entry("vanity", 300, 900, 2500, "unit"),
	entry("window", 300, 650, 1500, "unit"),
	entry("exterior door", 400, 900, 2500, "unit"),
	entry("door", 150, 400, 1200, "unit"),
	entry("lighting", 100, 300, 900, "fixture"),
	entry("recessed lighting", 125, 250, 500, "fixture"),
	entry("water heater", 600, 1200, 2500, "unit"),
	entry("hvac", 3000, 7000, 15000, "system"),
}

// laborTable is the static labor-rate reference in dollars per hour.
var laborTable = []baseEntry{
	entry("general contractor", 50, 75, 120, "hour"),
	entry("plumber", 70, 100, 160, "hour"),
	entry("plumbing", 70, 100, 160, "hour"),
	entry("electrician", 65, 95, 150, "hour"),
	entry("electrical", 65, 95, 150, "hour"),
	entry("carpenter", 45, 70, 110, "hour"),
	entry("carpentry", 45, 70, 110, "hour"),
	entry("painter", 30, 50, 80, "hour"),
	entry("painting", 30, 50, 80, "hour"),
	entry("tile setter", 40, 65, 100, "hour"),
	entry("tiling", 40, 65, 100, "hour"),
	entry("hvac technician", 75, 110, 170, "hour"),
	entry("roofer", 45, 70, 110, "hour"),
	entry("demolition", 30, 45, 75, "hour"),
	entry("drywall installer", 35, 55, 90, "hour"),
	entry("flooring installer", 35, 60, 95, "hour"),
}

// Generic fallbacks returned when no table entry matches.
// Confidence on these is documented lower than table hits.
var (
	genericMaterial = entry("generic material", 10, 25, 60, "unit")
	genericLabor    = entry("general labor", 40, 65, 105, "hour")
)
