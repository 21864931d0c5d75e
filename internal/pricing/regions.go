package pricing

import "strconv"

// zipRange maps an inclusive 3-digit zip prefix range onto a state code.
// Loaded at process start, never mutated.
type zipRange struct {
	Lo    int
	Hi    int
	State string
}

// zipRanges covers the contiguous-US prefix blocks the pipeline prices.
// Prefixes outside every range resolve to the national baseline.
var zipRanges = []zipRange{
	{10, 27, "MA"},
	{60, 69, "CT"},
	{70, 89, "NJ"},
	{100, 149, "NY"},
	{150, 196, "PA"},
	{200, 205, "DC"},
	{206, 219, "MD"},
	{220, 246, "VA"},
	{270, 289, "NC"},
	{300, 319, "GA"},
	{320, 349, "FL"},
	{430, 458, "OH"},
	{480, 499, "MI"},
	{600, 629, "IL"},
	{750, 799, "TX"},
	{800, 816, "CO"},
	{850, 865, "AZ"},
	{889, 898, "NV"},
	{900, 961, "CA"},
	{970, 979, "OR"},
	{980, 994, "WA"},
}

// stateMultipliers scales national base prices to regional cost levels.
// States absent from the table use the 1.0 baseline.
var stateMultipliers = map[string]float64{
	"AZ": 1.0,
	"CA": 1.35,
	"CO": 1.15,
	"CT": 1.25,
	"DC": 1.35,
	"FL": 1.05,
	"GA": 0.95,
	"IL": 1.1,
	"MA": 1.3,
	"MD": 1.15,
	"MI": 0.9,
	"NC": 0.95,
	"NJ": 1.25,
	"NV": 1.05,
	"NY": 1.4,
	"OH": 0.85,
	"OR": 1.15,
	"PA": 1.0,
	"TX": 0.95,
	"VA": 1.1,
	"WA": 1.25,
}

// defaultMultiplier applies to unmapped or missing zip codes.
const defaultMultiplier = 1.0

// nationalRegion names the fallback region for unmapped codes.
const nationalRegion = "US"

// RegionFor resolves a zip code to a state code and cost multiplier.
// Unmapped or malformed codes return the national baseline.
func RegionFor(zip string) (string, float64) {
	if len(zip) < 3 {
		return nationalRegion, defaultMultiplier
	}
	prefix, err := strconv.Atoi(zip[:3])
	if err != nil {
		return nationalRegion, defaultMultiplier
	}
	for _, r := range zipRanges {
		if prefix >= r.Lo && prefix <= r.Hi {
			mult, ok := stateMultipliers[r.State]
			if !ok {
				mult = defaultMultiplier
			}
			return r.State, mult
		}
	}
	return nationalRegion, defaultMultiplier
}
