package orchestrator

import (
	"fmt"
	"strings"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/pricing"
)

// systemPrompt instructs the model on its role and output discipline.
const systemPrompt = `You are an experienced residential renovation cost estimator. ` +
	`You produce realistic, regionally adjusted cost estimates for home renovation projects. ` +
	`Respond with a single JSON object and nothing else: no prose, no markdown fences.`

// responseSchema documents the exact output contract embedded in every
// prompt so even non-JSON-mode tiers know the expected shape.
const responseSchema = `{
  "totalCost": {"low": number, "high": number},
  "breakdown": [{"category": "Labor|Materials|Permits|Design|Contingency|Overhead",
                 "item": string, "description": string,
                 "quantity": number, "unit": string,
                 "costLow": number, "costHigh": number, "optional": boolean}],
  "timeline": {"daysLow": integer, "daysHigh": integer, "recommendedSeason": string},
  "notes": string,
  "warnings": [string],
  "recommendations": [string],
  "confidence": number between 0 and 1,
  "regionalData": {"multiplier": number, "region": string}
}`

// genericMaterialsLine stands in when the homeowner selected no materials.
const genericMaterialsLine = "standard builder-grade materials appropriate for the room and tier"

// BuildPrompt renders the structured estimation prompt from the request and
// the pricing context. All request fields are embedded; the pricing summary
// anchors the model to regional labor reality.
func BuildPrompt(req *domain.EstimateRequest, pctx pricing.Context) string {
	var b strings.Builder

	b.WriteString("Estimate the cost of the following renovation project.\n\n")

	fmt.Fprintf(&b, "Room type: %s\n", req.RoomType)
	fmt.Fprintf(&b, "Area: %.0f sqft\n", req.SquareFootage)
	fmt.Fprintf(&b, "Quality tier: %s (cost multiplier %.2f)\n", req.QualityTier, req.QualityTier.Multiplier())
	fmt.Fprintf(&b, "Urgency: %s (schedule multiplier %.2f)\n", req.Urgency, req.Urgency.Multiplier())

	if len(req.Materials) > 0 {
		fmt.Fprintf(&b, "Selected materials: %s\n", strings.Join(req.Materials, ", "))
	} else {
		fmt.Fprintf(&b, "Selected materials: %s\n", genericMaterialsLine)
	}

	fmt.Fprintf(&b, "Permit acquisition in scope: %t\n", req.NeedsPermits)
	fmt.Fprintf(&b, "Professional design services in scope: %t\n", req.IncludeDesign)

	if req.Description != "" {
		fmt.Fprintf(&b, "Homeowner notes: %s\n", req.Description)
	}

	b.WriteString("\nRegional pricing context:\n")
	if pctx.ZipCode != "" {
		fmt.Fprintf(&b, "Project location: zip %s\n", pctx.ZipCode)
	}
	fmt.Fprintf(&b, "Region: %s (cost multiplier %.2f relative to national average)\n",
		pctx.Region, pctx.Multiplier)
	if len(pctx.LaborRates) > 0 {
		b.WriteString("Reference hourly labor rates:\n")
		for _, trade := range []string{"general contractor", "plumber", "electrician", "carpenter"} {
			if rate, ok := pctx.LaborRates[trade]; ok {
				fmt.Fprintf(&b, "  %s: $%.0f/hour\n", trade, rate)
			}
		}
	}

	b.WriteString("\nItemize labor, materials, permits, design, contingency and overhead. ")
	b.WriteString("Apply the regional multiplier to all prices. ")
	b.WriteString("If photos are attached, factor visible condition and scope into the estimate.\n")

	b.WriteString("\nRespond with JSON matching exactly this schema:\n")
	b.WriteString(responseSchema)

	return b.String()
}
