// Package normalizer decodes raw model output into the canonical estimate
// shape. Decoding never fails on malformed content alone: strict schema
// decoding is attempted first, then best-effort scalar extraction, and only
// a payload with zero numeric cost signal is rejected.
package normalizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/renoquote/renoquote/internal/domain"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/orchestrator"
)

// Confidence constants for the two decode paths.
const (
	// DefaultConfidence applies when strict decoding succeeds but the
	// model omitted a self-reported confidence.
	DefaultConfidence = 0.85

	// DegradedConfidence is the fixed confidence of estimates recovered
	// through scalar extraction.
	DegradedConfidence = 0.7
)

// degradedNote flags estimates produced by the fallback path.
const degradedNote = "estimate recovered from partially structured model output; breakdown unavailable"

// fallbackTimeline is the conservative schedule attached to degraded
// estimates, which carry no model-provided timeline.
var fallbackTimeline = domain.Timeline{DaysLow: 14, DaysHigh: 45}

// Normalizer converts raw model payloads into normalized estimates.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a normalizer.
func New() *Normalizer {
	return &Normalizer{logger: slog.Default().With("component", "normalizer")}
}

// Normalize decodes a raw model response into a canonical estimate.
// Returns ErrUnusable only when no numeric cost signal can be located at
// all; every lesser problem degrades into a usable, lower-confidence
// result.
func (n *Normalizer) Normalize(raw *orchestrator.RawModelResponse) (*domain.NormalizedEstimate, error) {
	payload := stripFences(raw.Payload)

	if est, ok := n.strictDecode(payload); ok {
		est.Model = raw.Model
		est.UsedVision = raw.UsedVision
		est.CreatedAt = time.Now().UTC()
		return est, nil
	}

	n.logger.Warn("strict decode failed, attempting scalar extraction",
		"model", raw.Model, "payload_bytes", len(payload))

	if est, ok := n.extractScalars(payload); ok {
		est.Model = raw.Model
		est.UsedVision = raw.UsedVision
		est.CreatedAt = time.Now().UTC()
		return est, nil
	}

	return nil, fmt.Errorf("%w: model %s", llmerrors.ErrUnusable, raw.Model)
}

// strictDecode attempts a full schema decode of the documented response
// contract. Malformed ranges are repaired by swapping rather than
// rejected: a well-formed document with inverted bounds still carries
// complete signal.
func (n *Normalizer) strictDecode(payload string) (*domain.NormalizedEstimate, bool) {
	var est domain.NormalizedEstimate
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&est); err != nil {
		return nil, false
	}

	// A decode that produced no cost at all is not a strict success.
	if est.TotalCost.IsZero() && len(est.Breakdown) == 0 {
		return nil, false
	}

	est.TotalCost = orderRange(est.TotalCost)
	for i, item := range est.Breakdown {
		if item.CostLow > item.CostHigh {
			est.Breakdown[i].CostLow, est.Breakdown[i].CostHigh = item.CostHigh, item.CostLow
		}
	}
	if est.Timeline.DaysLow > est.Timeline.DaysHigh {
		est.Timeline.DaysLow, est.Timeline.DaysHigh = est.Timeline.DaysHigh, est.Timeline.DaysLow
	}

	if est.Confidence <= 0 {
		est.Confidence = DefaultConfidence
	}
	if est.Confidence > 1 {
		est.Confidence = 1
	}

	return &est, true
}

// Scalar extraction patterns for the degraded path. The model's field
// names are matched loosely inside otherwise unusable prose.
var (
	lowPattern  = regexp.MustCompile(`(?i)"?(?:low|totalLow|minCost|min)"?\s*[:=]\s*\$?([0-9][0-9,]*\.?[0-9]*)`)
	highPattern = regexp.MustCompile(`(?i)"?(?:high|totalHigh|maxCost|max)"?\s*[:=]\s*\$?([0-9][0-9,]*\.?[0-9]*)`)
)

// extractScalars scans for low/high total-cost fields and, when found,
// constructs a minimal estimate: empty breakdown, conservative timeline,
// fixed degraded confidence, and a note flagging the parse.
func (n *Normalizer) extractScalars(payload string) (*domain.NormalizedEstimate, bool) {
	low, lowOK := firstNumber(lowPattern, payload)
	high, highOK := firstNumber(highPattern, payload)

	switch {
	case !lowOK && !highOK:
		return nil, false
	case lowOK && !highOK:
		high = low
	case highOK && !lowOK:
		low = high
	}

	est := &domain.NormalizedEstimate{
		TotalCost:     orderRange(domain.CostRange{Low: low, High: high}),
		Breakdown:     []domain.LineItem{},
		Timeline:      fallbackTimeline,
		Notes:         degradedNote,
		Warnings:      []string{"model output could not be fully parsed; totals only"},
		Confidence:    DegradedConfidence,
		DegradedParse: true,
	}
	return est, true
}

func firstNumber(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// fenceRe matches an enclosing markdown code fence with optional language tag.
var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")

// stripFences removes enclosing markdown code-fence markers if present.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

func orderRange(r domain.CostRange) domain.CostRange {
	if r.Low > r.High {
		r.Low, r.High = r.High, r.Low
	}
	return r
}
