// Package domain provides core types and business logic for renovation cost
// estimation. It defines the immutable request and estimate structures used
// throughout the pipeline, with typed enumerations for compile-time safety
// and struct-tag validation at the pipeline boundary.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomType identifies the space being renovated.
// Using typed constants instead of raw strings provides compile-time safety
// and keeps prompt construction exhaustive over the supported room kinds.
type RoomType string

const (
	RoomKitchen    RoomType = "kitchen"
	RoomBathroom   RoomType = "bathroom"
	RoomBedroom    RoomType = "bedroom"
	RoomLivingRoom RoomType = "living_room"
	RoomBasement   RoomType = "basement"
	RoomAttic      RoomType = "attic"
	RoomGarage     RoomType = "garage"
	RoomExterior   RoomType = "exterior"
	RoomWholeHome  RoomType = "whole_home"
)

// IsValid reports whether the room type is one of the supported values.
func (r RoomType) IsValid() bool {
	switch r {
	case RoomKitchen, RoomBathroom, RoomBedroom, RoomLivingRoom,
		RoomBasement, RoomAttic, RoomGarage, RoomExterior, RoomWholeHome:
		return true
	default:
		return false
	}
}

// QualityTier expresses the finish level the homeowner is targeting.
// Each tier carries a cost multiplier applied on top of base room pricing.
type QualityTier string

const (
	TierBudget   QualityTier = "budget"
	TierStandard QualityTier = "standard"
	TierPremium  QualityTier = "premium"
	TierLuxury   QualityTier = "luxury"
)

// Multiplier returns the cost scaling factor for the tier.
// Unknown tiers fall back to the standard multiplier.
func (q QualityTier) Multiplier() float64 {
	switch q {
	case TierBudget:
		return 0.8
	case TierStandard:
		return 1.0
	case TierPremium:
		return 1.5
	case TierLuxury:
		return 2.2
	default:
		return 1.0
	}
}

// IsValid reports whether the tier is one of the supported values.
func (q QualityTier) IsValid() bool {
	switch q {
	case TierBudget, TierStandard, TierPremium, TierLuxury:
		return true
	default:
		return false
	}
}

// Urgency captures how quickly the homeowner needs the work done.
// Compressed schedules carry a premium applied during synthesis.
type Urgency string

const (
	UrgencyFlexible  Urgency = "flexible"
	UrgencyStandard  Urgency = "standard"
	UrgencyRush      Urgency = "rush"
	UrgencyEmergency Urgency = "emergency"
)

// Multiplier returns the schedule premium for the urgency level.
func (u Urgency) Multiplier() float64 {
	switch u {
	case UrgencyFlexible:
		return 0.95
	case UrgencyRush:
		return 1.15
	case UrgencyEmergency:
		return 1.3
	default:
		return 1.0
	}
}

// EstimateRequest describes a renovation project to be priced.
// A request is immutable once submitted to the pipeline: constructors clone
// the materials and image slices so callers cannot mutate in-flight work.
type EstimateRequest struct {
	// ID uniquely identifies the request for tracing and idempotency.
	ID string `json:"id" validate:"required"`

	// RoomType is the space being renovated.
	RoomType RoomType `json:"room_type" validate:"required"`

	// SquareFootage is the project area. Zero is accepted and yields a
	// degenerate zero-cost estimate rather than an error.
	SquareFootage float64 `json:"square_footage" validate:"gte=0"`

	// QualityTier selects the finish level.
	QualityTier QualityTier `json:"quality_tier" validate:"required"`

	// ZipCode locates the project for regional pricing. Optional.
	ZipCode string `json:"zip_code,omitempty" validate:"omitempty,len=5,numeric"`

	// Urgency captures schedule pressure.
	Urgency Urgency `json:"urgency,omitempty"`

	// Materials is an ordered list of free-text material names. May be empty.
	Materials []string `json:"materials,omitempty"`

	// NeedsPermits flags permit acquisition as part of the scope.
	NeedsPermits bool `json:"needs_permits"`

	// IncludeDesign flags professional design services as part of the scope.
	IncludeDesign bool `json:"include_design"`

	// Images holds raw photo bytes of the current space. May be empty.
	Images [][]byte `json:"-"`

	// Description is free-text context from the homeowner.
	Description string `json:"description,omitempty"`

	// SubmittedAt records when the request entered the pipeline.
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewEstimateRequest constructs a validated, immutable estimate request.
// Materials and images are cloned to guarantee immutability after submission.
//
// WARNING: generates a UUID and timestamp; do not call inside workflow code.
func NewEstimateRequest(roomType RoomType, squareFootage float64, tier QualityTier) (*EstimateRequest, error) {
	return MakeEstimateRequest(uuid.New().String(), time.Now().UTC(), roomType, squareFootage, tier)
}

// MakeEstimateRequest constructs a request with a caller-supplied ID and
// timestamp. Safe for deterministic contexts such as workflow replay.
func MakeEstimateRequest(id string, submittedAt time.Time, roomType RoomType, squareFootage float64, tier QualityTier) (*EstimateRequest, error) {
	req := &EstimateRequest{
		ID:            id,
		RoomType:      roomType,
		SquareFootage: squareFootage,
		QualityTier:   tier,
		Urgency:       UrgencyStandard,
		SubmittedAt:   submittedAt,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks structural constraints and enum membership.
func (r *EstimateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if !r.RoomType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoomType, r.RoomType)
	}
	if !r.QualityTier.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidQualityTier, r.QualityTier)
	}
	return nil
}

// Clone returns a deep copy of the request.
// Used at the pipeline boundary to enforce immutability of submitted work.
func (r *EstimateRequest) Clone() *EstimateRequest {
	cp := *r
	cp.Materials = cloneStrings(r.Materials)
	cp.Images = cloneImages(r.Images)
	return &cp
}

// WithMaterials returns a copy of the request carrying the given materials.
func (r *EstimateRequest) WithMaterials(materials ...string) *EstimateRequest {
	cp := r.Clone()
	cp.Materials = cloneStrings(materials)
	return cp
}

// WithImages returns a copy of the request carrying the given image buffers.
func (r *EstimateRequest) WithImages(images ...[]byte) *EstimateRequest {
	cp := r.Clone()
	cp.Images = cloneImages(images)
	return cp
}
