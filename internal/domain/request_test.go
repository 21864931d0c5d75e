package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEstimateRequest(t *testing.T) {
	req, err := NewEstimateRequest(RoomKitchen, 180, TierStandard)
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, RoomKitchen, req.RoomType)
	assert.Equal(t, 180.0, req.SquareFootage)
	assert.Equal(t, UrgencyStandard, req.Urgency)
	assert.False(t, req.SubmittedAt.IsZero())
}

func TestEstimateRequest_Validate(t *testing.T) {
	base := func() *EstimateRequest {
		return &EstimateRequest{
			ID:            "req-1",
			RoomType:      RoomBathroom,
			SquareFootage: 60,
			QualityTier:   TierPremium,
			Urgency:       UrgencyStandard,
			SubmittedAt:   time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*EstimateRequest)
		wantErr error
	}{
		{
			name:   "valid_request",
			mutate: func(*EstimateRequest) {},
		},
		{
			name:   "zero_square_footage_accepted",
			mutate: func(r *EstimateRequest) { r.SquareFootage = 0 },
		},
		{
			name:   "valid_zip_accepted",
			mutate: func(r *EstimateRequest) { r.ZipCode = "90210" },
		},
		{
			name:    "unknown_room_type",
			mutate:  func(r *EstimateRequest) { r.RoomType = "closet" },
			wantErr: ErrInvalidRoomType,
		},
		{
			name:    "unknown_quality_tier",
			mutate:  func(r *EstimateRequest) { r.QualityTier = "platinum" },
			wantErr: ErrInvalidQualityTier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEstimateRequest_Validate_ZipFormat(t *testing.T) {
	req, err := NewEstimateRequest(RoomKitchen, 100, TierBudget)
	require.NoError(t, err)

	for _, zip := range []string{"9021", "902101", "9021a", "abcde"} {
		req.ZipCode = zip
		assert.Error(t, req.Validate(), "zip %q should be rejected", zip)
	}
}

func TestQualityTier_Multiplier(t *testing.T) {
	tests := []struct {
		tier QualityTier
		want float64
	}{
		{TierBudget, 0.8},
		{TierStandard, 1.0},
		{TierPremium, 1.5},
		{TierLuxury, 2.2},
		{QualityTier("unknown"), 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tier.Multiplier(), "tier %s", tt.tier)
	}
}

func TestUrgency_Multiplier(t *testing.T) {
	assert.Equal(t, 0.95, UrgencyFlexible.Multiplier())
	assert.Equal(t, 1.0, UrgencyStandard.Multiplier())
	assert.Equal(t, 1.15, UrgencyRush.Multiplier())
	assert.Equal(t, 1.3, UrgencyEmergency.Multiplier())
}

func TestEstimateRequest_Clone(t *testing.T) {
	req, err := NewEstimateRequest(RoomGarage, 400, TierStandard)
	require.NoError(t, err)
	orig := req.WithMaterials("epoxy floor").WithImages([]byte{0x01, 0x02})

	cp := orig.Clone()
	cp.Materials[0] = "changed"
	cp.Images[0][0] = 0xFF

	assert.Equal(t, "epoxy floor", orig.Materials[0])
	assert.Equal(t, byte(0x01), orig.Images[0][0])
}
