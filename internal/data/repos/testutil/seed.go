package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/wellness-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:       id,
		Username: "u_" + id.String()[:8],
		Email:    id.String() + "@example.com",
		Password: "pw",
		FullName: "Test User",
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedResponse inserts a response with the given raw and smoothed totals. The
// per-dimension columns are filled with placeholder values.
func SeedResponse(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time, raw, smoothed float64, goodEnough bool) *types.WellnessResponse {
	tb.Helper()
	r := &types.WellnessResponse{
		UserID:         userID,
		ResponseDate:   datatypes.Date(types.DateOf(date)),
		FeelingsAnswer: 2, UnderstandingAnswer: 2, InteractionAnswer: 2,
		EnergyAnswer: 2, DriveAnswer: 2, StabilityAnswer: 2,
		FeelingsScore: 50, UnderstandingScore: 50, InteractionScore: 50,
		EnergyScore: 50, DriveScore: 50, StabilityScore: 50,
		RawTotalScore: raw,
		SmoothedScore: smoothed,
		IsGoodEnough:  goodEnough,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed wellness response: %v", err)
	}
	return r
}

func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
