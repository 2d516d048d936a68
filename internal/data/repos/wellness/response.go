package wellness

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/db"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

// ErrDuplicateResponse is returned by Create when the user already has a
// response for that date.
var ErrDuplicateResponse = errors.New("wellness response already exists for date")

// WellnessResponseRepo stores daily check-ins. All dates are calendar days;
// callers pass any time on the day and the repo normalizes it.
type WellnessResponseRepo interface {
	FindByDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) (*types.WellnessResponse, error)
	// FindRecentBefore returns up to limit responses strictly before date, newest first.
	FindRecentBefore(dbc dbctx.Context, userID uuid.UUID, date time.Time, limit int) ([]*types.WellnessResponse, error)
	// FindSince returns responses on or after date, newest first.
	FindSince(dbc dbctx.Context, userID uuid.UUID, date time.Time) ([]*types.WellnessResponse, error)
	Create(dbc dbctx.Context, resp *types.WellnessResponse) (*types.WellnessResponse, error)
	CountGoodEnoughSince(dbc dbctx.Context, userID uuid.UUID, date time.Time) (int64, error)
}

type wellnessResponseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWellnessResponseRepo(db *gorm.DB, baseLog *logger.Logger) WellnessResponseRepo {
	repoLog := baseLog.With("repo", "WellnessResponseRepo")
	return &wellnessResponseRepo{db: db, log: repoLog}
}

func day(t time.Time) datatypes.Date {
	return datatypes.Date(types.DateOf(t))
}

func (r *wellnessResponseRepo) FindByDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) (*types.WellnessResponse, error) {
	var row types.WellnessResponse
	err := dbc.Conn(r.db).
		Where("user_id = ? AND response_date = ?", userID, day(date)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find wellness response by date: %w", err)
	}
	return &row, nil
}

func (r *wellnessResponseRepo) FindRecentBefore(dbc dbctx.Context, userID uuid.UUID, date time.Time, limit int) ([]*types.WellnessResponse, error) {
	var rows []*types.WellnessResponse
	if limit <= 0 {
		return rows, nil
	}
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND response_date < ?", userID, day(date)).
		Order("response_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find recent wellness responses: %w", err)
	}
	return rows, nil
}

func (r *wellnessResponseRepo) FindSince(dbc dbctx.Context, userID uuid.UUID, date time.Time) ([]*types.WellnessResponse, error) {
	var rows []*types.WellnessResponse
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND response_date >= ?", userID, day(date)).
		Order("response_date DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find wellness responses since: %w", err)
	}
	return rows, nil
}

func (r *wellnessResponseRepo) Create(dbc dbctx.Context, resp *types.WellnessResponse) (*types.WellnessResponse, error) {
	if resp == nil {
		return nil, fmt.Errorf("create wellness response: nil response")
	}
	resp.ResponseDate = day(time.Time(resp.ResponseDate))
	if err := dbc.Conn(r.db).Create(resp).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateResponse
		}
		return nil, fmt.Errorf("create wellness response: %w", err)
	}
	return resp, nil
}

func (r *wellnessResponseRepo) CountGoodEnoughSince(dbc dbctx.Context, userID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	if err := dbc.Conn(r.db).
		Model(&types.WellnessResponse{}).
		Where("user_id = ? AND response_date >= ? AND is_good_enough = ?", userID, day(date), true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count good enough days: %w", err)
	}
	return count, nil
}
