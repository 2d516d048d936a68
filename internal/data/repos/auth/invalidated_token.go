package auth

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type InvalidatedTokenRepo interface {
	// Create records a revocation. Revoking an already revoked jti keeps the
	// later of the two expiries.
	Create(dbc dbctx.Context, tok *types.InvalidatedToken) error
	Exists(dbc dbctx.Context, tokenID string) (bool, error)
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type invalidatedTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInvalidatedTokenRepo(db *gorm.DB, baseLog *logger.Logger) InvalidatedTokenRepo {
	repoLog := baseLog.With("repo", "InvalidatedTokenRepo")
	return &invalidatedTokenRepo{db: db, log: repoLog}
}

func (r *invalidatedTokenRepo) Create(dbc dbctx.Context, tok *types.InvalidatedToken) error {
	if tok == nil || tok.ID == "" {
		return fmt.Errorf("invalidate token: missing id")
	}
	tok.ExpiresAt = tok.ExpiresAt.UTC()
	err := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Set{{
				Column: clause.Column{Name: "expires_at"},
				Value: gorm.Expr("CASE WHEN excluded.expires_at > invalidated_token.expires_at " +
					"THEN excluded.expires_at ELSE invalidated_token.expires_at END"),
			}},
		}).
		Create(tok).Error
	if err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (r *invalidatedTokenRepo) Exists(dbc dbctx.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	var count int64
	if err := dbc.Conn(r.db).
		Model(&types.InvalidatedToken{}).
		Where("id = ?", tokenID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("lookup invalidated token: %w", err)
	}
	return count > 0, nil
}

func (r *invalidatedTokenRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.Conn(r.db).
		Where("expires_at < ?", now.UTC()).
		Delete(&types.InvalidatedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge invalidated tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
