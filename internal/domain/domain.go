package domain

import (
	"time"

	"github.com/yungbote/wellness-backend/internal/domain/auth"
	"github.com/yungbote/wellness-backend/internal/domain/user"
	"github.com/yungbote/wellness-backend/internal/domain/wellness"
)

type User = user.User

type InvalidatedToken = auth.InvalidatedToken

type WellnessResponse = wellness.Response

// Models lists every persisted entity, in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&InvalidatedToken{},
		&WellnessResponse{},
	}
}

// DateOf returns t's calendar day as UTC midnight, the stored form of a response date.
func DateOf(t time.Time) time.Time { return wellness.DateOf(t) }
