package auth

import "time"

// InvalidatedToken revokes one JWT by its jti until ExpiresAt, after which the
// token is unusable anyway and the row may be purged.
type InvalidatedToken struct {
	ID        string    `gorm:"primaryKey;size:64;column:id" json:"id"`
	ExpiresAt time.Time `gorm:"not null;index;column:expires_at" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (InvalidatedToken) TableName() string { return "invalidated_token" }
