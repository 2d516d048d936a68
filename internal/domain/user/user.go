package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null;size:50;column:username" json:"username"`
	Email       string    `gorm:"uniqueIndex;not null;size:100;column:email" json:"email"`
	Password    string    `gorm:"not null;column:password" json:"-"`
	FullName    string    `gorm:"size:100;column:full_name" json:"full_name"`
	PhoneNumber string    `gorm:"size:20;column:phone_number" json:"phone_number,omitempty"`
	IsActive    bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
