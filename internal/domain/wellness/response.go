package wellness

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Response is one user's FUIEDS check-in for one calendar day. Rows are written
// once and never updated.
type Response struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_wellness_response_user_date,priority:1" json:"user_id"`
	ResponseDate datatypes.Date `gorm:"not null;uniqueIndex:idx_wellness_response_user_date,priority:2;column:response_date" json:"response_date"`

	FeelingsAnswer      int `gorm:"not null;column:feelings_answer" json:"feelings_answer"`
	UnderstandingAnswer int `gorm:"not null;column:understanding_answer" json:"understanding_answer"`
	InteractionAnswer   int `gorm:"not null;column:interaction_answer" json:"interaction_answer"`
	EnergyAnswer        int `gorm:"not null;column:energy_answer" json:"energy_answer"`
	DriveAnswer         int `gorm:"not null;column:drive_answer" json:"drive_answer"`
	StabilityAnswer     int `gorm:"not null;column:stability_answer" json:"stability_answer"`

	FeelingsScore      float64 `gorm:"not null;column:feelings_score" json:"feelings_score"`
	UnderstandingScore float64 `gorm:"not null;column:understanding_score" json:"understanding_score"`
	InteractionScore   float64 `gorm:"not null;column:interaction_score" json:"interaction_score"`
	EnergyScore        float64 `gorm:"not null;column:energy_score" json:"energy_score"`
	DriveScore         float64 `gorm:"not null;column:drive_score" json:"drive_score"`
	StabilityScore     float64 `gorm:"not null;column:stability_score" json:"stability_score"`

	RawTotalScore float64 `gorm:"not null;column:raw_total_score" json:"raw_total_score"`
	SmoothedScore float64 `gorm:"not null;column:smoothed_score" json:"smoothed_score"`
	IsGoodEnough  bool    `gorm:"not null;column:is_good_enough" json:"is_good_enough"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;<-:create" json:"created_at"`
}

func (Response) TableName() string { return "wellness_response" }

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Date returns the response date as a UTC midnight time.Time.
func (r *Response) Date() time.Time {
	return DateOf(time.Time(r.ResponseDate))
}

// DateOf truncates t to its calendar day (in t's location) and returns that day
// as UTC midnight, the canonical form stored in response_date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
