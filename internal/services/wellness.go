package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/scoring"
)

const (
	CodeValidation       = "validation_error"
	CodeAlreadySubmitted = "already_submitted"
	CodeStorageFault     = "storage_fault"

	dateLayout = "2006-01-02"
)

var (
	errAlreadySubmitted = errors.New("You've already completed today's check-in")
	errStorage          = errors.New("could not save your check-in, please try again")
	errStorageRead      = errors.New("could not load your check-ins, please try again")
)

// ScoreView is a stored response with its band attached.
type ScoreView struct {
	ID   uuid.UUID `json:"id"`
	Date string    `json:"date"`

	FeelingsScore      float64 `json:"feelings_score"`
	UnderstandingScore float64 `json:"understanding_score"`
	InteractionScore   float64 `json:"interaction_score"`
	EnergyScore        float64 `json:"energy_score"`
	DriveScore         float64 `json:"drive_score"`
	StabilityScore     float64 `json:"stability_score"`

	RawScore      float64 `json:"raw_score"`
	SmoothedScore float64 `json:"smoothed_score"`
	IsGoodEnough  bool    `json:"is_good_enough"`
	scoring.Band

	CreatedAt time.Time `json:"created_at"`
}

type WellnessSummary struct {
	Days            int        `json:"days"`
	Since           string     `json:"since"`
	Submissions     int        `json:"submissions"`
	GoodEnoughDays  int64      `json:"good_enough_days"`
	AverageSmoothed float64    `json:"average_smoothed_score"`
	CurrentStreak   int        `json:"current_streak"`
	Latest          *ScoreView `json:"latest"`
}

// SubmissionObserver receives one call per submission attempt. outcome is
// "created", "duplicate", "invalid" or "error"; band is empty unless created.
type SubmissionObserver interface {
	ObserveSubmission(outcome, band string, smoothed float64)
}

type WellnessService interface {
	// SubmitDailyResponse scores and stores the user's check-in for date. A zero
	// date means today in the service's time zone.
	SubmitDailyResponse(dbc dbctx.Context, userID uuid.UUID, date time.Time, raw scoring.RawAnswers) (*ScoreView, error)
	GetTodayScore(dbc dbctx.Context, userID uuid.UUID) (*ScoreView, bool, error)
	GetHistory(dbc dbctx.Context, userID uuid.UUID, days int) ([]*ScoreView, error)
	GetSummary(dbc dbctx.Context, userID uuid.UUID, days int) (*WellnessSummary, error)
	Today() time.Time
}

type WellnessServiceOptions struct {
	Location *time.Location
	Now      func() time.Time
	Observer SubmissionObserver
}

type wellnessService struct {
	db        *gorm.DB
	log       *logger.Logger
	responses repos.WellnessResponseRepo
	engine    *scoring.Engine
	loc       *time.Location
	now       func() time.Time
	observer  SubmissionObserver
}

func NewWellnessService(db *gorm.DB, log *logger.Logger, responses repos.WellnessResponseRepo, engine *scoring.Engine, opts WellnessServiceOptions) WellnessService {
	serviceLog := log.With("service", "WellnessService")
	ws := &wellnessService{
		db:        db,
		log:       serviceLog,
		responses: responses,
		engine:    engine,
		loc:       opts.Location,
		now:       opts.Now,
		observer:  opts.Observer,
	}
	if ws.loc == nil {
		ws.loc = time.UTC
	}
	if ws.now == nil {
		ws.now = time.Now
	}
	return ws
}

func (ws *wellnessService) Today() time.Time {
	return types.DateOf(ws.now().In(ws.loc))
}

func (ws *wellnessService) SubmitDailyResponse(dbc dbctx.Context, userID uuid.UUID, date time.Time, raw scoring.RawAnswers) (*ScoreView, error) {
	answers, err := raw.Validate()
	if err != nil {
		ws.observe("invalid", "", 0)
		return nil, apierr.BadRequest(CodeValidation, err)
	}

	today := ws.Today()
	day := today
	if !date.IsZero() {
		day = types.DateOf(date)
	}
	if day.After(today) {
		ws.observe("invalid", "", 0)
		return nil, apierr.BadRequest(CodeValidation,
			fmt.Errorf("date %s is after today (%s)", day.Format(dateLayout), today.Format(dateLayout)))
	}

	var created *types.WellnessResponse
	txErr := dbc.Conn(ws.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		existing, err := ws.responses.FindByDate(inner, userID, day)
		if err != nil {
			return err
		}
		if existing != nil {
			return repos.ErrDuplicateResponse
		}

		prior, err := ws.responses.FindRecentBefore(inner, userID, day, ws.engine.HistoryWindow())
		if err != nil {
			return err
		}
		priorTotals := make([]float64, 0, len(prior))
		for _, p := range prior {
			priorTotals = append(priorTotals, p.RawTotalScore)
		}

		res := ws.engine.Evaluate(answers, priorTotals)
		created, err = ws.responses.Create(inner, newResponseRow(userID, day, res))
		return err
	})
	if txErr != nil {
		if errors.Is(txErr, repos.ErrDuplicateResponse) {
			ws.observe("duplicate", "", 0)
			return nil, apierr.Conflict(CodeAlreadySubmitted, errAlreadySubmitted)
		}
		ws.observe("error", "", 0)
		ws.log.Error("Failed to store wellness response", "user_id", userID, "date", day.Format(dateLayout), "error", txErr)
		return nil, apierr.Internal(CodeStorageFault, errStorage)
	}

	view := ws.view(created)
	ws.observe("created", view.Label, view.SmoothedScore)
	ws.log.Info("Wellness response stored",
		"user_id", userID,
		"date", view.Date,
		"smoothed_score", view.SmoothedScore,
		"good_enough", view.IsGoodEnough,
	)
	return view, nil
}

func (ws *wellnessService) GetTodayScore(dbc dbctx.Context, userID uuid.UUID) (*ScoreView, bool, error) {
	row, err := ws.responses.FindByDate(dbc, userID, ws.Today())
	if err != nil {
		ws.log.Error("Failed to load today's response", "user_id", userID, "error", err)
		return nil, false, apierr.Internal(CodeStorageFault, errStorageRead)
	}
	if row == nil {
		return nil, false, nil
	}
	return ws.view(row), true, nil
}

func (ws *wellnessService) GetHistory(dbc dbctx.Context, userID uuid.UUID, days int) ([]*ScoreView, error) {
	rows, _, err := ws.window(dbc, userID, days)
	if err != nil {
		return nil, err
	}
	out := make([]*ScoreView, 0, len(rows))
	for _, r := range rows {
		out = append(out, ws.view(r))
	}
	return out, nil
}

func (ws *wellnessService) GetSummary(dbc dbctx.Context, userID uuid.UUID, days int) (*WellnessSummary, error) {
	rows, since, err := ws.window(dbc, userID, days)
	if err != nil {
		return nil, err
	}
	goodDays, err := ws.responses.CountGoodEnoughSince(dbc, userID, since)
	if err != nil {
		ws.log.Error("Failed to count good enough days", "user_id", userID, "error", err)
		return nil, apierr.Internal(CodeStorageFault, errStorageRead)
	}

	sum := &WellnessSummary{
		Days:           days,
		Since:          since.Format(dateLayout),
		Submissions:    len(rows),
		GoodEnoughDays: goodDays,
		CurrentStreak:  goodEnoughStreak(rows, ws.Today()),
	}
	if len(rows) > 0 {
		total := 0.0
		for _, r := range rows {
			total += r.SmoothedScore
		}
		sum.AverageSmoothed = total / float64(len(rows))
		sum.Latest = ws.view(rows[0])
	}
	return sum, nil
}

// window loads responses dated on or after today-days, newest first.
func (ws *wellnessService) window(dbc dbctx.Context, userID uuid.UUID, days int) ([]*types.WellnessResponse, time.Time, error) {
	if days <= 0 {
		return nil, time.Time{}, apierr.BadRequest(CodeValidation, fmt.Errorf("days must be positive, got %d", days))
	}
	since := ws.Today().AddDate(0, 0, -days)
	rows, err := ws.responses.FindSince(dbc, userID, since)
	if err != nil {
		ws.log.Error("Failed to load wellness history", "user_id", userID, "days", days, "error", err)
		return nil, since, apierr.Internal(CodeStorageFault, errStorageRead)
	}
	return rows, since, nil
}

// goodEnoughStreak counts consecutive good-enough days ending today, or ending
// yesterday when today has no response yet. rows must be newest first.
func goodEnoughStreak(rows []*types.WellnessResponse, today time.Time) int {
	if len(rows) == 0 {
		return 0
	}
	expect := today
	if rows[0].Date().Before(today) {
		expect = today.AddDate(0, 0, -1)
	}
	streak := 0
	for _, r := range rows {
		if !r.Date().Equal(expect) || !r.IsGoodEnough {
			break
		}
		streak++
		expect = expect.AddDate(0, 0, -1)
	}
	return streak
}

func (ws *wellnessService) view(r *types.WellnessResponse) *ScoreView {
	return &ScoreView{
		ID:                 r.ID,
		Date:               r.Date().Format(dateLayout),
		FeelingsScore:      r.FeelingsScore,
		UnderstandingScore: r.UnderstandingScore,
		InteractionScore:   r.InteractionScore,
		EnergyScore:        r.EnergyScore,
		DriveScore:         r.DriveScore,
		StabilityScore:     r.StabilityScore,
		RawScore:           r.RawTotalScore,
		SmoothedScore:      r.SmoothedScore,
		IsGoodEnough:       r.IsGoodEnough,
		Band:               ws.engine.Band(r.SmoothedScore),
		CreatedAt:          r.CreatedAt,
	}
}

func (ws *wellnessService) observe(outcome, band string, smoothed float64) {
	if ws.observer != nil {
		ws.observer.ObserveSubmission(outcome, band, smoothed)
	}
}

func newResponseRow(userID uuid.UUID, day time.Time, res scoring.Result) *types.WellnessResponse {
	a, c := res.Answers, res.Components
	return &types.WellnessResponse{
		UserID:       userID,
		ResponseDate: datatypes.Date(day),

		FeelingsAnswer:      a.Get(scoring.Feelings),
		UnderstandingAnswer: a.Get(scoring.Understanding),
		InteractionAnswer:   a.Get(scoring.Interaction),
		EnergyAnswer:        a.Get(scoring.Energy),
		DriveAnswer:         a.Get(scoring.Drive),
		StabilityAnswer:     a.Get(scoring.Stability),

		FeelingsScore:      c.Get(scoring.Feelings),
		UnderstandingScore: c.Get(scoring.Understanding),
		InteractionScore:   c.Get(scoring.Interaction),
		EnergyScore:        c.Get(scoring.Energy),
		DriveScore:         c.Get(scoring.Drive),
		StabilityScore:     c.Get(scoring.Stability),

		RawTotalScore: res.RawTotal,
		SmoothedScore: res.Smoothed,
		IsGoodEnough:  res.GoodEnough,
	}
}
