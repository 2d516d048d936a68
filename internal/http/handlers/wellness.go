package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/scoring"
	"github.com/yungbote/wellness-backend/internal/services"
)

const (
	defaultHistoryDays = 7
	defaultSummaryDays = 30
)

type WellnessHandler struct {
	log      *logger.Logger
	wellness services.WellnessService
	maxDays  int
}

type WellnessHandlerDeps struct {
	Log      *logger.Logger
	Wellness services.WellnessService
	// MaxDays caps the history and summary windows.
	MaxDays int
}

func NewWellnessHandlerWithDeps(deps WellnessHandlerDeps) *WellnessHandler {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	maxDays := deps.MaxDays
	if maxDays <= 0 {
		maxDays = 365
	}
	return &WellnessHandler{
		log:      log.With("handler", "WellnessHandler"),
		wellness: deps.Wellness,
		maxDays:  maxDays,
	}
}

type submitRequest struct {
	Date                string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	FeelingsAnswer      *int   `json:"feelings_answer"`
	UnderstandingAnswer *int   `json:"understanding_answer"`
	InteractionAnswer   *int   `json:"interaction_answer"`
	EnergyAnswer        *int   `json:"energy_answer"`
	DriveAnswer         *int   `json:"drive_answer"`
	StabilityAnswer     *int   `json:"stability_answer"`
}

func (r submitRequest) answers() scoring.RawAnswers {
	return scoring.RawAnswers{
		Feelings:      r.FeelingsAnswer,
		Understanding: r.UnderstandingAnswer,
		Interaction:   r.InteractionAnswer,
		Energy:        r.EnergyAnswer,
		Drive:         r.DriveAnswer,
		Stability:     r.StabilityAnswer,
	}
}

// POST /api/fuieds/submit
func (h *WellnessHandler) Submit(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, services.CodeValidation, fmt.Errorf("date: %w", err))
			return
		}
		date = d
	}
	view, err := h.wellness.SubmitDailyResponse(dbctx.Context{Ctx: c.Request.Context()}, userID, date, req.answers())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// GET /api/fuieds/today
func (h *WellnessHandler) Today(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	view, found, err := h.wellness.GetTodayScore(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if !found {
		response.RespondOK(c, gin.H{"submitted": false, "score": nil})
		return
	}
	response.RespondOK(c, gin.H{"submitted": true, "score": view})
}

// GET /api/fuieds/history?days=7
func (h *WellnessHandler) History(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	days, ok := h.daysParam(c, defaultHistoryDays)
	if !ok {
		return
	}
	views, err := h.wellness.GetHistory(dbctx.Context{Ctx: c.Request.Context()}, userID, days)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"days": days, "responses": views})
}

// GET /api/fuieds/summary?days=30
func (h *WellnessHandler) Summary(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	days, ok := h.daysParam(c, defaultSummaryDays)
	if !ok {
		return
	}
	sum, err := h.wellness.GetSummary(dbctx.Context{Ctx: c.Request.Context()}, userID, days)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, sum)
}

func (h *WellnessHandler) daysParam(c *gin.Context, def int) (int, bool) {
	v := strings.TrimSpace(c.Query("days"))
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation,
			fmt.Errorf("days must be a positive integer, got %q", v))
		return 0, false
	}
	if n > h.maxDays {
		h.log.Debug("Clamped days window", "requested", n, "max", h.maxDays)
		n = h.maxDays
	}
	return n, true
}

func requestUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, errors.New("not signed in"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}
