package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/scoring"
	"github.com/yungbote/wellness-backend/internal/services"
)

type stubWellness struct {
	services.WellnessService

	submitErr  error
	gotUser    uuid.UUID
	gotDate    time.Time
	gotAnswers scoring.RawAnswers
	gotDays    int
	today      *services.ScoreView
}

func (s *stubWellness) SubmitDailyResponse(_ dbctx.Context, userID uuid.UUID, date time.Time, raw scoring.RawAnswers) (*services.ScoreView, error) {
	s.gotUser, s.gotDate, s.gotAnswers = userID, date, raw
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	if _, err := raw.Validate(); err != nil {
		return nil, apierr.BadRequest(services.CodeValidation, err)
	}
	return &services.ScoreView{Date: "2026-10-19", SmoothedScore: 62.5}, nil
}

func (s *stubWellness) GetTodayScore(_ dbctx.Context, userID uuid.UUID) (*services.ScoreView, bool, error) {
	s.gotUser = userID
	return s.today, s.today != nil, nil
}

func (s *stubWellness) GetHistory(_ dbctx.Context, userID uuid.UUID, days int) ([]*services.ScoreView, error) {
	s.gotUser, s.gotDays = userID, days
	return []*services.ScoreView{}, nil
}

func (s *stubWellness) GetSummary(_ dbctx.Context, userID uuid.UUID, days int) (*services.WellnessSummary, error) {
	s.gotUser, s.gotDays = userID, days
	return &services.WellnessSummary{Days: days}, nil
}

func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newWellnessRouter(stub *stubWellness, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWellnessHandlerWithDeps(WellnessHandlerDeps{Wellness: stub, MaxDays: 90})
	r := gin.New()
	g := r.Group("/api/fuieds")
	if userID != uuid.Nil {
		g.Use(withUser(userID))
	}
	g.POST("/submit", h.Submit)
	g.GET("/today", h.Today)
	g.GET("/history", h.History)
	g.GET("/summary", h.Summary)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

const fullAnswers = `"feelings_answer":4,"understanding_answer":3,"interaction_answer":2,"energy_answer":1,"drive_answer":0,"stability_answer":4`

func TestWellnessSubmit(t *testing.T) {
	userID := uuid.New()
	stub := &stubWellness{}
	r := newWellnessRouter(stub, userID)

	rec := do(r, http.MethodPost, "/api/fuieds/submit", `{`+fullAnswers+`}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if stub.gotUser != userID {
		t.Fatalf("user: want=%s got=%s", userID, stub.gotUser)
	}
	if !stub.gotDate.IsZero() {
		t.Fatalf("date: want zero (today) got=%v", stub.gotDate)
	}
	if stub.gotAnswers.Drive == nil || *stub.gotAnswers.Drive != 0 {
		t.Fatalf("drive answer of 0 not passed through")
	}

	rec = do(r, http.MethodPost, "/api/fuieds/submit", `{"date":"2026-10-17",`+fullAnswers+`}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("backfill status: want=%d got=%d", http.StatusCreated, rec.Code)
	}
	if want := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC); !stub.gotDate.Equal(want) {
		t.Fatalf("date: want=%v got=%v", want, stub.gotDate)
	}
}

func TestWellnessSubmitRejectsBadInput(t *testing.T) {
	r := newWellnessRouter(&stubWellness{}, uuid.New())

	cases := map[string]string{
		"malformed json":  `{`,
		"bad date":        `{"date":"17/10/2026",` + fullAnswers + `}`,
		"fractional":      `{"feelings_answer":2.5}`,
		"missing answers": `{"feelings_answer":2}`,
		"out of range":    `{"feelings_answer":5,"understanding_answer":3,"interaction_answer":2,"energy_answer":1,"drive_answer":0,"stability_answer":4}`,
		"negative answer": `{"feelings_answer":-1,"understanding_answer":3,"interaction_answer":2,"energy_answer":1,"drive_answer":0,"stability_answer":4}`,
		"string for int":  `{"feelings_answer":"4"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/fuieds/submit", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: want=%d got=%d body=%s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != services.CodeValidation {
				t.Fatalf("code: want=%s got=%s", services.CodeValidation, code)
			}
		})
	}
}

func TestWellnessSubmitMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantErr  string
	}{
		{apierr.Conflict(services.CodeAlreadySubmitted, errors.New("dup")), http.StatusConflict, services.CodeAlreadySubmitted},
		{apierr.Internal(services.CodeStorageFault, errors.New("db down")), http.StatusInternalServerError, services.CodeStorageFault},
		{errors.New("surprise"), http.StatusInternalServerError, response.CodeInternal},
	}
	for _, tc := range cases {
		r := newWellnessRouter(&stubWellness{submitErr: tc.err}, uuid.New())
		rec := do(r, http.MethodPost, "/api/fuieds/submit", `{`+fullAnswers+`}`)
		if rec.Code != tc.wantCode {
			t.Fatalf("%v: status want=%d got=%d", tc.err, tc.wantCode, rec.Code)
		}
		if code := errorCode(t, rec); code != tc.wantErr {
			t.Fatalf("%v: code want=%s got=%s", tc.err, tc.wantErr, code)
		}
	}
}

func TestWellnessToday(t *testing.T) {
	stub := &stubWellness{}
	r := newWellnessRouter(stub, uuid.New())

	rec := do(r, http.MethodGet, "/api/fuieds/today", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	var body struct {
		Submitted bool                `json:"submitted"`
		Score     *services.ScoreView `json:"score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Submitted || body.Score != nil {
		t.Fatalf("want not submitted, got %+v", body)
	}

	stub.today = &services.ScoreView{Date: "2026-10-19", SmoothedScore: 70}
	rec = do(r, http.MethodGet, "/api/fuieds/today", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Submitted || body.Score == nil || body.Score.SmoothedScore != 70 {
		t.Fatalf("want submitted score, got %+v", body)
	}
}

func TestWellnessDaysParam(t *testing.T) {
	cases := []struct {
		target   string
		wantCode int
		wantDays int
	}{
		{"/api/fuieds/history", http.StatusOK, defaultHistoryDays},
		{"/api/fuieds/history?days=3", http.StatusOK, 3},
		{"/api/fuieds/history?days=1000", http.StatusOK, 90},
		{"/api/fuieds/history?days=0", http.StatusBadRequest, 0},
		{"/api/fuieds/history?days=abc", http.StatusBadRequest, 0},
		{"/api/fuieds/summary", http.StatusOK, defaultSummaryDays},
		{"/api/fuieds/summary?days=14", http.StatusOK, 14},
	}
	for _, tc := range cases {
		stub := &stubWellness{}
		r := newWellnessRouter(stub, uuid.New())
		rec := do(r, http.MethodGet, tc.target, "")
		if rec.Code != tc.wantCode {
			t.Fatalf("%s: status want=%d got=%d", tc.target, tc.wantCode, rec.Code)
		}
		if stub.gotDays != tc.wantDays {
			t.Fatalf("%s: days want=%d got=%d", tc.target, tc.wantDays, stub.gotDays)
		}
	}
}

func TestWellnessRequiresUser(t *testing.T) {
	r := newWellnessRouter(&stubWellness{}, uuid.Nil)
	rec := do(r, http.MethodGet, "/api/fuieds/today", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
}
