package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/services"
)

type stubAuth struct {
	services.AuthService

	registered services.RegisterInput
	refreshed  string
}

func (s *stubAuth) Register(_ dbctx.Context, in services.RegisterInput) (*domain.User, error) {
	if in.Email == "taken@example.com" {
		return nil, apierr.Conflict(services.CodeUserExists, errors.New("exists"))
	}
	s.registered = in
	return &domain.User{ID: uuid.New(), Username: in.Username, Email: in.Email, Password: "$2a$hash"}, nil
}

func (s *stubAuth) Login(_ dbctx.Context, email, password string) (*services.TokenResult, error) {
	if password != "correct-password" {
		return nil, apierr.Unauthorized(services.CodeInvalidCredentials, errors.New("invalid email or password"))
	}
	return &services.TokenResult{Token: "tok", ExpiresIn: 3600, Authenticated: true}, nil
}

func (s *stubAuth) Introspect(_ context.Context, tok string) (bool, error) {
	return tok == "tok", nil
}

func (s *stubAuth) Refresh(_ dbctx.Context, tok string) (*services.TokenResult, error) {
	s.refreshed = tok
	return &services.TokenResult{Token: "tok2", ExpiresIn: 3600, Authenticated: true}, nil
}

func newAuthRouter(stub *stubAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(stub)
	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/introspect", h.Introspect)
	r.POST("/api/auth/refresh", h.Refresh)
	return r
}

func TestAuthRegister(t *testing.T) {
	stub := &stubAuth{}
	r := newAuthRouter(stub)

	rec := do(r, http.MethodPost, "/api/auth/register",
		`{"username":"sam","email":"sam@example.com","password":"long-enough","full_name":"Sam"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "$2a$hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
	if stub.registered.Username != "sam" || stub.registered.FullName != "Sam" {
		t.Fatalf("input not passed through: %+v", stub.registered)
	}

	rec = do(r, http.MethodPost, "/api/auth/register",
		`{"username":"sam2","email":"taken@example.com","password":"long-enough"}`)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != services.CodeUserExists {
		t.Fatalf("duplicate: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	r := newAuthRouter(&stubAuth{})
	cases := map[string]struct {
		body    string
		wantMsg string
	}{
		"short password": {`{"username":"sam","email":"sam@example.com","password":"short"}`, "password must be at least 8"},
		"bad email":      {`{"username":"sam","email":"nope","password":"long-enough"}`, "email must be a valid email"},
		"no username":    {`{"email":"sam@example.com","password":"long-enough"}`, "username is required"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/auth/register", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
			}
			var env response.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != services.CodeValidation || !strings.Contains(env.Error.Message, tc.wantMsg) {
				t.Fatalf("error: want code=%s msg~%q got=%+v", services.CodeValidation, tc.wantMsg, env.Error)
			}
		})
	}
}

func TestAuthLoginIntrospectRefresh(t *testing.T) {
	stub := &stubAuth{}
	r := newAuthRouter(stub)

	rec := do(r, http.MethodPost, "/api/auth/login", `{"email":"sam@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != services.CodeInvalidCredentials {
		t.Fatalf("bad login: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(r, http.MethodPost, "/api/auth/login", `{"email":"sam@example.com","password":"correct-password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status=%d", rec.Code)
	}
	var tok services.TokenResult
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tok.Token != "tok" || !tok.Authenticated || tok.ExpiresIn != 3600 {
		t.Fatalf("login body: %+v", tok)
	}

	for token, want := range map[string]bool{"tok": true, "other": false} {
		rec = do(r, http.MethodPost, "/api/auth/introspect", `{"token":"`+token+`"}`)
		var body struct {
			Valid bool `json:"valid"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Code != http.StatusOK || body.Valid != want {
			t.Fatalf("introspect %s: status=%d valid=%v", token, rec.Code, body.Valid)
		}
	}

	rec = do(r, http.MethodPost, "/api/auth/refresh", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("refresh without token: status=%d", rec.Code)
	}
	rec = do(r, http.MethodPost, "/api/auth/refresh", `{"token":"tok"}`)
	if rec.Code != http.StatusOK || stub.refreshed != "tok" {
		t.Fatalf("refresh: status=%d refreshed=%q", rec.Code, stub.refreshed)
	}
}
