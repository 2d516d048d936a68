package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	FullName    string `json:"full_name" binding:"max=100"`
	PhoneNumber string `json:"phone_number" binding:"max=20"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := ah.authService.Register(dbctx.Context{Ctx: c.Request.Context()}, services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := ah.authService.Login(dbctx.Context{Ctx: c.Request.Context()}, req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/auth/introspect
func (ah *AuthHandler) Introspect(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	valid, err := ah.authService.Introspect(c.Request.Context(), req.Token)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"valid": valid})
}

// POST /api/auth/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := ah.authService.Refresh(dbctx.Context{Ctx: c.Request.Context()}, req.Token)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(dbctx.Context{Ctx: c.Request.Context()}); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
