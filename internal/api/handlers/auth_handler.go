package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jobdeckhq/jobdeck/internal/api/middleware"
	"github.com/jobdeckhq/jobdeck/internal/models"
	"github.com/jobdeckhq/jobdeck/internal/services"
	"github.com/jobdeckhq/jobdeck/internal/session"
	"github.com/jobdeckhq/jobdeck/internal/utils"
)

type AuthHandler struct {
	svc          services.AuthService
	secureCookie bool
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		secureCookie: os.Getenv("COOKIE_SECURE") == "true",
	}
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the signup/login envelope; the full user document is only
// returned by /auth/me.
type UserResponse struct {
	ID      string         `json:"id"`
	Email   string         `json:"email"`
	Profile models.Profile `json:"profile"`
}

func userResponse(u *models.User) gin.H {
	return gin.H{"user": UserResponse{
		ID:      u.ID.Hex(),
		Email:   u.Email,
		Profile: u.Profile,
	}}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sid, int(session.TTL.Seconds()), "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Signup", "email and password are required", err))
		return
	}

	u, sid, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, sid)
	c.JSON(http.StatusCreated, userResponse(u))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Login", "email and password are required", err))
		return
	}

	u, sid, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, sid)
	c.JSON(http.StatusOK, userResponse(u))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetString("session_id")
	if err := h.svc.Logout(c.Request.Context(), sid); err != nil {
		writeError(c, err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	if u, ok := c.Get("user"); ok {
		c.JSON(http.StatusOK, u)
		return
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "AuthHandler.Me", "please log in to continue", nil))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.UpdateProfile", "invalid request body", err))
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}
