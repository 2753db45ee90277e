package handlers

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitab/internal/middleware"
	"kitab/internal/models"
	"kitab/internal/utils"
)

// guestMaxAge keeps guest mode for 24 hours.
const guestMaxAge = 60 * 60 * 24

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthHandler struct {
	users        UserStore
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthHandler(users UserStore, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		secureCookie: secureCookie,
		logger:       logger.Named("auth_handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPasswordHash(req.Password, user.Password) {
		Fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		Fail(c, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	OK(c, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.logger.Warn("Failed to clear session", zap.Error(err))
	}
	OK(c, nil)
}

// EnterGuest turns on read-only guest mode for this browser.
func (h *AuthHandler) EnterGuest(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.GuestCookie, "true", guestMaxAge, "/", "", h.secureCookie, true)
	OK(c, nil)
}

func (h *AuthHandler) LeaveGuest(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.GuestCookie, "", -1, "/", "", h.secureCookie, true)
	OK(c, nil)
}
