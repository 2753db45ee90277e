package middleware

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitab/internal/comments"
	"kitab/internal/models"
)

const (
	CheckUserKey = "user"
	ViewerKey    = "viewer"

	// SessionUserKey is the session field holding the signed-in user id.
	SessionUserKey = "user_id"

	// GuestCookie switches the browser into read-only guest mode.
	GuestCookie = "kitab_guest_mode"
)

type UserLookup interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// LoadViewer resolves the request's viewer from the session and the guest cookie.
// A session pointing at a vanished user is cleared.
func LoadViewer(users UserLookup, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("auth")

	return func(c *gin.Context) {
		viewer := comments.Anonymous

		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(string); ok && userID != "" {
			user, err := users.FindUser(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
				viewer = comments.Viewer{
					UserID:        user.ID,
					Authenticated: true,
					Admin:         user.IsAdmin(),
				}
			default:
				logger.Debug("Dropping stale session", zap.String("userID", userID), zap.Error(err))
				session.Delete(SessionUserKey)
				if err := session.Save(); err != nil {
					logger.Warn("Failed to save session", zap.Error(err))
				}
			}
		}

		if mode, err := c.Cookie(GuestCookie); err == nil && mode == "true" {
			viewer.Guest = true
		}

		c.Set(ViewerKey, viewer)
		c.Next()
	}
}

// CurrentViewer returns the viewer stored by LoadViewer, or Anonymous.
func CurrentViewer(c *gin.Context) comments.Viewer {
	if v, ok := c.Get(ViewerKey); ok {
		if viewer, ok := v.(comments.Viewer); ok {
			return viewer
		}
	}
	return comments.Anonymous
}

// AuthRequired rejects requests from viewers who cannot write.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentViewer(c).CanWrite() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "You must be logged in",
			})
			return
		}
		c.Next()
	}
}
