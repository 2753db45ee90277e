package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kitab/internal/comments"
	"kitab/internal/models"
	"kitab/internal/store/memstore"
)

func newEngine(t *testing.T) (*gin.Engine, *memstore.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memstore.New()
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(LoadViewer(db.Users(), zap.NewNop()))

	r.GET("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, c.Param("id"))
		require.NoError(t, s.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentViewer(c))
	})
	r.POST("/write", AuthRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, db
}

func do(r *gin.Engine, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadViewer(t *testing.T) {
	r, db := newEngine(t)
	admin := db.AddUser(models.User{Name: "Root", Email: "root@example.com", Role: models.RoleAdmin})

	t.Run("anonymous", func(t *testing.T) {
		w := do(r, http.MethodGet, "/whoami", nil)
		assert.JSONEq(t, `{"UserID":"","Authenticated":false,"Guest":false,"Admin":false}`, w.Body.String())

		w = do(r, http.MethodPost, "/write", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	login := do(r, http.MethodGet, "/login/"+admin.ID, nil)
	require.Equal(t, http.StatusNoContent, login.Code)
	session := login.Result().Cookies()

	t.Run("signed in", func(t *testing.T) {
		w := do(r, http.MethodGet, "/whoami", session)
		assert.JSONEq(t, `{"UserID":"`+admin.ID+`","Authenticated":true,"Guest":false,"Admin":true}`, w.Body.String())

		w = do(r, http.MethodPost, "/write", session)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("guest mode is read-only", func(t *testing.T) {
		cookies := append([]*http.Cookie{{Name: GuestCookie, Value: "true"}}, session...)

		w := do(r, http.MethodGet, "/whoami", cookies)
		var viewer comments.Viewer
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewer))
		assert.True(t, viewer.Guest)
		assert.False(t, viewer.CanWrite())

		w = do(r, http.MethodPost, "/write", cookies)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("stale session", func(t *testing.T) {
		stale := do(r, http.MethodGet, "/login/ghost", nil).Result().Cookies()

		w := do(r, http.MethodGet, "/whoami", stale)
		var viewer comments.Viewer
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewer))
		assert.Equal(t, comments.Anonymous, viewer)
	})
}
