package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/users"
)

type recordingEnsurer struct {
	got []users.UpsertUser
	err error
}

func (r *recordingEnsurer) EnsureUser(_ context.Context, u users.UpsertUser) error {
	r.got = append(r.got, u)
	return r.err
}

func TestHeaderUserAndRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	withHeader := gin.New()
	withHeader.Use(HeaderUser(), RequireUser())
	withHeader.GET("/", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", " u1 ")
	w := httptest.NewRecorder()
	withHeader.ServeHTTP(w, req)
	assert.Equal(t, "u1", w.Body.String())

	w = httptest.NewRecorder()
	withHeader.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "demo-user", w.Body.String())

	anonymous := gin.New()
	anonymous.Use(RequireUser())
	anonymous.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w = httptest.NewRecorder()
	anonymous.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"user not authenticated"}`, w.Body.String())
}

func TestWithUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &recordingEnsurer{}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(CtxUserID, "u1")
		c.Set(CtxEmail, "ada@example.com")
		c.Next()
	}, WithUser(repo, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Email", "ignored@example.com")
	req.Header.Set("X-User-Name", "Ada")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []users.UpsertUser{{ID: "u1", Email: "ada@example.com", DisplayName: "Ada"}}, repo.got)

	repo.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Failed to load user"}`, w.Body.String())
}
