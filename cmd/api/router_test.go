package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/mall/internal/application/imagesearch"
	"github.com/xiebiao/mall/internal/infrastructure/config"
	"github.com/xiebiao/mall/internal/interface/http/handler"
	"github.com/xiebiao/mall/internal/interface/http/middleware"
	"github.com/xiebiao/mall/pkg/jwt"
	"github.com/xiebiao/mall/pkg/mq"
)

type emptyBlacklist struct{}

func (emptyBlacklist) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func testRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"

	manager := jwt.NewManager("test-secret", time.Hour, time.Hour)
	r := newRouter(cfg, zap.NewNop(),
		handler.NewUserHandler(nil, nil, nil),
		handler.NewImageSearchHandler(nil, nil, nil, nil, nil, nil),
		middleware.NewAuthMiddleware(manager, emptyBlacklist{}),
	)
	return r, manager
}

func get(r http.Handler, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouterPublicEndpoints(t *testing.T) {
	r, _ := testRouter(t)

	assert.Equal(t, http.StatusOK, get(r, "/ping", ""))
	assert.Equal(t, http.StatusOK, get(r, "/metrics", ""))
}

func TestRouterAdminRoutesRequireAdmin(t *testing.T) {
	r, manager := testRouter(t)

	userToken, err := manager.GenerateToken(1, "u@example.com", "u", "user")
	require.NoError(t, err)

	for _, path := range []string{
		"/api/v1/image-search/stats",
		"/api/v1/image-search/indexed",
		"/api/v1/image-search/not-indexed",
		"/api/v1/image-search/status/1",
	} {
		assert.Equal(t, http.StatusUnauthorized, get(r, path, ""), path)
		assert.Equal(t, http.StatusForbidden, get(r, path, userToken.AccessToken), path)
	}
}

func TestLogIndexEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	event, err := mq.NewEvent(imagesearch.EventImageIndexAdded, imagesearch.IndexEvent{ProductID: 9, ContSign: "1,2"})
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)

	logIndexEvent(log, body)
	logIndexEvent(log, []byte("not json"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "图库事件", entries[0].Message)
	assert.EqualValues(t, 9, entries[0].ContextMap()["product_id"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}
