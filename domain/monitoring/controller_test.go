package monitoring

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/internal/log"
	pkgredis "github.com/metll/metll-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type staticDatabase struct {
	db *gorm.DB
}

func (s staticDatabase) Opened() *gorm.DB {
	return s.db
}

type healthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    HealthStatus `json:"data"`
}

func newEngine(t *testing.T, db Database, cache Cache, options Options) http.Handler {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "false")

	logger := log.NewLogger(io.Discard, slog.LevelError)
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{RequestTimeout: 5 * time.Second})
	t.Cleanup(rs.Cleanup)

	rs.MountController(NewMonitoringControllerFactory(db, logger, cache, options).CreateController())
	return rs.GetEngine()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPing_DefaultMessage(t *testing.T) {
	h := newEngine(t, nil, nil, Options{})

	w := get(t, h, "/api/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"ping","data":null}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-API-Base-URL"))
}

func TestPing_ConfiguredMessageAndBaseURL(t *testing.T) {
	h := newEngine(t, nil, nil, Options{PingMessage: "hello from metll", APIBaseURL: "https://api.metll.app"})

	w := get(t, h, "/api/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"hello from metll"`)
	assert.Equal(t, "https://api.metll.app", w.Header().Get("X-API-Base-URL"))
}

func TestHealth_NothingOpened(t *testing.T) {
	h := newEngine(t, staticDatabase{}, nil, Options{})

	w := get(t, h, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Data.Database)
	assert.Equal(t, 0, resp.Data.Cache)
}

func TestHealth_DatabaseAndCacheUp(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "health.db")), &gorm.Config{})
	require.NoError(t, err)

	mr := miniredis.RunT(t)

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	h := newEngine(t, staticDatabase{db: db}, cache, Options{})

	w := get(t, h, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "health check completed", resp.Message)
	assert.Equal(t, 1, resp.Data.Database)
	assert.Equal(t, 1, resp.Data.Cache)
	assert.GreaterOrEqual(t, resp.Data.Uptime, 0)

	mr.Close()

	w = get(t, h, "/health")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Data.Cache)
}
