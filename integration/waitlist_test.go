package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/metll/metll-backend/config"
	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/domain"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type entryData struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newApplication(logger *log.Logger, autoMigrate bool) *config.ApplicationConfig {
	appConfig := &config.ApplicationConfig{
		Database:    config.NewDatabaseProvider(logger, nil),
		Logger:      logger,
		Config:      config.NewAppConfig(),
		AutoMigrate: autoMigrate,
	}

	appConfig.RouterService = router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	return appConfig
}

func postJSON(url, body string) (*http.Response, envelope, error) {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		return nil, envelope{}, err
	}
	defer resp.Body.Close()

	var decoded envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, decoded, err
	}
	err = json.NewDecoder(bytes.NewReader(raw)).Decode(&decoded)
	return resp, decoded, err
}

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	server    *httptest.Server
	baseURL   string
	appConfig *config.ApplicationConfig
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	t := suite.T()
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(t.TempDir(), "waitlist.db"))
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "1000")
	t.Setenv("PING_MESSAGE", "metll says hi")
	t.Setenv("API_BASE_URL", "https://api.metll.test")

	logger := log.NewLogger(io.Discard, slog.LevelError)
	suite.appConfig = newApplication(logger, true)

	suite.Require().NoError(domain.SetupCoreDomain(suite.appConfig))

	var err error
	suite.db, err = suite.appConfig.Database.DB()
	suite.Require().NoError(err)

	suite.server = httptest.NewServer(suite.appConfig.RouterService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.appConfig != nil {
		suite.appConfig.Cleanup()
	}
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("DELETE FROM waitlist_entries").Error)
}

func (suite *WaitlistAPITestSuite) countEntries() int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(&models.WaitlistEntry{}).Count(&count).Error)
	return count
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	resp, err := http.Get(suite.baseURL + "/health")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var response envelope
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))

	suite.True(response.Success)
	suite.Equal("health check completed", response.Message)

	var data map[string]int
	suite.Require().NoError(json.Unmarshal(response.Data, &data))
	suite.Equal(1, data["database"])
	suite.Equal(0, data["cache"])
	suite.Contains(data, "uptime")
}

func (suite *WaitlistAPITestSuite) TestPing() {
	resp, err := http.Get(suite.baseURL + "/api/ping")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("https://api.metll.test", resp.Header.Get("X-API-Base-URL"))

	var response envelope
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	suite.Equal("metll says hi", response.Message)
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist() {
	resp, response, err := postJSON(suite.baseURL+"/api/waitlist", `{"name":" Ada ","email":"ada@metll.app","suggestion":"Invite my friends"}`)
	suite.Require().NoError(err)

	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.True(response.Success)
	suite.Equal("Successfully joined the waitlist!", response.Message)
	suite.NotEmpty(resp.Header.Get("X-Correlation-ID"))

	var data entryData
	suite.Require().NoError(json.Unmarshal(response.Data, &data))
	suite.NotZero(data.ID)
	suite.Equal("Ada", data.Name)
	suite.Equal("ada@metll.app", data.Email)

	var stored models.WaitlistEntry
	suite.Require().NoError(suite.db.First(&stored, data.ID).Error)
	suite.Require().NotNil(stored.Suggestion)
	suite.Equal("Invite my friends", *stored.Suggestion)
	suite.False(stored.CreatedAt.IsZero())
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_Duplicate() {
	resp, _, err := postJSON(suite.baseURL+"/api/waitlist", `{"name":"Ada","email":"ada@metll.app"}`)
	suite.Require().NoError(err)
	suite.Equal(http.StatusCreated, resp.StatusCode)

	resp, response, err := postJSON(suite.baseURL+"/api/waitlist", `{"name":"Bob","email":"ada@metll.app"}`)
	suite.Require().NoError(err)

	suite.Equal(http.StatusConflict, resp.StatusCode)
	suite.False(response.Success)
	suite.Equal("This email is already on the waitlist", response.Error)
	suite.Equal(int64(1), suite.countEntries())
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_Validation() {
	resp, response, err := postJSON(suite.baseURL+"/api/waitlist", `{"name":"Ada","email":"not-an-email"}`)
	suite.Require().NoError(err)

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("Invalid email address", response.Error)
	suite.Zero(suite.countEntries())
}

func (suite *WaitlistAPITestSuite) TestUnknownRoute() {
	resp, err := http.Get(suite.baseURL + "/api/does-not-exist")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusNotFound, resp.StatusCode)

	var response envelope
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	suite.Equal("API endpoint not found", response.Error)
}

func TestSetupCoreDomain_FailsWithoutDatabaseConfig(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "APP_DATABASE_URL", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_DB_NAME"} {
		t.Setenv(key, "")
	}
	t.Setenv("METRICS_ENABLED", "false")

	appConfig := newApplication(log.NewLogger(io.Discard, slog.LevelError), false)
	defer appConfig.Cleanup()

	err := domain.SetupCoreDomain(appConfig)
	if err == nil {
		t.Fatal("expected setup to fail without database configuration")
	}
	if !errors.Is(err, config.ErrDatabaseNotConfigured) {
		t.Fatalf("expected ErrDatabaseNotConfigured, got %v", err)
	}
}

func TestWaitlistAPISuite(t *testing.T) {
	// Skip integration tests unless explicitly requested
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests. Set RUN_INTEGRATION_TESTS=true to run them")
	}

	suite.Run(t, new(WaitlistAPITestSuite))
}
