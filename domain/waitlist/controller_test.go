package waitlist

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type joinResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Data    *WaitlistEntryResponse `json:"data"`
}

type waitlistAPI struct {
	t      *testing.T
	db     *gorm.DB
	engine http.Handler
}

func newWaitlistAPI(t *testing.T, requestsPerMinute int) *waitlistAPI {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "false")

	logger := log.NewLogger(io.Discard, slog.LevelError)
	db := newSQLiteDB(t)

	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	t.Cleanup(rs.Cleanup)

	service := NewWaitlistService(logger, NewWaitlistRepository(db), nil)
	rs.MountController(NewWaitlistController(service, requestsPerMinute))

	return &waitlistAPI{t: t, db: db, engine: rs.GetEngine()}
}

func (api *waitlistAPI) post(body string) (*httptest.ResponseRecorder, joinResponse) {
	api.t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	var resp joinResponse
	require.NoError(api.t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp), w.Body.String())
	return w, resp
}

func (api *waitlistAPI) count() int64 {
	api.t.Helper()

	var n int64
	require.NoError(api.t, api.db.Model(&models.WaitlistEntry{}).Count(&n).Error)
	return n
}

func TestJoinWaitlist_Created(t *testing.T) {
	api := newWaitlistAPI(t, 30)

	w, resp := api.post(`{"name":"Ada","email":"a@b.co"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully joined the waitlist!", resp.Message)
	require.NotNil(t, resp.Data)
	assert.NotZero(t, resp.Data.ID)
	assert.Equal(t, "Ada", resp.Data.Name)
	assert.Equal(t, "a@b.co", resp.Data.Email)

	var stored models.WaitlistEntry
	require.NoError(t, api.db.First(&stored, resp.Data.ID).Error)
	assert.Nil(t, stored.Suggestion)
}

func TestJoinWaitlist_DuplicateEmail(t *testing.T) {
	api := newWaitlistAPI(t, 30)

	first, _ := api.post(`{"name":"Ada","email":"a@b.co"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	w, resp := api.post(`{"name":"Bob","email":"a@b.co","suggestion":"hi"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "This email is already on the waitlist", resp.Error)
	assert.Equal(t, int64(1), api.count())
}

func TestJoinWaitlist_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"invalid email", `{"name":"Ada","email":"not-an-email"}`, "Invalid email address"},
		{"name too long", `{"name":"` + strings.Repeat("x", 256) + `","email":"a@b.co"}`, "Name must not exceed 255 characters"},
		{"missing name", `{"email":"a@b.co"}`, "Name is required"},
		{"missing email", `{"name":"Ada"}`, "Email is required"},
		{"suggestion too long", `{"name":"Ada","email":"a@b.co","suggestion":"` + strings.Repeat("s", 1001) + `"}`, "Suggestion must not exceed 1000 characters"},
		{"malformed json", `{"name":`, "Invalid request body"},
		{"wrong type", `{"name":42,"email":"a@b.co"}`, "Invalid request body"},
		{"empty body", ``, "Invalid request body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newWaitlistAPI(t, 30)

			w, resp := api.post(tc.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.want, resp.Error)
			assert.Zero(t, api.count())
		})
	}
}

func TestJoinWaitlist_RepeatedInvalidSubmission(t *testing.T) {
	api := newWaitlistAPI(t, 30)
	body := `{"name":"Bo","email":"not-an-email"}`

	first, firstResp := api.post(body)
	second, secondResp := api.post(body)

	require.Equal(t, http.StatusBadRequest, first.Code)
	require.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "Invalid email address", firstResp.Error)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, firstResp, secondResp)
	assert.Zero(t, api.count())
}

func TestJoinWaitlist_BlankSuggestionStoredAsNull(t *testing.T) {
	cases := map[string]string{
		"omitted":    `{"name":"Ada","email":"a@b.co"}`,
		"null":       `{"name":"Ada","email":"a@b.co","suggestion":null}`,
		"empty":      `{"name":"Ada","email":"a@b.co","suggestion":""}`,
		"whitespace": `{"name":"Ada","email":"a@b.co","suggestion":"   "}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			api := newWaitlistAPI(t, 30)

			w, resp := api.post(body)
			require.Equal(t, http.StatusCreated, w.Code)

			var stored models.WaitlistEntry
			require.NoError(t, api.db.First(&stored, resp.Data.ID).Error)
			assert.Nil(t, stored.Suggestion)
		})
	}
}

func TestJoinWaitlist_SuggestionLengthCountsRawText(t *testing.T) {
	api := newWaitlistAPI(t, 30)

	padded := "  " + strings.Repeat("s", 999) + "  "
	w, resp := api.post(`{"name":"Ada","email":"a@b.co","suggestion":"` + padded + `"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Suggestion must not exceed 1000 characters", resp.Error)
	assert.Zero(t, api.count())

	w, resp = api.post(`{"name":"Ada","email":"a@b.co","suggestion":" more dogs "}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.WaitlistEntry
	require.NoError(t, api.db.First(&stored, resp.Data.ID).Error)
	require.NotNil(t, stored.Suggestion)
	assert.Equal(t, " more dogs ", *stored.Suggestion)
}

func TestJoinWaitlist_StoreFailure(t *testing.T) {
	api := newWaitlistAPI(t, 30)

	sqlDB, err := api.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w, resp := api.post(`{"name":"Ada","email":"a@b.co"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to join waitlist. Please try again later.", resp.Error)
	assert.NotContains(t, w.Body.String(), "closed")
}

func TestJoinWaitlist_RateLimited(t *testing.T) {
	api := newWaitlistAPI(t, 2)

	for i, email := range []string{"a@b.co", "c@d.co"} {
		w, _ := api.post(`{"name":"Ada","email":"` + email + `"}`)
		require.Equal(t, http.StatusCreated, w.Code, "request %d", i)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w, resp := api.post(`{"name":"Ada","email":"e@f.co"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, int64(2), api.count())
}

func TestJoinWaitlist_WrongMethod(t *testing.T) {
	api := newWaitlistAPI(t, 30)

	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/waitlist", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
