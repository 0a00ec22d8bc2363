package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoatlas/tracemap/internal/pkg/jwt"
	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// fakeTraceUC scripts the usecase behind the HTTP surface
type fakeTraceUC struct {
	mu        sync.Mutex
	records   []models.TraceRecord
	fetchErr  error
	createErr error
	viewports []models.Viewport
	created   []models.TraceRecord
}

func (f *fakeTraceUC) FetchViewport(ctx context.Context, viewport models.Viewport) ([]models.TraceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewports = append(f.viewports, viewport)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeTraceUC) CreateTrace(ctx context.Context, trace *models.TraceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if trace.ID == uuid.Nil {
		trace.ID = uuid.New()
	}
	f.created = append(f.created, *trace)
	return nil
}

func newTestRouter(uc *fakeTraceUC, environment string) (*echo.Echo, *models.Config) {
	cfg := &models.Config{
		App: models.AppConfig{Environment: environment},
		JWT: models.JWTConfig{
			Secret:     "handler-test-secret",
			Expiration: 60,
			Issuer:     "tracemap-test",
		},
		Engine: models.EngineConfig{DebounceMs: 10},
	}

	e := echo.New()
	NewTracesHandler(cfg, uc).RegisterRoutes(e)
	return e, cfg
}

func bearerToken(t *testing.T, cfg *models.Config) string {
	t.Helper()
	token, _, err := jwt.GenerateToken(uuid.New(), cfg)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestViewportTraces(t *testing.T) {
	uc := &fakeTraceUC{records: []models.TraceRecord{
		{ID: uuid.New(), Name: "harbour song"},
		{ID: uuid.New(), Name: "quiet park"},
	}}
	e, _ := newTestRouter(uc, "development")

	req := httptest.NewRequest(http.MethodGet, "/traces/viewport?lat=10&lon=20&lat_delta=1&lon_delta=2", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.TraceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, uc.records[0].ID, got[0].ID)

	require.Len(t, uc.viewports, 1)
	assert.Equal(t, 10.0, uc.viewports[0].Center.Latitude)
	assert.Equal(t, 20.0, uc.viewports[0].Center.Longitude)
	assert.Equal(t, 1.0, uc.viewports[0].Span.LatDelta)
	assert.Equal(t, 2.0, uc.viewports[0].Span.LonDelta)
}

func TestViewportTraces_ParamValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing lat", "lon=20&lat_delta=1&lon_delta=1"},
		{"non-numeric lon", "lat=10&lon=east&lat_delta=1&lon_delta=1"},
		{"zero span", "lat=10&lon=20&lat_delta=0&lon_delta=1"},
		{"center out of range", "lat=95&lon=20&lat_delta=1&lon_delta=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeTraceUC{}
			e, _ := newTestRouter(uc, "development")

			req := httptest.NewRequest(http.MethodGet, "/traces/viewport?"+tt.query, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, uc.viewports, "rejected request must not reach the engine")
		})
	}
}

func TestViewportTraces_EngineFailure(t *testing.T) {
	uc := &fakeTraceUC{fetchErr: errors.New("store unavailable")}
	e, _ := newTestRouter(uc, "development")

	req := httptest.NewRequest(http.MethodGet, "/traces/viewport?lat=10&lon=20&lat_delta=1&lon_delta=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateTrace_RequiresAuth(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing header", ""},
		{"malformed token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeTraceUC{}
			e, _ := newTestRouter(uc, "development")

			body := `{"name":"harbour song","latitude":-33.85,"longitude":151.21}`
			req := httptest.NewRequest(http.MethodPost, "/traces", bytes.NewBufferString(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, uc.created)
		})
	}
}

func TestCreateTrace_HappyPath(t *testing.T) {
	uc := &fakeTraceUC{}
	e, cfg := newTestRouter(uc, "development")

	body := `{"name":"harbour song","latitude":-33.85,"longitude":151.21,"media_refs":["https://media.example/harbour.m4a"]}`
	req := httptest.NewRequest(http.MethodPost, "/traces", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", bearerToken(t, cfg))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.TraceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "harbour song", got.Name)
	assert.NotEqual(t, uuid.Nil, got.ID)

	require.Len(t, uc.created, 1)
	assert.Equal(t, -33.85, uc.created[0].Latitude)
	assert.Equal(t, 151.21, uc.created[0].Longitude)
	assert.Equal(t, models.MediaRefs{"https://media.example/harbour.m4a"}, uc.created[0].MediaRefs)
}

func TestCreateTrace_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"name":`},
		{"missing name", `{"latitude":10,"longitude":20}`},
		{"coordinate out of range", `{"name":"nowhere","latitude":95,"longitude":20}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeTraceUC{}
			e, cfg := newTestRouter(uc, "development")

			req := httptest.NewRequest(http.MethodPost, "/traces", bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			req.Header.Set("Authorization", bearerToken(t, cfg))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, uc.created)
		})
	}
}

func TestDevToken(t *testing.T) {
	e, cfg := newTestRouter(&fakeTraceUC{}, "development")

	body := `{"user_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/dev-token", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got DevTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	_, err := jwt.ValidateToken(got.Token, cfg.JWT.Secret)
	assert.NoError(t, err)
	assert.Greater(t, got.ExpiresAt, int64(0))
}

func TestDevToken_BadUserID(t *testing.T) {
	e, _ := newTestRouter(&fakeTraceUC{}, "development")

	req := httptest.NewRequest(http.MethodPost, "/auth/dev-token", bytes.NewBufferString(`{"user_id":"not-a-uuid"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDevToken_NotRegisteredInProduction(t *testing.T) {
	e, _ := newTestRouter(&fakeTraceUC{}, "production")

	req := httptest.NewRequest(http.MethodPost, "/auth/dev-token", bytes.NewBufferString(`{"user_id":"`+uuid.NewString()+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
