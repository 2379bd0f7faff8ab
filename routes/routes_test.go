package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/database"
	"zone-alerts-vms/be/middleware"
	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/services"
	"zone-alerts-vms/be/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeBlobs struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (f *fakeBlobs) Upload(_ context.Context, _ string, blobName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, blobName)
	return "https://blobs.example/" + blobName + "?sig=x", nil
}

func (f *fakeBlobs) Delete(_ context.Context, blobName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, blobName)
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []services.Notification
}

func (f *fakeDispatcher) Dispatch(_ context.Context, n services.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	blobs    *fakeBlobs
	notifier *fakeDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	key, err := utils.GenerateKey()
	require.NoError(t, err)
	cipher, err := utils.NewCipher(key)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Auth:    config.AuthConfig{SigningSecret: "route-test-secret", FernetKey: key},
		Uploads: config.UploadsConfig{Dir: t.TempDir()},
	}

	rtsp := services.NewRTSPService(config.RTSPConfig{ProbeTimeout: time.Second}, zap.NewNop()).
		WithDialer(func(uri string, _ time.Duration) ([]string, error) {
			if strings.Contains(uri, "offline") {
				return nil, fmt.Errorf("connection refused")
			}
			return []string{"H264"}, nil
		})

	s := &testServer{db: db, blobs: &fakeBlobs{}, notifier: &fakeDispatcher{}}
	s.router = Setup(Deps{
		Config:   cfg,
		DB:       db,
		Cipher:   cipher,
		Blobs:    s.blobs,
		Notifier: s.notifier,
		RTSP:     rtsp,
		Metrics:  middleware.NewMetrics(),
		Logger:   zap.NewNop(),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in, returning a bearer token.
func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/register", "", gin.H{
		"name": "Test", "lastname": "User", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) createCamera(t *testing.T, token, name string) models.Camera {
	t.Helper()
	w := s.do(t, http.MethodPost, "/cameras", token, gin.H{
		"camera_name": name, "ip_address": "192.168.1.20", "username": "admin", "password": "cam-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var camera models.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &camera))
	return camera
}

func zonePayload(cameraID uint, threshold int) gin.H {
	return gin.H{
		"camera_id":       cameraID,
		"coords":          []gin.H{{"x": 0, "y": 0}, {"x": 640, "y": 0}, {"x": 640, "y": 480}},
		"type":            "critical",
		"alert_threshold": threshold,
	}
}

func (s *testServer) createZone(t *testing.T, token string, cameraID uint, telegram string) models.Zone {
	t.Helper()
	z := zonePayload(cameraID, 10)
	if telegram != "" {
		z["alert_telegram"] = telegram
	}
	w := s.do(t, http.MethodPost, "/zones", token, gin.H{"zones": []gin.H{z}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var zones []models.Zone
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	require.Len(t, zones, 1)
	return zones[0]
}

func (s *testServer) uploadAlert(t *testing.T, token string, zoneID uint) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("zone_id", fmt.Sprint(zoneID)))
	require.NoError(t, mw.WriteField("person_count", "3"))
	part, err := mw.CreateFormFile("video", "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake mp4 bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/alerts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegisterLoginZoneScenario(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")

	camera := s.createCamera(t, token, "Cam1")
	w := s.do(t, http.MethodPost, "/zones", token, gin.H{"zones": []gin.H{zonePayload(camera.ID, 10)}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/zones", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	zones := decodeList(t, w)
	require.Len(t, zones, 1)
	assert.EqualValues(t, 10, zones[0]["alert_threshold"])
	assert.EqualValues(t, camera.ID, zones[0]["camera_id"])

	other := s.signup(t, "b@x.com")
	w = s.do(t, http.MethodGet, "/zones", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAccessGuard(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")

	tests := []struct {
		name   string
		header string
		status int
		error  string
	}{
		{"missing header", "", http.StatusUnauthorized, "Token is missing!"},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, "Token is invalid!"},
		{"bearer prefix", "Bearer " + token, http.StatusOK, ""},
		{"lowercase prefix", "bearer " + token, http.StatusOK, ""},
		{"raw token", token, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/current_user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.error != "" {
				assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.error), w.Body.String())
			}
		})
	}

	w := s.do(t, http.MethodGet, "/current_user", token, nil)
	var me map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "a@x.com", me["email"])
	assert.NotContains(t, me, "password")
}

func TestCrossTenantRequestsAreNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice@x.com")
	bob := s.signup(t, "bob@x.com")

	camera := s.createCamera(t, alice, "front")
	zone := s.createZone(t, alice, camera.ID, "")
	w := s.uploadAlert(t, alice, zone.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var alert models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))

	requests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, fmt.Sprintf("/cameras/%d", camera.ID), nil},
		{http.MethodPut, fmt.Sprintf("/cameras/%d", camera.ID), gin.H{"camera_name": "mine now"}},
		{http.MethodDelete, fmt.Sprintf("/cameras/%d", camera.ID), nil},
		{http.MethodGet, fmt.Sprintf("/cameras/%d/probe", camera.ID), nil},
		{http.MethodGet, fmt.Sprintf("/camera/zones/%d", camera.ID), nil},
		{http.MethodGet, fmt.Sprintf("/zones/%d", zone.ID), nil},
		{http.MethodPut, fmt.Sprintf("/zones/%d", zone.ID), gin.H{"alert_threshold": 99}},
		{http.MethodDelete, fmt.Sprintf("/zones/%d", zone.ID), nil},
		{http.MethodGet, fmt.Sprintf("/alerts/%d", alert.ID), nil},
		{http.MethodDelete, fmt.Sprintf("/alerts/%d", alert.ID), nil},
	}
	for _, r := range requests {
		w := s.do(t, r.method, r.path, bob, r.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", r.method, r.path)
	}

	w = s.uploadAlert(t, bob, zone.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/cameras/%d", camera.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"camera_name":"front"`)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/zones/%d", zone.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alert_threshold":10`)

	w = s.do(t, http.MethodGet, "/alerts", alice, nil)
	assert.Len(t, decodeList(t, w), 1)
}

func TestZoneBatchWithForeignCameraPersistsNothing(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice@x.com")
	bob := s.signup(t, "bob@x.com")
	aliceCamera := s.createCamera(t, alice, "front")
	bobCamera := s.createCamera(t, bob, "garage")

	w := s.do(t, http.MethodPost, "/zones", alice, gin.H{"zones": []gin.H{
		zonePayload(aliceCamera.ID, 5),
		zonePayload(bobCamera.ID, 5),
	}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("camera %d", bobCamera.ID))

	w = s.do(t, http.MethodGet, "/zones", alice, nil)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = s.do(t, http.MethodGet, "/zones", bob, nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")
	camera := s.createCamera(t, token, "front")
	zone := s.createZone(t, token, camera.ID, "")
	cameraPath := fmt.Sprintf("/cameras/%d", camera.ID)
	zonePath := fmt.Sprintf("/zones/%d", zone.ID)

	badZone := zonePayload(camera.ID, 0)
	shortCoords := zonePayload(camera.ID, 1)
	shortCoords["coords"] = []gin.H{{"x": 0, "y": 0}}
	badType := zonePayload(camera.ID, 1)
	badType["type"] = "urgent"
	badSchedule := zonePayload(camera.ID, 1)
	badSchedule["schedule_start"] = "25:99"

	tests := []struct {
		name, method, path string
		body               any
		status             int
	}{
		{"register short password", http.MethodPost, "/register", gin.H{"name": "a", "lastname": "b", "email": "c@x.com", "password": "123"}, http.StatusBadRequest},
		{"register duplicate email", http.MethodPost, "/register", gin.H{"name": "a", "lastname": "b", "email": "a@x.com", "password": "secret123"}, http.StatusConflict},
		{"login wrong password", http.MethodPost, "/login", gin.H{"email": "a@x.com", "password": "wrong-one"}, http.StatusUnauthorized},
		{"login unknown user", http.MethodPost, "/login", gin.H{"email": "nobody@x.com", "password": "secret123"}, http.StatusUnauthorized},
		{"camera without name", http.MethodPost, "/cameras", gin.H{"ip_address": "1.2.3.4", "username": "u", "password": "p"}, http.StatusBadRequest},
		{"camera bad status", http.MethodPut, cameraPath, gin.H{"status": "broken"}, http.StatusBadRequest},
		{"camera empty password", http.MethodPut, cameraPath, gin.H{"password": ""}, http.StatusBadRequest},
		{"camera empty username", http.MethodPut, cameraPath, gin.H{"username": ""}, http.StatusBadRequest},
		{"camera bad id", http.MethodGet, "/cameras/abc", nil, http.StatusBadRequest},
		{"zone threshold zero", http.MethodPost, "/zones", gin.H{"zones": []gin.H{badZone}}, http.StatusBadRequest},
		{"zone too few points", http.MethodPost, "/zones", gin.H{"zones": []gin.H{shortCoords}}, http.StatusBadRequest},
		{"zone unknown type", http.MethodPost, "/zones", gin.H{"zones": []gin.H{badType}}, http.StatusBadRequest},
		{"zone bad schedule", http.MethodPost, "/zones", gin.H{"zones": []gin.H{badSchedule}}, http.StatusBadRequest},
		{"zone empty batch", http.MethodPost, "/zones", gin.H{"zones": []gin.H{}}, http.StatusBadRequest},
		{"zone update bad email", http.MethodPut, zonePath, gin.H{"alert_email": "not-an-email"}, http.StatusBadRequest},
		{"zone update sets email", http.MethodPut, zonePath, gin.H{"alert_email": "ops@x.com"}, http.StatusOK},
		{"zone update clears email", http.MethodPut, zonePath, gin.H{"alert_email": ""}, http.StatusOK},
		{"stats bad date", http.MethodGet, "/stats/daily-count?start_date=01-05-2024", nil, http.StatusBadRequest},
		{"stats reversed range", http.MethodGet, "/stats/daily-count?start_date=2024-05-10&end_date=2024-05-01", nil, http.StatusBadRequest},
		{"stats range over a year", http.MethodGet, "/stats/daily-count?start_date=0001-01-01&end_date=9999-12-31", nil, http.StatusBadRequest},
		{"export range over a year", http.MethodGet, "/stats/export?start_date=2023-01-01&end_date=2024-01-02", nil, http.StatusBadRequest},
		{"daily alerts bad date", http.MethodGet, "/stats/daily-alerts/yesterday", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := s.do(t, http.MethodGet, cameraPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, camera.Password, stored.Password)
	assert.Equal(t, "admin", stored.Username)

	w = s.do(t, http.MethodGet, zonePath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alert_email":null`)
}

func TestStatsRangeLimit(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")

	w := s.do(t, http.MethodGet, "/stats/daily-count?start_date=2024-01-01&end_date=2024-12-31", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeList(t, w), 366)

	w = s.do(t, http.MethodGet, "/stats/person-count?start_date=2024-01-01&end_date=2025-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"date range must not exceed 366 days"}`, w.Body.String())
}

func TestCameraLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")
	camera := s.createCamera(t, token, "front")

	assert.Equal(t, models.CameraStatusActive, camera.Status)
	assert.NotEqual(t, "cam-pass", camera.Password)

	w := s.do(t, http.MethodPut, fmt.Sprintf("/cameras/%d", camera.ID), token, gin.H{"location": "lobby", "status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"location":"lobby"`)
	assert.Contains(t, w.Body.String(), `"camera_name":"front"`)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/cameras/%d/probe", camera.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var probe services.ProbeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &probe))
	assert.True(t, probe.Reachable)
	assert.Equal(t, []string{"H264"}, probe.Codecs)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/cameras/%d", camera.ID), token, gin.H{"rtsp_url": "rtsp://offline/stream"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, fmt.Sprintf("/cameras/%d/probe", camera.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &probe))
	assert.False(t, probe.Reachable)

	s.createZone(t, token, camera.ID, "")
	w = s.do(t, http.MethodGet, fmt.Sprintf("/camera/zones/%d", camera.ID), token, nil)
	assert.Len(t, decodeList(t, w), 1)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/cameras/%d", camera.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/zones", token, nil)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = s.do(t, http.MethodGet, fmt.Sprintf("/cameras/%d", camera.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")
	camera := s.createCamera(t, token, "front")
	zone := s.createZone(t, token, camera.ID, "987654")

	w := s.uploadAlert(t, token, zone.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var alert models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))
	assert.Equal(t, zone.ID, alert.ZoneID)
	assert.Equal(t, 3, alert.PersonCount)
	assert.Contains(t, alert.VideoURL, "https://blobs.example/")

	require.Len(t, s.blobs.uploaded, 1)
	assert.Regexp(t, `^\d+/\d{4}-\d{2}-\d{2}/\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}-[0-9a-f-]{36}\.mp4$`, s.blobs.uploaded[0])

	require.Len(t, s.notifier.sent, 1)
	assert.Equal(t, "987654", s.notifier.sent[0].ChatID)
	assert.FileExists(t, s.notifier.sent[0].VideoPath)
	assert.Contains(t, s.notifier.sent[0].Text, "3 person(s)")

	w = s.do(t, http.MethodGet, fmt.Sprintf("/alerts/%d", alert.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "video_blob")

	today := time.Now().UTC().Format("2006-01-02")
	w = s.do(t, http.MethodGet, "/stats/daily-alerts/"+today, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/alerts/%d", alert.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.blobs.uploaded, s.blobs.deleted)

	w = s.do(t, http.MethodGet, "/alerts", token, nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAlertWithoutChatIsNotDispatched(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")
	camera := s.createCamera(t, token, "front")
	zone := s.createZone(t, token, camera.ID, "")

	w := s.uploadAlert(t, token, zone.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, s.notifier.sent)
}

func TestStatsEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")
	camera := s.createCamera(t, token, "front")
	zone := s.createZone(t, token, camera.ID, "")
	require.Equal(t, http.StatusCreated, s.uploadAlert(t, token, zone.ID).Code)

	w := s.do(t, http.MethodGet, "/stats/daily-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	days := decodeList(t, w)
	require.Len(t, days, 31)
	assert.EqualValues(t, 1, days[30]["count"])

	w = s.do(t, http.MethodGet, "/stats/person-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	days = decodeList(t, w)
	assert.EqualValues(t, 3, days[30]["count"])

	w = s.do(t, http.MethodGet, "/stats/hourly-distribution", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 24)

	w = s.do(t, http.MethodGet, "/stats/alerts-by-zone", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	byZone := decodeList(t, w)
	require.Len(t, byZone, 1)
	assert.Equal(t, "front", byZone[0]["camera_name"])
	assert.EqualValues(t, 1, byZone[0]["count"])

	w = s.do(t, http.MethodGet, "/stats/export?start_date=2024-01-01&end_date=2024-01-31", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "alerts_2024-01-01_2024-01-31.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@x.com")
	camera := s.createCamera(t, token, "front")
	zone := s.createZone(t, token, camera.ID, "")
	require.Equal(t, http.StatusCreated, s.uploadAlert(t, token, zone.ID).Code)

	w := s.do(t, http.MethodPost, "/change_password", token, gin.H{"old_password": "wrong", "new_password": "another1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/change_password", token, gin.H{"old_password": "secret123", "new_password": "another1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "a@x.com", "password": "another1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/delete_account", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cameras, zones, alerts int64
	s.db.Model(&models.Camera{}).Count(&cameras)
	s.db.Model(&models.Zone{}).Count(&zones)
	s.db.Model(&models.Alert{}).Count(&alerts)
	assert.Zero(t, cameras)
	assert.Zero(t, zones)
	assert.Zero(t, alerts)

	w = s.do(t, http.MethodGet, "/current_user", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found!"}`, w.Body.String())
}

func TestHealthMetricsAndCORS(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	s.do(t, http.MethodGet, "/cameras", "", nil)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `auth_failures_total{reason="missing"} 1`)

	req := httptest.NewRequest(http.MethodOptions, "/cameras", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
