package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skystream/internal/cache"
	"skystream/internal/models"
	"skystream/internal/repository"
	"skystream/internal/service"
	"skystream/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	mood   *MoodHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	apodRepo := repository.NewAPODRepository(db)
	neoRepo := repository.NewNEORepository(db)
	marsRepo := repository.NewMarsImageRepository(db)
	failedRepo := repository.NewFailedJobRepository(db)
	locker := cache.NewMemoryLocker()

	apodService := service.NewAPODService(nil, apodRepo, locker, time.Minute)
	neoService := service.NewNEOService(nil, neoRepo, locker, time.Minute)
	marsService := service.NewMarsService(nil, marsRepo, locker, service.MarsConfig{LockTTL: time.Minute})

	mood := NewMoodHandler(apodService)
	mood.now = func() time.Time { return time.Date(2024, 6, 15, 23, 0, 0, 0, time.UTC) }

	router := NewRouter(RouterConfig{}, Handlers{
		Mood:   mood,
		Impact: NewImpactHandler(neoService),
		Mars:   NewMarsHandler(marsService),
		System: NewSystemHandler(db, nil, service.NewStatsService(apodRepo, neoRepo, marsRepo, failedRepo), WorkerFlags{APOD: true}),
	})

	return &testEnv{db: db, router: router, mood: mood}
}

func (e *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (e *testEnv) seedAPOD(t *testing.T, date, title string) {
	t.Helper()
	_, err := repository.NewAPODRepository(e.db).Upsert(context.Background(), &models.APODMood{
		APODDate:     date,
		NASAID:       date,
		Title:        title,
		URL:          "https://apod.nasa.gov/" + date + ".jpg",
		Mood:         "awe",
		MoodScore:    0.85,
		ColorPalette: datatypes.JSON(`["#0A192F","#172A45","#30415D","#566E87","#B9D5F0"]`),
	})
	require.NoError(t, err)
}

func TestGetMood(t *testing.T) {
	env := setupTestEnv(t)
	env.seedAPOD(t, "2024-06-15", "Galaxy Wars")

	w, body := env.get(t, "/api/mood/2024-06-15")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "2024-06-15", data["apod_date"])
	assert.Equal(t, "awe", data["mood"])
	assert.Len(t, data["color_palette"], 5)

	w, body = env.get(t, "/api/mood/today")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Galaxy Wars", body["data"].(map[string]any)["title"])
}

func TestGetMood_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	w, body := env.get(t, "/api/mood/2024-01-01")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"status": "error", "message": msgAPODNotFound}, body)
}

func TestGetMood_InvalidDate(t *testing.T) {
	env := setupTestEnv(t)

	for _, date := range []string{"2024-13-45", "yesterday", "2024-1-5"} {
		w, body := env.get(t, "/api/mood/"+date)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, date)
		assert.Equal(t, "The date field must match the format Y-m-d.", body["message"], date)
	}
}

func TestGetCapsule(t *testing.T) {
	env := setupTestEnv(t)
	env.seedAPOD(t, "1995-06-16", "Neutron Star Earth")

	w, body := env.get(t, "/api/capsule/birthday?date=1995-06-16")
	require.Equal(t, http.StatusOK, w.Code)
	apod := body["data"].(map[string]any)["apod"].(map[string]any)
	assert.Equal(t, "Neutron Star Earth", apod["title"])

	w, body = env.get(t, "/api/capsule/birthday?date=1990-01-01")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgCapsuleNotFound, body["message"])

	w, body = env.get(t, "/api/capsule/birthday")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{"date": []any{"The date field is required."}}, body["message"])
}

func seedNEO(t *testing.T, db *gorm.DB, id, date string, km float64) {
	t.Helper()
	_, err := repository.NewNEORepository(db).Upsert(context.Background(), &models.NeowsObject{
		NeoID:             id,
		Name:              "(" + id + ")",
		CloseApproach:     datatypes.JSON(`{"close_approach_date":"` + date + `"}`),
		CloseApproachDate: date,
		MissDistanceKm:    km,
	})
	require.NoError(t, err)
}

func TestGetNearby(t *testing.T) {
	env := setupTestEnv(t)
	seedNEO(t, env.db, "far", "2024-06-15", 900000)
	seedNEO(t, env.db, "close", "2024-06-16", 1000)
	seedNEO(t, env.db, "outside", "2024-07-01", 10)

	w, body := env.get(t, "/api/impact/nearby?date_from=2024-06-15&date_to=2024-06-20&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	page := body["data"].(map[string]any)
	assert.EqualValues(t, 1, page["current_page"])
	assert.EqualValues(t, 1, page["per_page"])
	assert.EqualValues(t, 2, page["total"])
	assert.EqualValues(t, 2, page["last_page"])
	items := page["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "close", items[0].(map[string]any)["neo_id"])

	// date_to по умолчанию равен date_from
	w, body = env.get(t, "/api/impact/nearby?date_from=2024-06-15")
	require.Equal(t, http.StatusOK, w.Code)
	page = body["data"].(map[string]any)
	assert.EqualValues(t, 15, page["per_page"])
	assert.EqualValues(t, 1, page["total"])
}

func TestGetNearby_Validation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		query string
		field string
		msg   string
	}{
		{"", "date_from", "The date from field is required."},
		{"?date_from=15-06-2024", "date_from", "The date from field must match the format Y-m-d."},
		{"?date_from=2024-06-15&date_to=2024-06-14", "date_to", "The date to field must be a date after or equal to date from."},
		{"?date_from=2024-06-15&limit=0", "limit", "The limit field must be at least 1."},
		{"?date_from=2024-06-15&limit=101", "limit", "The limit field must not be greater than 100."},
		{"?date_from=2024-06-15&limit=ten", "limit", "The limit field must be an integer."},
		{"?date_from=2024-06-15&page=9223372036854775807", "page", "The page field must not be greater than 100000."},
		{"?date_from=2024-06-15&page=99999999999999999999", "page", "The page field must be an integer."},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, body := env.get(t, "/api/impact/nearby"+tt.query)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, "error", body["status"])
			messages := body["message"].(map[string]any)
			assert.Contains(t, messages[tt.field], tt.msg)
		})
	}
}

func TestGetNearby_ReportsEveryInvalidField(t *testing.T) {
	env := setupTestEnv(t)

	w, body := env.get(t, "/api/impact/nearby?limit=ten&page=0")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	messages := body["message"].(map[string]any)
	assert.Equal(t, []any{"The limit field must be an integer."}, messages["limit"])
	assert.Equal(t, []any{"The date from field is required."}, messages["date_from"])
	assert.Equal(t, []any{"The page field must be at least 1."}, messages["page"])
}

func TestExportNearby(t *testing.T) {
	env := setupTestEnv(t)
	seedNEO(t, env.db, "close", "2024-06-16", 1000)

	w, _ := env.get(t, "/api/impact/export?date_from=2024-06-15&date_to=2024-06-20")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "nearby_2024-06-15_2024-06-20.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestGetPhotos(t *testing.T) {
	env := setupTestEnv(t)
	_, err := repository.NewMarsImageRepository(env.db).InsertIgnore(context.Background(), []models.MarsImage{
		{NASAID: 1, Rover: "curiosity", Sol: 100, Camera: "FHAZ", ImgSrc: "a", EarthDate: "2024-01-01"},
		{NASAID: 2, Rover: "curiosity", Sol: 0, Camera: "NAVCAM", ImgSrc: "b", EarthDate: "2024-01-03"},
		{NASAID: 3, Rover: "perseverance", Sol: 100, Camera: "FHAZ", ImgSrc: "c", EarthDate: "2024-01-02"},
	})
	require.NoError(t, err)

	w, body := env.get(t, "/api/mars/photos")
	require.Equal(t, http.StatusOK, w.Code)
	page := body["data"].(map[string]any)
	assert.EqualValues(t, 25, page["per_page"])
	items := page["data"].([]any)
	require.Len(t, items, 3)
	assert.EqualValues(t, 2, items[0].(map[string]any)["nasa_id"])

	w, body = env.get(t, "/api/mars/photos?rover=curiosity&sol=0")
	require.Equal(t, http.StatusOK, w.Code)
	items = body["data"].(map[string]any)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "NAVCAM", items[0].(map[string]any)["camera"])

	w, body = env.get(t, "/api/mars/photos?rover=sojourner&sol=-1")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	messages := body["message"].(map[string]any)
	assert.Contains(t, messages["rover"], "The selected rover is invalid.")
	assert.Contains(t, messages["sol"], "The sol field must be at least 0.")
}

func TestGetPhotos_Validation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		query string
		field string
		msg   string
	}{
		{"?limit=500", "limit", "The limit field must not be greater than 100."},
		{"?limit=0", "limit", "The limit field must be at least 1."},
		{"?limit=abc", "limit", "The limit field must be an integer."},
		{"?sol=abc&rover=sojourner", "rover", "The selected rover is invalid."},
		{"?sol=abc", "sol", "The sol field must be an integer."},
		{"?page=100001", "page", "The page field must not be greater than 100000."},
		{"?camera=" + strings.Repeat("x", 51), "camera", "The camera field must not be greater than 50 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, body := env.get(t, "/api/mars/photos"+tt.query)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, "error", body["status"])
			messages := body["message"].(map[string]any)
			assert.Contains(t, messages[tt.field], tt.msg)
		})
	}
}

func TestHealthAndStats(t *testing.T) {
	env := setupTestEnv(t)
	env.seedAPOD(t, "2024-06-15", "Galaxy")

	w, body := env.get(t, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	services := body["data"].(map[string]any)["services"].(map[string]any)
	assert.Equal(t, "connected", services["database"])
	assert.Equal(t, "disabled", services["redis"])

	w, body = env.get(t, "/api/system/stats")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["database"].(map[string]any)["apod_mood"])
	assert.Equal(t, true, data["workers"].(map[string]any)["apod_enabled"])
}

func TestUnknownRoute(t *testing.T) {
	env := setupTestEnv(t)

	w, body := env.get(t, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", body["status"])
}
