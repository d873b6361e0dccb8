package service

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"skystream/internal/clients"
	"skystream/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
}

// fakeClient - NASAClient с подменяемыми ответами.
type fakeClient struct {
	apod     func(date string) (*clients.APODResponse, error)
	neo      func(start, end string) (*clients.NEOFeedResponse, error)
	photos   func(rover string, sol, page int) (*clients.RoverPhotosResponse, error)
	manifest func(rover string) (*clients.RoverManifestResponse, error)
}

func (f *fakeClient) Fetch(context.Context, string, url.Values, time.Duration) (json.RawMessage, error) {
	return nil, &clients.APIError{Message: "not implemented"}
}

func (f *fakeClient) FetchAPOD(_ context.Context, date string) (*clients.APODResponse, error) {
	return f.apod(date)
}

func (f *fakeClient) FetchNEOFeed(_ context.Context, start, end string) (*clients.NEOFeedResponse, error) {
	return f.neo(start, end)
}

func (f *fakeClient) FetchRoverPhotos(_ context.Context, rover string, sol, page int) (*clients.RoverPhotosResponse, error) {
	return f.photos(rover, sol, page)
}

func (f *fakeClient) FetchRoverManifest(_ context.Context, rover string) (*clients.RoverManifestResponse, error) {
	return f.manifest(rover)
}

func decode[T any](t *testing.T, raw string) *T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &v
}
