package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"zone-alerts-vms/be/database"
	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a migrated sqlite database with foreign keys enforced.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "repo.db") + "?_foreign_keys=on"
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
	return db
}

func testCipher(t *testing.T) *utils.Cipher {
	t.Helper()
	key, err := utils.GenerateKey()
	require.NoError(t, err)
	c, err := utils.NewCipher(key)
	require.NoError(t, err)
	return c
}

type fixture struct {
	db      *gorm.DB
	users   *UserRepository
	cameras *CameraRepository
	zones   *ZoneRepository
	alerts  *AlertRepository
	stats   *StatsRepository
	owner   *Ownership
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	return &fixture{
		db:      db,
		users:   NewUserRepository(db),
		cameras: NewCameraRepository(db, testCipher(t)),
		zones:   NewZoneRepository(db),
		alerts:  NewAlertRepository(db),
		stats:   NewStatsRepository(db),
		owner:   NewOwnership(db),
	}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Lastname: "User", Email: email, Password: "hash"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) camera(t *testing.T, userID uint, name string) *models.Camera {
	t.Helper()
	c := &models.Camera{
		Name:      name,
		IPAddress: "10.0.0.5",
		Username:  "admin",
		Password:  "secret",
		RTSPUrl:   "rtsp://10.0.0.5/stream",
	}
	require.NoError(t, f.cameras.Create(context.Background(), userID, c))
	return c
}

func testZone(cameraID uint) models.Zone {
	return models.Zone{
		CameraID:       cameraID,
		Coords:         datatypes.JSONSlice[models.Point]{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}},
		Type:           models.ZoneTypeCritical,
		AlertThreshold: 1,
		ScheduleStart:  datatypes.NewTime(8, 0, 0, 0),
		ScheduleEnd:    datatypes.NewTime(18, 0, 0, 0),
	}
}

func (f *fixture) zone(t *testing.T, userID, cameraID uint) *models.Zone {
	t.Helper()
	zones, err := f.zones.CreateBatch(context.Background(), userID, []models.Zone{testZone(cameraID)})
	require.NoError(t, err)
	require.Len(t, zones, 1)
	return &zones[0]
}

func (f *fixture) alert(t *testing.T, userID, zoneID uint, at time.Time, persons int) *models.Alert {
	t.Helper()
	a := &models.Alert{ZoneID: zoneID, AlertTime: at, VideoURL: "https://blob/clip.mp4", PersonCount: persons}
	require.NoError(t, f.alerts.Create(context.Background(), userID, a))
	return a
}

// tenants seeds two users, each with one camera, one zone and one alert.
type tenants struct {
	alice, bob             *models.User
	aliceCamera, bobCamera *models.Camera
	aliceZone, bobZone     *models.Zone
	aliceAlert, bobAlert   *models.Alert
}

func (f *fixture) tenants(t *testing.T) tenants {
	t.Helper()
	var s tenants
	now := time.Now().UTC()

	s.alice = f.user(t, "alice@example.com")
	s.aliceCamera = f.camera(t, s.alice.ID, "front door")
	s.aliceZone = f.zone(t, s.alice.ID, s.aliceCamera.ID)
	s.aliceAlert = f.alert(t, s.alice.ID, s.aliceZone.ID, now, 1)

	s.bob = f.user(t, "bob@example.com")
	s.bobCamera = f.camera(t, s.bob.ID, "garage")
	s.bobZone = f.zone(t, s.bob.ID, s.bobCamera.ID)
	s.bobAlert = f.alert(t, s.bob.ID, s.bobZone.ID, now, 2)
	return s
}
