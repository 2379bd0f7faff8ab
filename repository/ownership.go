package repository

import (
	"context"
	"fmt"

	"zone-alerts-vms/be/models"

	"gorm.io/gorm"
)

// Ownership answers "does this user own that resource" along the chain
// user → camera → zone → alert. Every write path calls one of these
// predicates before touching a row; read paths use the matching scopes.
type Ownership struct {
	db *gorm.DB
}

func NewOwnership(db *gorm.DB) *Ownership {
	return &Ownership{db: db}
}

func (o *Ownership) CanAccessCamera(ctx context.Context, userID, cameraID uint) (bool, error) {
	return canAccessCamera(o.db.WithContext(ctx), userID, cameraID)
}

func (o *Ownership) CanAccessZone(ctx context.Context, userID, zoneID uint) (bool, error) {
	return canAccessZone(o.db.WithContext(ctx), userID, zoneID)
}

func (o *Ownership) CanAccessAlert(ctx context.Context, userID, alertID uint) (bool, error) {
	return canAccessAlert(o.db.WithContext(ctx), userID, alertID)
}

func ownedCameras(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("cameras.user_id = ?", userID)
	}
}

func ownedZones(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN cameras ON cameras.id = zones.camera_id").
			Where("cameras.user_id = ?", userID)
	}
}

func ownedAlerts(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN zones ON zones.id = alerts.zone_id").
			Joins("JOIN cameras ON cameras.id = zones.camera_id").
			Where("cameras.user_id = ?", userID)
	}
}

func canAccessCamera(db *gorm.DB, userID, cameraID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Camera{}).
		Scopes(ownedCameras(userID)).
		Where("cameras.id = ?", cameraID).
		Count(&count).Error
	return count > 0, err
}

func canAccessZone(db *gorm.DB, userID, zoneID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Zone{}).
		Scopes(ownedZones(userID)).
		Where("zones.id = ?", zoneID).
		Count(&count).Error
	return count > 0, err
}

func canAccessAlert(db *gorm.DB, userID, alertID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Alert{}).
		Scopes(ownedAlerts(userID)).
		Where("alerts.id = ?", alertID).
		Count(&count).Error
	return count > 0, err
}

// authorize turns a predicate result into ErrNotFound for non-owners.
func authorize(ok bool, err error, kind string, id uint) error {
	if err != nil {
		return fmt.Errorf("checking %s %d ownership: %w", kind, id, err)
	}
	if !ok {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func requireCamera(db *gorm.DB, userID, cameraID uint) error {
	ok, err := canAccessCamera(db, userID, cameraID)
	return authorize(ok, err, "camera", cameraID)
}

func requireZone(db *gorm.DB, userID, zoneID uint) error {
	ok, err := canAccessZone(db, userID, zoneID)
	return authorize(ok, err, "zone", zoneID)
}

func requireAlert(db *gorm.DB, userID, alertID uint) error {
	ok, err := canAccessAlert(db, userID, alertID)
	return authorize(ok, err, "alert", alertID)
}
