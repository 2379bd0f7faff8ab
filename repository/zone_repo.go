package repository

import (
	"context"
	"fmt"

	"zone-alerts-vms/be/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ZoneChanges is a partial update; nil fields are left untouched.
// Clearing a notification target is done with a pointer to "".
type ZoneChanges struct {
	Coords         []models.Point
	Type           *string
	AlertThreshold *int
	ScheduleStart  *datatypes.Time
	ScheduleEnd    *datatypes.Time
	AlertTelegram  *string
	AlertEmail     *string
}

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) List(ctx context.Context, userID uint) ([]models.Zone, error) {
	zones := []models.Zone{}
	err := r.db.WithContext(ctx).
		Scopes(ownedZones(userID)).
		Order("zones.id").
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	return zones, nil
}

// ListByCamera returns ErrNotFound when the camera is not the caller's.
func (r *ZoneRepository) ListByCamera(ctx context.Context, userID, cameraID uint) ([]models.Zone, error) {
	db := r.db.WithContext(ctx)
	if err := requireCamera(db, userID, cameraID); err != nil {
		return nil, err
	}

	zones := []models.Zone{}
	err := db.Scopes(ownedZones(userID)).
		Where("zones.camera_id = ?", cameraID).
		Order("zones.id").
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("listing camera zones: %w", err)
	}
	return zones, nil
}

func (r *ZoneRepository) Get(ctx context.Context, userID, id uint) (*models.Zone, error) {
	return r.get(r.db.WithContext(ctx), userID, id)
}

func (r *ZoneRepository) get(db *gorm.DB, userID, id uint) (*models.Zone, error) {
	var zone models.Zone
	err := db.Scopes(ownedZones(userID)).
		Where("zones.id = ?", id).
		First(&zone).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &zone, nil
}

// CreateBatch inserts all zones or none. Each referenced camera is checked
// on its own; the first one the caller does not own aborts the batch.
func (r *ZoneRepository) CreateBatch(ctx context.Context, userID uint, zones []models.Zone) ([]models.Zone, error) {
	if len(zones) == 0 {
		return []models.Zone{}, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range zones {
			if err := requireCamera(tx, userID, zones[i].CameraID); err != nil {
				return err
			}
			zones[i].ID = 0
		}
		if err := tx.Create(&zones).Error; err != nil {
			return fmt.Errorf("creating zones: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *ZoneRepository) Update(ctx context.Context, userID, id uint, changes ZoneChanges) (*models.Zone, error) {
	var zone *models.Zone
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireZone(tx, userID, id); err != nil {
			return err
		}

		var err error
		if zone, err = r.get(tx, userID, id); err != nil {
			return err
		}

		if changes.Coords != nil {
			zone.Coords = changes.Coords
		}
		if changes.Type != nil {
			zone.Type = *changes.Type
		}
		if changes.AlertThreshold != nil {
			zone.AlertThreshold = *changes.AlertThreshold
		}
		if changes.ScheduleStart != nil {
			zone.ScheduleStart = *changes.ScheduleStart
		}
		if changes.ScheduleEnd != nil {
			zone.ScheduleEnd = *changes.ScheduleEnd
		}
		if changes.AlertTelegram != nil {
			zone.AlertTelegram = optional(*changes.AlertTelegram)
		}
		if changes.AlertEmail != nil {
			zone.AlertEmail = optional(*changes.AlertEmail)
		}

		return tx.Save(zone).Error
	})
	if err != nil {
		return nil, err
	}
	return zone, nil
}

func (r *ZoneRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireZone(tx, userID, id); err != nil {
			return err
		}
		return tx.Delete(&models.Zone{}, id).Error
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
