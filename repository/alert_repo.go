package repository

import (
	"context"
	"fmt"
	"time"

	"zone-alerts-vms/be/models"

	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) List(ctx context.Context, userID uint) ([]models.Alert, error) {
	alerts := []models.Alert{}
	err := r.db.WithContext(ctx).
		Scopes(ownedAlerts(userID)).
		Order("alerts.alert_time DESC, alerts.id DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// ListBetween returns the caller's alerts with from <= alert_time < to.
func (r *AlertRepository) ListBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.Alert, error) {
	alerts := []models.Alert{}
	err := r.db.WithContext(ctx).
		Scopes(ownedAlerts(userID)).
		Where("alerts.alert_time >= ? AND alerts.alert_time < ?", from.UTC(), to.UTC()).
		Order("alerts.alert_time, alerts.id").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("listing alerts between: %w", err)
	}
	return alerts, nil
}

func (r *AlertRepository) Get(ctx context.Context, userID, id uint) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).
		Scopes(ownedAlerts(userID)).
		Where("alerts.id = ?", id).
		First(&alert).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &alert, nil
}

// Create records an alert after re-checking that the zone is the caller's.
func (r *AlertRepository) Create(ctx context.Context, userID uint, alert *models.Alert) error {
	alert.ID = 0
	if alert.AlertTime.IsZero() {
		alert.AlertTime = time.Now().UTC()
	}
	if alert.PersonCount < 1 {
		alert.PersonCount = 1
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireZone(tx, userID, alert.ZoneID); err != nil {
			return err
		}
		if err := tx.Create(alert).Error; err != nil {
			return fmt.Errorf("creating alert: %w", err)
		}
		return nil
	})
}

// Delete removes the alert and returns it so callers can clean up its clip.
func (r *AlertRepository) Delete(ctx context.Context, userID, id uint) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAlert(tx, userID, id); err != nil {
			return err
		}
		if err := tx.First(&alert, id).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&models.Alert{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
