package repository

import (
	"context"
	"fmt"

	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/utils"

	"gorm.io/gorm"
)

// CameraChanges is a partial update; nil fields are left untouched.
type CameraChanges struct {
	Name      *string
	IPAddress *string
	Username  *string
	Password  *string
	RTSPUrl   *string
	Location  *string
	Status    *string
}

// CameraCredentials holds decrypted device secrets.
type CameraCredentials struct {
	IPAddress string
	Username  string
	Password  string
	RTSPUrl   string
}

// CameraRepository encrypts Password and RTSPUrl before they reach the
// database and hands them back still encrypted. Only Credentials decrypts.
type CameraRepository struct {
	db     *gorm.DB
	cipher *utils.Cipher
}

func NewCameraRepository(db *gorm.DB, cipher *utils.Cipher) *CameraRepository {
	return &CameraRepository{db: db, cipher: cipher}
}

func (r *CameraRepository) List(ctx context.Context, userID uint) ([]models.Camera, error) {
	cameras := []models.Camera{}
	err := r.db.WithContext(ctx).
		Scopes(ownedCameras(userID)).
		Order("cameras.id").
		Find(&cameras).Error
	if err != nil {
		return nil, fmt.Errorf("listing cameras: %w", err)
	}
	return cameras, nil
}

func (r *CameraRepository) Get(ctx context.Context, userID, id uint) (*models.Camera, error) {
	return r.get(r.db.WithContext(ctx), userID, id)
}

func (r *CameraRepository) get(db *gorm.DB, userID, id uint) (*models.Camera, error) {
	var camera models.Camera
	err := db.Scopes(ownedCameras(userID)).
		Where("cameras.id = ?", id).
		First(&camera).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &camera, nil
}

func (r *CameraRepository) Create(ctx context.Context, userID uint, camera *models.Camera) error {
	camera.ID = 0
	camera.UserID = userID
	if camera.Status == "" {
		camera.Status = models.CameraStatusActive
	}

	var err error
	if camera.Password, err = r.encrypt(camera.Password); err != nil {
		return err
	}
	if camera.RTSPUrl, err = r.encrypt(camera.RTSPUrl); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(camera).Error; err != nil {
		return fmt.Errorf("creating camera: %w", err)
	}
	return nil
}

func (r *CameraRepository) Update(ctx context.Context, userID, id uint, changes CameraChanges) (*models.Camera, error) {
	var camera *models.Camera
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCamera(tx, userID, id); err != nil {
			return err
		}

		var err error
		if camera, err = r.get(tx, userID, id); err != nil {
			return err
		}

		if changes.Name != nil {
			camera.Name = *changes.Name
		}
		if changes.IPAddress != nil {
			camera.IPAddress = *changes.IPAddress
		}
		if changes.Username != nil {
			camera.Username = *changes.Username
		}
		if changes.Password != nil {
			if camera.Password, err = r.encrypt(*changes.Password); err != nil {
				return err
			}
		}
		if changes.RTSPUrl != nil {
			if camera.RTSPUrl, err = r.encrypt(*changes.RTSPUrl); err != nil {
				return err
			}
		}
		if changes.Location != nil {
			camera.Location = *changes.Location
		}
		if changes.Status != nil {
			camera.Status = *changes.Status
		}

		return tx.Save(camera).Error
	})
	if err != nil {
		return nil, err
	}
	return camera, nil
}

func (r *CameraRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCamera(tx, userID, id); err != nil {
			return err
		}
		return tx.Delete(&models.Camera{}, id).Error
	})
}

// Credentials decrypts a camera's secrets. The cipher key is process-wide,
// so the ownership check here is the only tenant boundary.
func (r *CameraRepository) Credentials(ctx context.Context, userID, id uint) (*CameraCredentials, error) {
	camera, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	creds := &CameraCredentials{
		IPAddress: camera.IPAddress,
		Username:  camera.Username,
	}
	if creds.Password, err = r.decrypt(camera.Password); err != nil {
		return nil, fmt.Errorf("camera %d password: %w", id, err)
	}
	if creds.RTSPUrl, err = r.decrypt(camera.RTSPUrl); err != nil {
		return nil, fmt.Errorf("camera %d rtsp url: %w", id, err)
	}
	return creds, nil
}

// Empty values stay empty so optional columns remain distinguishable.
func (r *CameraRepository) encrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return r.cipher.Encrypt(value)
}

func (r *CameraRepository) decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return r.cipher.Decrypt(value)
}
