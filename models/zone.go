package models

import (
	"gorm.io/datatypes"
)

const (
	ZoneTypeCritical = "critical"
	ZoneTypeWarning  = "warning"
	ZoneTypeInfo     = "info"
)

// Point is a vertex of a zone polygon in frame pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Zone is a polygon inside a camera frame with its own threshold and schedule.
type Zone struct {
	ID             uint                       `json:"id" gorm:"primaryKey"`
	CameraID       uint                       `json:"camera_id" gorm:"not null;index"`
	Coords         datatypes.JSONSlice[Point] `json:"coords" gorm:"not null"`
	Type           string                     `json:"type" gorm:"size:50;not null"`
	AlertThreshold int                        `json:"alert_threshold" gorm:"not null"`
	ScheduleStart  datatypes.Time             `json:"schedule_start" gorm:"not null"`
	ScheduleEnd    datatypes.Time             `json:"schedule_end" gorm:"not null"`
	AlertTelegram  *string                    `json:"alert_telegram" gorm:"size:255"`
	AlertEmail     *string                    `json:"alert_email" gorm:"size:255"`

	Camera *Camera `json:"-" gorm:"foreignKey:CameraID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
