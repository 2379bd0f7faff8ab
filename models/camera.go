package models

import (
	"time"
)

const (
	CameraStatusActive   = "active"
	CameraStatusInactive = "inactive"
)

// Camera belongs to a single user. Password and RTSPUrl hold ciphertext.
type Camera struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Name      string    `json:"camera_name" gorm:"column:camera_name;size:100;not null"`
	IPAddress string    `json:"ip_address" gorm:"size:45;not null"`
	Username  string    `json:"username" gorm:"size:50;not null"`
	Password  string    `json:"password" gorm:"type:text;not null"`
	RTSPUrl   string    `json:"rtsp_url" gorm:"column:rtsp_url;type:text"`
	Location  string    `json:"location" gorm:"size:100"`
	Status    string    `json:"status" gorm:"size:10;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
