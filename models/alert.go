package models

import "time"

// Alert is a detection event recorded against a zone.
type Alert struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ZoneID      uint      `json:"zone_id" gorm:"not null;index"`
	AlertTime   time.Time `json:"alert_time" gorm:"not null;index"`
	VideoURL    string    `json:"video_url" gorm:"size:1024;not null"`
	VideoBlob   string    `json:"-" gorm:"size:255"`
	PersonCount int       `json:"person_count" gorm:"not null;default:1"`

	Zone *Zone `json:"-" gorm:"foreignKey:ZoneID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
