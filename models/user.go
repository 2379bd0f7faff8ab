package models

import "time"

// User owns cameras. Email is unique; the password hash is not.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:50;not null"`
	Lastname  string    `json:"lastname" gorm:"size:50;not null"`
	Email     string    `json:"email" gorm:"size:100;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
}
