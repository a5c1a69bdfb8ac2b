package models

import (
	"time"

	"gorm.io/gorm"
)

// LoginHistory is one successful sign-in, listed back to the user on their
// profile page.
type LoginHistory struct {
	gorm.Model
	UserID     uint      `json:"user_id" gorm:"index"`
	Role       string    `json:"role" gorm:"size:20"`
	IPAddress  string    `json:"ip_address" gorm:"size:64"`
	UserAgent  string    `json:"user_agent"`
	LoggedInAt time.Time `json:"logged_in_at" gorm:"index"`
	IsDeleted  bool      `json:"-" gorm:"default:false"`
}
