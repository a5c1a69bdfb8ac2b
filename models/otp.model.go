package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OTPPurposeVerify = "EMAIL_VERIFICATION"
	OTPPurposeReset  = "PASSWORD_RESET"
)

type OTP struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Email     string    `gorm:"size:100;index" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Purpose   string    `gorm:"size:32;index" json:"purpose"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	IsDeleted bool      `gorm:"default:false" json:"-"`
}

// Expired reports whether the code can no longer be redeemed at t.
func (o *OTP) Expired(t time.Time) bool {
	return o.ExpiresAt.Before(t)
}
