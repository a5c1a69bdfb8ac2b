package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "ADMIN"
	RoleLecturer = "LECTURER"
	RoleStudent  = "STUDENT"

	StatusActive   = "ACTIVE"
	StatusInvited  = "INVITED"
	StatusDisabled = "DISABLED"
	StatusExpired  = "EXPIRED"
)

type User struct {
	gorm.Model
	ProfileImage        string     `json:"profile_image" gorm:"default:''"`
	Name                string     `json:"name" gorm:"default:''"`
	Email               string     `json:"email" gorm:"uniqueIndex;not null"`
	Role                string     `json:"role" gorm:"default:'STUDENT'"` // ADMIN, LECTURER, STUDENT
	Status              string     `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, INVITED, DISABLED, EXPIRED
	Password            string     `json:"-"`
	IsEmailVerified     bool       `json:"is_email_verified" gorm:"default:false"`
	LastLogin           *time.Time `json:"last_login"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"-"`
	IsBlocked           bool       `json:"-" gorm:"default:false"`
	BlockedUntil        *time.Time `json:"-"`
	InviteToken         string     `json:"-" gorm:"index"`
	InviteExpiresAt     *time.Time `json:"invite_expires_at,omitempty"`
	InvitedBy           *uint      `json:"invited_by,omitempty"`
	IsDeleted           bool       `json:"-" gorm:"default:false"`
}

// CanLogin reports whether the account may authenticate with a password.
func (u *User) CanLogin() bool {
	return !u.IsDeleted && u.Status == StatusActive
}
