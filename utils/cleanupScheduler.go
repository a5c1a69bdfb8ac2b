package utils

import (
	"fillop/database"
	"fillop/logger"
	"fillop/models"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// InitializeCleanupScheduler starts the hourly job that retires expired OTPs
// and invitations. The returned cron must be stopped on shutdown.
func InitializeCleanupScheduler() *cron.Cron {
	logger.Log.Info("initializing cleanup scheduler")

	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		RunCleanup(database.Database.Db, time.Now())
	})
	if err != nil {
		logger.Log.Error("failed to register cleanup job", "error", err)
		return c
	}

	c.Start()
	logger.Log.Info("cleanup scheduler started", "schedule", "@hourly")
	return c
}

// RunCleanup performs one cleanup pass as of now.
func RunCleanup(db *gorm.DB, now time.Time) {
	otps, err := ExpireOTPs(db, now)
	if err != nil {
		logger.Log.Error("otp cleanup failed", "error", err)
	}
	invites, err := ExpireInvites(db, now)
	if err != nil {
		logger.Log.Error("invite cleanup failed", "error", err)
	}
	logger.Log.Info("cleanup finished", "expired_otps", otps, "expired_invites", invites)
}

// ExpireOTPs soft-deletes unused codes whose expiry has passed.
func ExpireOTPs(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Model(&models.OTP{}).
		Where("is_used = ? AND is_deleted = ? AND expires_at < ?", false, false, now).
		Update("is_deleted", true)
	return res.RowsAffected, res.Error
}

// ExpireInvites moves INVITED users past their invite deadline to EXPIRED and
// clears the token so the link stops working.
func ExpireInvites(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Model(&models.User{}).
		Where("status = ? AND is_deleted = ? AND invite_expires_at IS NOT NULL AND invite_expires_at < ?",
			models.StatusInvited, false, now).
		Updates(map[string]interface{}{"status": models.StatusExpired, "invite_token": ""})
	return res.RowsAffected, res.Error
}
