package staffController

import (
	"errors"
	"fillop/config"
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	"fillop/models"
	"fillop/utils"
	"fillop/validators"
	staffValidator "fillop/validators/staff"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func findUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func notFoundOr(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, message, nil)
}

func inviteTTL() time.Duration {
	hours := 72
	if config.AppConfig != nil && config.AppConfig.InviteTTLHours > 0 {
		hours = config.AppConfig.InviteTTLHours
	}
	return time.Duration(hours) * time.Hour
}

// InviteLink builds the accept-invite URL mailed to the invitee.
func InviteLink(token string) string {
	base := "http://localhost:3000"
	if config.AppConfig != nil && config.AppConfig.AppURL != "" {
		base = config.AppConfig.AppURL
	}
	return strings.TrimRight(base, "/") + "/accept-invite?token=" + url.QueryEscape(token)
}

// ListUsers pages through staff and students with optional search, role and status filters
func ListUsers(c *fiber.Ctx) error {
	q := c.Locals("listQuery").(*validators.ListQuery)

	scope := database.Database.Db.Model(&models.User{}).Where("is_deleted = ?", false)
	if q.Search != "" {
		pattern := utils.LikePattern(q.Search)
		scope = scope.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if q.Role != "" {
		scope = scope.Where("role = ?", strings.ToUpper(q.Role))
	}
	if q.Status != "" {
		scope = scope.Where("status = ?", strings.ToUpper(q.Status))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}
	users := []models.User{}
	if err := scope.Order("created_at DESC, id DESC").Offset(q.Offset).Limit(q.Limit).Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User List.", utils.ListResponse(users, total, q.Offset, q.Limit))
}

func GetUser(c *fiber.Ctx) error {
	user, err := findUser(database.Database.Db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr(c, err, "Failed to fetch user!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched.", user)
}

// InviteUser creates an INVITED account and mails the activation link. Inviting
// an address whose invitation is still pending or has lapsed issues a fresh
// token instead.
func InviteUser(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedInvite").(*staffValidator.InviteRequest)
	db := database.Database.Db

	var existing models.User
	err := db.Where("email = ?", reqData.Email).First(&existing).Error
	switch {
	case err == nil && (existing.IsDeleted || (existing.Status != models.StatusInvited && existing.Status != models.StatusExpired)):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(inviteTTL())
	if err := utils.SendInviteEmail(reqData.Email, reqData.Role, InviteLink(token), expiresAt); err != nil {
		logger.Log.Error("invite email failed", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to send invitation email!", nil)
	}

	user := existing
	if existing.ID == 0 {
		user = models.User{Email: reqData.Email}
	}
	user.Name = reqData.Name
	user.Role = reqData.Role
	user.Status = models.StatusInvited
	user.InviteToken = token
	user.InviteExpiresAt = &expiresAt
	user.InvitedBy = &adminID

	if err := db.Save(&user).Error; err != nil {
		logger.Log.Error("failed to store invite", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to invite user!", nil)
	}

	logger.Log.Info("user invited", "user_id", user.ID, "role", user.Role, "invited_by", adminID)
	status := fiber.StatusCreated
	if existing.ID != 0 {
		status = fiber.StatusOK
	}
	return middleware.JsonResponse(c, status, true, "Invitation sent.", user)
}

// CancelInvite withdraws a pending invitation. Only INVITED accounts qualify,
// so a repeated cancel finds nothing.
func CancelInvite(c *fiber.Ctx) error {
	id := c.Locals("id").(uint)
	db := database.Database.Db

	res := db.Unscoped().
		Where("id = ? AND status = ? AND is_deleted = ?", id, models.StatusInvited, false).
		Delete(&models.User{})
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel invitation!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Pending invitation not found!", nil)
	}

	logger.Log.Info("invite cancelled", "user_id", id)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Invitation cancelled.", nil)
}

func DisableUser(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)
	id := c.Locals("id").(uint)
	reqData := c.Locals("validatedDisable").(*staffValidator.DisableRequest)

	if id == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot disable your own account!", nil)
	}

	db := database.Database.Db
	user, err := findUser(db, id)
	if err != nil {
		return notFoundOr(c, err, "Failed to update user!")
	}
	if user.Status != models.StatusActive && user.Status != models.StatusDisabled {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only active accounts can be disabled or enabled!", nil)
	}

	status := models.StatusActive
	if *reqData.Disabled {
		status = models.StatusDisabled
	}
	if err := db.Model(user).Update("status", status).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
	}

	logger.Log.Info("user status changed", "user_id", id, "status", status, "by", adminID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User status updated.", user)
}

func ChangeRole(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)
	id := c.Locals("id").(uint)
	reqData := c.Locals("validatedRole").(*staffValidator.RoleRequest)

	if id == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot change your own role!", nil)
	}

	db := database.Database.Db
	user, err := findUser(db, id)
	if err != nil {
		return notFoundOr(c, err, "Failed to update role!")
	}
	if err := db.Model(user).Update("role", reqData.Role).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update role!", nil)
	}

	logger.Log.Info("user role changed", "user_id", id, "role", reqData.Role, "by", adminID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User role updated.", user)
}

func DeleteUser(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)
	id := c.Locals("id").(uint)

	if id == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot delete your own account!", nil)
	}

	db := database.Database.Db
	user, err := findUser(db, id)
	if err != nil {
		return notFoundOr(c, err, "Failed to delete user!")
	}
	if err := db.Model(user).Updates(map[string]interface{}{
		"is_deleted":   true,
		"status":       models.StatusDisabled,
		"invite_token": "",
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user!", nil)
	}

	logger.Log.Info("user deleted", "user_id", id, "by", adminID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User deleted.", nil)
}
