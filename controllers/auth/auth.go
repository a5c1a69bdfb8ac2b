package authController

import (
	"errors"
	"fillop/config"
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	"fillop/models"
	"fillop/utils"
	"fillop/validators"
	authValidator "fillop/validators/auth"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpTTL            = 5 * time.Minute
	maxFailedLogins   = 3
	failedLoginWindow = 15 * time.Minute
	loginBlockPeriod  = 5 * time.Minute
)

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), config.AppConfig.SaltRound)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Signup(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUser").(*authValidator.SignupRequest)
	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := hashPassword(reqData.Password)
	if err != nil {
		logger.Log.Error("hash password failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: hashedPassword,
		Role:     models.RoleStudent,
		Status:   models.StatusActive,
	}
	if err := db.Create(&newUser).Error; err != nil {
		logger.Log.Error("create user failed", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	utils.SendWelcomeEmail(newUser.Email, newUser.Name)
	logger.Log.Info("user signed up", "user_id", newUser.ID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully. Verify your email to log in.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUser").(*authValidator.LoginRequest)
	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	switch user.Status {
	case models.StatusDisabled:
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your account has been disabled!", nil)
	case models.StatusInvited, models.StatusExpired:
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Accept your invitation before logging in!", nil)
	}

	if !user.IsEmailVerified {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Email not verified!", nil)
	}

	now := time.Now()

	// Check if the user is blocked
	if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(now) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily blocked. Try again later.", nil)
	}

	if user.LastFailedLogin != nil && now.Sub(*user.LastFailedLogin) > failedLoginWindow {
		user.FailedLoginAttempts = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		updates := map[string]interface{}{
			"failed_login_attempts": user.FailedLoginAttempts + 1,
			"last_failed_login":     now,
		}
		// Block user after 3 failed attempts
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["is_blocked"] = true
			updates["blocked_until"] = now.Add(loginBlockPeriod)
			logger.Log.Warn("user blocked after failed logins", "user_id", user.ID)
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			logger.Log.Error("record failed login", "user_id", user.ID, "error", err)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Wrong Password", nil)
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"last_login":            now,
		"failed_login_attempts": 0,
		"last_failed_login":     nil,
		"is_blocked":            false,
		"blocked_until":         nil,
	}).Error; err != nil {
		logger.Log.Error("save last login", "user_id", user.ID, "error", err)
	}

	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}
	entry := models.LoginHistory{
		UserID:     user.ID,
		Role:       user.Role,
		IPAddress:  ip,
		UserAgent:  c.Get(fiber.HeaderUserAgent),
		LoggedInAt: now,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Log.Error("save login history", "user_id", user.ID, "error", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	logger.Log.Info("user logged in", "user_id", user.ID, "ip", ip)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func LoginHistoryList(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	q := c.Locals("listQuery").(*validators.ListQuery)

	history := []models.LoginHistory{}
	var total int64

	scope := database.Database.Db.Model(&models.LoginHistory{}).Where("user_id = ? AND is_deleted = ?", userId, false)
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}
	if err := scope.Order("logged_in_at DESC").Offset(q.Offset).Limit(q.Limit).Find(&history).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login History List.", utils.ListResponse(history, total, q.Offset, q.Limit))
}

// issueOTP throttles, stores and mails a fresh code for user. It writes the
// response itself when it fails and returns handled=true.
func issueOTP(c *fiber.Ctx, user models.User, purpose string) (handled bool, err error) {
	if t := utils.CurrentOTPThrottle(); t != nil {
		ok, wait, terr := t.Allow(c.Context(), user.Email, purpose)
		if terr != nil {
			logger.Log.Error("otp throttle check failed", "error", terr)
		} else if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			c.Set(fiber.HeaderRetryAfter, fmt.Sprint(secs))
			return true, middleware.JsonResponse(c, fiber.StatusTooManyRequests, false,
				fmt.Sprintf("Please wait %d seconds before requesting another OTP.", secs), nil)
		}
	}

	otp := utils.GenerateOTP()
	otpRecord := models.OTP{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      otp,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(otpTTL),
	}

	if err := utils.SendOTPEmail(otp, user.Email); err != nil {
		return true, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP to email!", nil)
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		// Older unused codes for the same purpose stop working.
		if err := tx.Model(&models.OTP{}).
			Where("email = ? AND purpose = ? AND is_used = ? AND is_deleted = ?", user.Email, purpose, false, false).
			Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Create(&otpRecord).Error
	})
	if err != nil {
		return true, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Create OTP!", nil)
	}
	return false, nil
}

// redeemOTP marks a matching unexpired code as used.
func redeemOTP(email, code, purpose string) (*models.User, string) {
	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", email, false).First(&user).Error; err != nil {
		return nil, "User not found!"
	}

	var otpRecord models.OTP
	if err := db.Where("email = ? AND code = ? AND purpose = ? AND is_used = ? AND is_deleted = ?",
		email, code, purpose, false, false).First(&otpRecord).Error; err != nil {
		return nil, "Invalid OTP or OTP expired!"
	}
	if otpRecord.Expired(time.Now()) {
		return nil, "OTP has expired!"
	}

	if err := db.Model(&otpRecord).Update("is_used", true).Error; err != nil {
		return nil, "Failed to update OTP status!"
	}
	return &user, ""
}

func SendOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedEmail").(*authValidator.EmailRequest)

	var user models.User
	if err := database.Database.Db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email!", nil)
	}
	if user.IsEmailVerified {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email already verified!", nil)
	}

	if handled, err := issueOTP(c, user, models.OTPPurposeVerify); handled {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", nil)
}

func VerifyOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedOTP").(*authValidator.VerifyOTPRequest)

	user, msg := redeemOTP(reqData.Email, reqData.Code, models.OTPPurposeVerify)
	if user == nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, msg, nil)
	}

	if err := database.Database.Db.Model(user).Update("is_email_verified", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user verification status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP verified successfully!", nil)
}

func ForgotPasswordSendOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedEmail").(*authValidator.EmailRequest)

	var user models.User
	if err := database.Database.Db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email!", nil)
	}
	if user.Status != models.StatusActive {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Account is not active!", nil)
	}

	if handled, err := issueOTP(c, user, models.OTPPurposeReset); handled {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", nil)
}

func ForgotPasswordVerifyOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedOTP").(*authValidator.VerifyOTPRequest)

	user, msg := redeemOTP(reqData.Email, reqData.Code, models.OTPPurposeReset)
	if user == nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, msg, nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Now You can reset your password.", fiber.Map{
		"token": token,
	})
}

func ResetPassword(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData := c.Locals("validatedPassword").(*authValidator.ResetPasswordRequest)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found or invalid credentials!", nil)
	}

	hashedPassword, err := hashPassword(reqData.Password)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	if err := database.Database.Db.Model(&user).Updates(map[string]interface{}{
		"password":              hashedPassword,
		"failed_login_attempts": 0,
		"is_blocked":            false,
		"blocked_until":         nil,
	}).Error; err != nil {
		logger.Log.Error("reset password failed", "user_id", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update password!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successfully.", nil)
}

func ChangeLoginPassword(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid user session!", nil)
	}
	reqData := c.Locals("validatedPassword").(*authValidator.ChangePasswordRequest)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.CurrentPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Current password is incorrect!", nil)
	}

	hashedPassword, err := hashPassword(reqData.NewPassword)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	if err := database.Database.Db.Model(&user).Update("password", hashedPassword).Error; err != nil {
		logger.Log.Error("change password failed", "user_id", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update password!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully.", nil)
}

// AcceptInvite activates an invited account and logs it in.
func AcceptInvite(c *fiber.Ctx) error {
	reqData := c.Locals("validatedInvite").(*authValidator.AcceptInviteRequest)
	db := database.Database.Db

	var user models.User
	err := db.Where("invite_token = ? AND status = ? AND is_deleted = ?", reqData.Token, models.StatusInvited, false).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Invitation not found or already used!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch invitation!", nil)
	}
	if user.InviteExpiresAt != nil && user.InviteExpiresAt.Before(time.Now()) {
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Invitation has expired!", nil)
	}

	hashedPassword, err := hashPassword(reqData.Password)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	now := time.Now()
	if err := db.Model(&user).Updates(map[string]interface{}{
		"name":              reqData.Name,
		"password":          hashedPassword,
		"status":            models.StatusActive,
		"is_email_verified": true,
		"invite_token":      "",
		"invite_expires_at": nil,
		"last_login":        now,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to activate account!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	logger.Log.Info("invitation accepted", "user_id", user.ID, "role", user.Role)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Invitation accepted.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func GetProfile(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched.", user)
}

func UpdateProfile(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData := c.Locals("validatedProfile").(*authValidator.UpdateProfileRequest)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Name != "" {
		updates["name"] = reqData.Name
	}
	image, err := utils.StoreAsset(c, "profile_image", reqData.ProfileImage, "profiles", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"profile_image": err.Error()})
	}
	if image != "" {
		updates["profile_image"] = image
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := database.Database.Db.Model(&user).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated.", user)
}
