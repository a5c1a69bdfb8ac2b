package authValidator

import (
	"fillop/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type AcceptInviteRequest struct {
	Token           string `json:"token" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type UpdateProfileRequest struct {
	Name         string `json:"name" validate:"omitempty,min=2,max=100"`
	ProfileImage string `json:"profile_image"`
}

func normalizeEmail(email *string) {
	*email = strings.ToLower(strings.TrimSpace(*email))
}

// Signup validator middleware
func Signup() fiber.Handler {
	return validators.Body("validatedUser", func(r *SignupRequest) map[string]string {
		r.Name = strings.TrimSpace(r.Name)
		normalizeEmail(&r.Email)
		return nil
	})
}

// Login validator middleware
func Login() fiber.Handler {
	return validators.Body("validatedUser", func(r *LoginRequest) map[string]string {
		normalizeEmail(&r.Email)
		return nil
	})
}

func SendOTP() fiber.Handler {
	return validators.Body("validatedEmail", func(r *EmailRequest) map[string]string {
		normalizeEmail(&r.Email)
		return nil
	})
}

func VerifyOTP() fiber.Handler {
	return validators.Body("validatedOTP", func(r *VerifyOTPRequest) map[string]string {
		normalizeEmail(&r.Email)
		r.Code = strings.TrimSpace(r.Code)
		return nil
	})
}

func ResetPassword() fiber.Handler {
	return validators.Body[ResetPasswordRequest]("validatedPassword", nil)
}

func ChangeLoginPassword() fiber.Handler {
	return validators.Body("validatedPassword", func(r *ChangePasswordRequest) map[string]string {
		if r.CurrentPassword != "" && r.CurrentPassword == r.NewPassword {
			return map[string]string{"new_password": "New password must differ from the current one!"}
		}
		return nil
	})
}

func AcceptInvite() fiber.Handler {
	return validators.Body("validatedInvite", func(r *AcceptInviteRequest) map[string]string {
		r.Token = strings.TrimSpace(r.Token)
		r.Name = strings.TrimSpace(r.Name)
		return nil
	})
}

func UpdateProfile() fiber.Handler {
	return validators.Body("validatedProfile", func(r *UpdateProfileRequest) map[string]string {
		r.Name = strings.TrimSpace(r.Name)
		return nil
	})
}
