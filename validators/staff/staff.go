package staffValidator

import (
	"fillop/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
	Role  string `json:"role" validate:"required,oneof=ADMIN LECTURER STUDENT"`
}

type DisableRequest struct {
	Disabled *bool `json:"disabled" validate:"required"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN LECTURER STUDENT"`
}

func Invite() fiber.Handler {
	return validators.Body("validatedInvite", func(r *InviteRequest) map[string]string {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		r.Name = strings.TrimSpace(r.Name)
		r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
		return nil
	})
}

func Disable() fiber.Handler {
	return validators.Body[DisableRequest]("validatedDisable", nil)
}

func ChangeRole() fiber.Handler {
	return validators.Body("validatedRole", func(r *RoleRequest) map[string]string {
		r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
		return nil
	})
}
