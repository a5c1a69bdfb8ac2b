package staffRoutes

import (
	staffController "fillop/controllers/staff"
	"fillop/validators"
	staffValidator "fillop/validators/staff"

	"github.com/gofiber/fiber/v2"
)

// SetupStaffRoutes mounts user administration on an admin-gated group.
func SetupStaffRoutes(admin fiber.Router) {
	userGroup := admin.Group("/users")

	userGroup.Get("/", validators.List(), staffController.ListUsers)
	userGroup.Post("/invite", staffValidator.Invite(), staffController.InviteUser)
	userGroup.Post("/cancel/invite/:id", validators.IDParams("id"), staffController.CancelInvite)
	userGroup.Get("/:id", validators.IDParams("id"), staffController.GetUser)
	userGroup.Put("/:id/disable", validators.IDParams("id"), staffValidator.Disable(), staffController.DisableUser)
	userGroup.Put("/:id/role", validators.IDParams("id"), staffValidator.ChangeRole(), staffController.ChangeRole)
	userGroup.Delete("/:id", validators.IDParams("id"), staffController.DeleteUser)
}
