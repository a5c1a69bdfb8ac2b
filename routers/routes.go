// Package routers assembles the HTTP application.
package routers

import (
	"fillop/middleware"
	"fillop/models"
	authRoutes "fillop/routers/authRoutes"
	contentRoutes "fillop/routers/contentRoutes"
	courseRoutes "fillop/routers/courseRoutes"
	staffRoutes "fillop/routers/staffRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

type Options struct {
	// RequestLog enables the per-request access log line.
	RequestLog bool
	// StaticDir is served at / when set; uploads live under it.
	StaticDir string
	// BodyLimitMB caps request bodies, data URLs included.
	BodyLimitMB int
}

// New builds the fiber app with every route group mounted under /api.
func New(opts Options) *fiber.App {
	cfg := fiber.Config{}
	if opts.BodyLimitMB > 0 {
		// base64 inflates uploads by a third.
		cfg.BodyLimit = opts.BodyLimitMB * 1024 * 1024 * 4 / 3
	}
	app := fiber.New(cfg)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	if opts.RequestLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	api := app.Group("/api")
	authRoutes.SetupAuthRoutes(api)

	admin := api.Group("/admin", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))
	courseRoutes.SetupManageRoutes(admin)
	courseRoutes.SetupAdminRoutes(admin)
	staffRoutes.SetupStaffRoutes(admin)
	contentRoutes.SetupAdminContentRoutes(admin)

	lecturer := api.Group("/lecturer", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer))
	courseRoutes.SetupManageRoutes(lecturer)

	courseRoutes.SetupCourseRoutes(api)
	contentRoutes.SetupPublicContentRoutes(api)

	return app
}
