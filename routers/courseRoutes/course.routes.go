package courseRoutes

import (
	controllers "fillop/controllers/course"
	"fillop/middleware"
	"fillop/models"
	"fillop/validators"
	courseValidators "fillop/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the catalog and the learner-facing course routes
func SetupCourseRoutes(router fiber.Router) {
	member := middleware.RequireRoles(models.RoleStudent, models.RoleLecturer, models.RoleAdmin)

	// Catalog browsing works with or without a session.
	router.Get("/courses", middleware.OptionalJWT, validators.List(), controllers.CatalogCourses)
	router.Get("/courses/:id", middleware.OptionalJWT, validators.IDParams("id"), controllers.CatalogCourse)
	router.Get("/learning-paths", validators.List(), controllers.CatalogLearningPaths)
	router.Get("/learning-paths/:id", validators.IDParams("id"), controllers.CatalogLearningPath)

	// Enrollment and progress
	router.Post("/courses/:id/enroll", middleware.JWTMiddleware, member, validators.IDParams("id"), controllers.EnrollCourse)
	router.Get("/courses/:id/progress", middleware.JWTMiddleware, member, validators.IDParams("id"), controllers.CourseProgress)
	router.Get("/enrollments", middleware.JWTMiddleware, member, validators.List(), controllers.MyEnrollments)
	router.Post("/modules/:id/complete", middleware.JWTMiddleware, member, validators.IDParams("id"), controllers.CompleteModule)
	router.Post("/modules/:id/assessment/submit", middleware.JWTMiddleware, member, validators.IDParams("id"), courseValidators.SubmitAssessment(), controllers.SubmitAssessment)
}
