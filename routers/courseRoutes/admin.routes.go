package courseRoutes

import (
	controllers "fillop/controllers/course"
	"fillop/validators"
	courseValidators "fillop/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupManageRoutes mounts course, module and assessment authoring on a group
// that has already been gated by role. Admins and lecturers share these.
func SetupManageRoutes(group fiber.Router) {
	courseGroup := group.Group("/courses")

	// Course CRUD
	courseGroup.Get("/", validators.List(), controllers.ListCourses)
	courseGroup.Post("/", courseValidators.CreateCourse(), controllers.CreateCourse)
	courseGroup.Get("/:id", validators.IDParams("id"), controllers.GetCourse)
	courseGroup.Put("/:id", validators.IDParams("id"), courseValidators.UpdateCourse(), controllers.UpdateCourse)
	courseGroup.Delete("/:id", validators.IDParams("id"), controllers.DeleteCourse)
	courseGroup.Put("/:id/publish", validators.IDParams("id"), courseValidators.Publish(), controllers.PublishCourse)
	courseGroup.Get("/:id/enrollments", validators.IDParams("id"), validators.List(), controllers.CourseEnrollments)

	// Module Management
	courseGroup.Post("/:id/modules", validators.IDParams("id"), courseValidators.CreateModule(), controllers.CreateModule)
	courseGroup.Put("/:id/modules/move-up/:moduleId", validators.IDParams("id", "moduleId"), controllers.MoveModuleUp)
	courseGroup.Get("/:id/modules/:moduleId", validators.IDParams("id", "moduleId"), controllers.GetModule)
	courseGroup.Put("/:id/modules/:moduleId", validators.IDParams("id", "moduleId"), courseValidators.UpdateModule(), controllers.UpdateModule)
	courseGroup.Delete("/:id/modules/:moduleId", validators.IDParams("id", "moduleId"), controllers.DeleteModule)

	// Assessment authoring
	moduleGroup := group.Group("/modules")
	moduleGroup.Get("/:id/assessment", validators.IDParams("id"), controllers.GetAssessment)
	moduleGroup.Put("/:id/assessment", validators.IDParams("id"), courseValidators.SaveAssessment(), controllers.SaveAssessment)

	// Categories are readable by every author for the course form.
	group.Get("/categories", validators.List(), controllers.ListCategories)
}

// SetupAdminRoutes mounts the admin-only catalog structure endpoints.
func SetupAdminRoutes(admin fiber.Router) {
	pathGroup := admin.Group("/learning-paths")
	pathGroup.Get("/", validators.List(), controllers.ListLearningPaths)
	pathGroup.Post("/", courseValidators.CreateLearningPath(), controllers.CreateLearningPath)
	pathGroup.Get("/:id", validators.IDParams("id"), controllers.GetLearningPath)
	pathGroup.Put("/:id", validators.IDParams("id"), courseValidators.UpdateLearningPath(), controllers.UpdateLearningPath)
	pathGroup.Delete("/:id", validators.IDParams("id"), controllers.DeleteLearningPath)
	pathGroup.Post("/:id/courses", validators.IDParams("id"), courseValidators.AddPathCourse(), controllers.AddPathCourse)
	pathGroup.Put("/:id/courses/move-up/:courseId", validators.IDParams("id", "courseId"), controllers.MovePathCourseUp)
	pathGroup.Delete("/:id/courses/:courseId", validators.IDParams("id", "courseId"), controllers.RemovePathCourse)

	categoryGroup := admin.Group("/categories")
	categoryGroup.Post("/", courseValidators.Category(), controllers.CreateCategory)
	categoryGroup.Post("/merge", courseValidators.MergeCategories(), controllers.MergeCategories)
	categoryGroup.Put("/:id", validators.IDParams("id"), courseValidators.Category(), controllers.UpdateCategory)
	categoryGroup.Delete("/:id", validators.IDParams("id"), controllers.DeleteCategory)

	admin.Get("/dashboard/stats", controllers.DashboardStats)
}
