package controllers

import (
	"fillop/database"
	"fillop/middleware"
	courseModels "fillop/models/course"
	"fillop/utils"
	"fillop/validators"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type catalogCourse struct {
	courseModels.Course
	AuthorName string `json:"author_name"`
}

// catalogScope limits courses to what the caller may browse. Anonymous
// visitors only see courses marked show_outside.
func catalogScope(c *fiber.Ctx, db *gorm.DB) *gorm.DB {
	scope := db.Model(&courseModels.Course{}).Where("is_deleted = ? AND is_published = ?", false, true)
	if currentActor(c).ID == 0 {
		scope = scope.Where("show_outside = ?", true)
	}
	return scope
}

func CatalogCourses(c *fiber.Ctx) error {
	q := c.Locals("listQuery").(*validators.ListQuery)
	db := database.Database.Db

	scope := catalogScope(c, db)
	if q.Search != "" {
		scope = scope.Where("LOWER(title) LIKE ?", utils.LikePattern(q.Search))
	}
	if q.Category != 0 {
		scope = scope.Where("id IN (?)", db.Table("course_categories").Select("course_id").Where("category_id = ?", q.Category))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	courses := []courseModels.Course{}
	if err := scope.Preload("Categories", liveCategories).
		Order("created_at DESC, id DESC").Offset(q.Offset).Limit(q.Limit).
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", utils.ListResponse(courses, total, q.Offset, q.Limit))
}

func CatalogCourse(c *fiber.Ctx) error {
	id := c.Locals("id").(uint)
	db := database.Database.Db

	var count int64
	if err := catalogScope(c, db).Where("id = ?", id).Count(&count).Error; err != nil {
		return respondError(c, err, "fetch course")
	}
	if count == 0 {
		return respondError(c, notFoundError("Course"), "fetch course")
	}

	course, err := loadCourseDetail(db, id, true)
	if err != nil {
		return respondError(c, err, "fetch course")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", catalogCourse{
		Course:     *course,
		AuthorName: courseAuthorName(db, course.AuthorID),
	})
}

func CatalogLearningPaths(c *fiber.Ctx) error {
	q := c.Locals("listQuery").(*validators.ListQuery)
	db := database.Database.Db

	scope := db.Model(&courseModels.LearningPath{}).Where("is_deleted = ? AND is_published = ?", false, true)
	if q.Search != "" {
		scope = scope.Where("LOWER(title) LIKE ?", utils.LikePattern(q.Search))
	}
	if q.Category != 0 {
		scope = scope.Where("id IN (?)", db.Table("learning_path_categories").Select("learning_path_id").Where("category_id = ?", q.Category))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch learning paths!", nil)
	}
	paths := []courseModels.LearningPath{}
	if err := scope.Preload("Categories", liveCategories).
		Order("created_at DESC, id DESC").Offset(q.Offset).Limit(q.Limit).
		Find(&paths).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch learning paths!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learning paths fetched successfully!", utils.ListResponse(paths, total, q.Offset, q.Limit))
}

func CatalogLearningPath(c *fiber.Ctx) error {
	path, err := loadPathDetail(database.Database.Db, c.Locals("id").(uint), true)
	if err != nil {
		return respondError(c, err, "fetch learning path")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learning path fetched successfully!", path)
}
