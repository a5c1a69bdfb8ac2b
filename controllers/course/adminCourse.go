package controllers

import (
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	"fillop/models"
	courseModels "fillop/models/course"
	"fillop/utils"
	"fillop/validators"
	courseValidator "fillop/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func liveModules(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("order_index ASC, id ASC")
}

func liveCategories(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("name ASC")
}

// loadCourseDetail returns the course with its ordered modules, categories and
// the learning paths that include it.
func loadCourseDetail(tx *gorm.DB, id uint, publishedOnly bool) (*courseModels.Course, error) {
	modules := liveModules
	if publishedOnly {
		modules = func(db *gorm.DB) *gorm.DB { return liveModules(db).Where("is_published = ?", true) }
	}

	var course courseModels.Course
	if err := tx.Preload("Categories", liveCategories).
		Preload("Modules", modules).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&course).Error; err != nil {
		return nil, wrapNotFound(err, "Course")
	}

	paths := tx.Joins("JOIN learning_path_courses lpc ON lpc.learning_path_id = learning_paths.id AND lpc.deleted_at IS NULL").
		Where("lpc.course_id = ? AND learning_paths.is_deleted = ?", id, false)
	if publishedOnly {
		paths = paths.Where("learning_paths.is_published = ?", true)
	}
	if err := paths.Order("learning_paths.title ASC").Find(&course.LearningPaths).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// recomputeCourseDuration stores the sum of live module durations on the course.
func recomputeCourseDuration(tx *gorm.DB, courseID uint) error {
	var total int64
	if err := tx.Model(&courseModels.Module{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Select("COALESCE(SUM(duration), 0)").Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&courseModels.Course{}).Where("id = ?", courseID).Update("duration", total).Error
}

// ListCourses returns the courses the caller manages, newest first.
func ListCourses(c *fiber.Ctx) error {
	a := currentActor(c)
	q := c.Locals("listQuery").(*validators.ListQuery)
	db := database.Database.Db

	scope := db.Model(&courseModels.Course{}).Where("is_deleted = ?", false)
	if !a.isAdmin() {
		scope = scope.Where("author_id = ?", a.ID)
	}
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

// CreateCourse creates a new course owned by the caller
func CreateCourse(c *fiber.Ctx) error {
	a := currentActor(c)
	reqData := c.Locals("validatedCourse").(*courseValidator.CourseRequest)

	image, err := utils.StoreAsset(c, "image", reqData.Image, "courses", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": err.Error()})
	}

	course := courseModels.Course{
		Title:       reqData.Title,
		Description: reqData.Description,
		Image:       image,
		ShowOutside: reqData.ShowOutside,
		IsPublished: reqData.IsPublished,
		AuthorID:    a.ID,
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		categories, err := loadCategories(tx, reqData.CategoryIDs)
		if err != nil {
			return err
		}
		if err := tx.Omit("Categories").Create(&course).Error; err != nil {
			return err
		}
		if len(categories) > 0 {
			if err := tx.Model(&course).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		course.Categories = categories
		return nil
	})
	if err != nil {
		return respondError(c, err, "create course")
	}

	logger.Log.Info("course created", "course_id", course.ID, "author_id", a.ID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// GetCourse returns the course detail with ordered modules
func GetCourse(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	db := database.Database.Db

	if _, err := findCourse(db, a, courseID); err != nil {
		return respondError(c, err, "fetch course")
	}
	course, err := loadCourseDetail(db, courseID, false)
	if err != nil {
		return respondError(c, err, "fetch course")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", course)
}

// UpdateCourse updates only the provided fields of a course
func UpdateCourse(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	reqData := c.Locals("validatedCourseUpdate").(*courseValidator.CourseUpdateRequest)

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.ShowOutside != nil {
		updates["show_outside"] = *reqData.ShowOutside
	}
	if reqData.IsPublished != nil {
		updates["is_published"] = *reqData.IsPublished
	}

	imageValue := ""
	if reqData.Image != nil {
		imageValue = *reqData.Image
	}
	image, err := utils.StoreAsset(c, "image", imageValue, "courses", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": err.Error()})
	}
	if reqData.Image != nil || image != "" {
		updates["image"] = image
	}

	var course *courseModels.Course
	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		current, err := findCourse(tx, a, courseID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return err
			}
		}
		if reqData.CategoryIDs != nil {
			categories, err := loadCategories(tx, *reqData.CategoryIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(current).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		course, err = loadCourseDetail(tx, courseID, false)
		return err
	})
	if err != nil {
		return respondError(c, err, "update course")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// deleteCourseTx removes a course with its modules and assessments and takes it
// out of every learning path.
func deleteCourseTx(tx *gorm.DB, courseID uint) error {
	moduleIDs := tx.Model(&courseModels.Module{}).Select("id").Where("course_id = ?", courseID)
	assessmentIDs := tx.Model(&courseModels.Assessment{}).Select("id").Where("module_id IN (?)", moduleIDs)
	questionIDs := tx.Model(&courseModels.Question{}).Select("id").Where("assessment_id IN (?)", assessmentIDs)

	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&courseModels.Answer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("assessment_id IN (?)", assessmentIDs).Delete(&courseModels.Question{}).Error; err != nil {
		return err
	}
	if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&courseModels.Assessment{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&courseModels.Module{}).Where("course_id = ?", courseID).Update("is_deleted", true).Error; err != nil {
		return err
	}

	var pathIDs []uint
	if err := tx.Model(&courseModels.LearningPathCourse{}).Where("course_id = ?", courseID).Pluck("learning_path_id", &pathIDs).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&courseModels.LearningPathCourse{}).Error; err != nil {
		return err
	}
	for _, pathID := range pathIDs {
		if err := pathCourseList.compact(tx, pathID); err != nil {
			return err
		}
	}

	if err := tx.Model(&courseModels.Course{Model: gorm.Model{ID: courseID}}).Association("Categories").Clear(); err != nil {
		return err
	}
	return tx.Model(&courseModels.Course{}).Where("id = ?", courseID).Update("is_deleted", true).Error
}

// DeleteCourse soft deletes a course and everything under it
func DeleteCourse(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, a, courseID); err != nil {
			return err
		}
		return deleteCourseTx(tx, courseID)
	})
	if err != nil {
		return respondError(c, err, "delete course")
	}

	logger.Log.Info("course deleted", "course_id", courseID, "by", a.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// PublishCourse publishes or unpublishes a course
func PublishCourse(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	reqData := c.Locals("validatedPublish").(*courseValidator.PublishRequest)

	var course *courseModels.Course
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var err error
		course, err = findCourse(tx, a, courseID)
		if err != nil {
			return err
		}
		return tx.Model(course).Update("is_published", *reqData.IsPublished).Error
	})
	if err != nil {
		return respondError(c, err, "update course status")
	}

	message := "Course unpublished successfully!"
	if *reqData.IsPublished {
		message = "Course published successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

// courseAuthorName is used by student-facing payloads.
func courseAuthorName(tx *gorm.DB, authorID uint) string {
	var user models.User
	if err := tx.Select("name").Where("id = ?", authorID).First(&user).Error; err != nil {
		return ""
	}
	return user.Name
}
