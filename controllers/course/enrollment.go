package controllers

import (
	"errors"
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	"fillop/models"
	courseModels "fillop/models/course"
	"fillop/utils"
	"fillop/validators"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errAlreadyEnrolled = errors.New("already enrolled")

func publishedCourse(tx *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := tx.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return nil, wrapNotFound(err, "Course")
	}
	return &course, nil
}

func publishedModule(tx *gorm.DB, moduleID uint) (*courseModels.Module, error) {
	var module courseModels.Module
	if err := tx.Where("id = ? AND is_deleted = ? AND is_published = ?", moduleID, false, true).First(&module).Error; err != nil {
		return nil, wrapNotFound(err, "Module")
	}
	if _, err := publishedCourse(tx, module.CourseID); err != nil {
		return nil, err
	}
	return &module, nil
}

func findEnrollment(tx *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: not enrolled in this course", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// markModuleComplete records the completion once; it reports whether a new
// record was written.
func markModuleComplete(tx *gorm.DB, userID uint, module *courseModels.Module) (bool, error) {
	var count int64
	if err := tx.Model(&courseModels.ModuleCompletion{}).
		Where("user_id = ? AND module_id = ?", userID, module.ID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	completion := courseModels.ModuleCompletion{UserID: userID, CourseID: module.CourseID, ModuleID: module.ID}
	return true, tx.Create(&completion).Error
}

// updateEnrollmentProgress recomputes progress over the course's published
// modules and moves the status ENROLLED -> IN_PROGRESS -> COMPLETED.
func updateEnrollmentProgress(tx *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	enrollment, err := findEnrollment(tx, userID, courseID)
	if err != nil {
		return nil, err
	}

	publishedModules := tx.Model(&courseModels.Module{}).Select("id").
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true)

	var total, completed int64
	if err := tx.Model(&courseModels.Module{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&courseModels.ModuleCompletion{}).
		Where("user_id = ? AND module_id IN (?)", userID, publishedModules).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}

	status := enrollment.Status
	completedAt := enrollment.CompletedAt
	switch {
	case total > 0 && completed >= total:
		status = courseModels.EnrollmentCompleted
		if completedAt == nil {
			now := time.Now()
			completedAt = &now
		}
	case completed > 0:
		status = courseModels.EnrollmentInProgress
		completedAt = nil
	}

	if err := tx.Model(enrollment).Updates(map[string]interface{}{
		"progress":          progress,
		"completed_modules": int(completed),
		"total_modules":     int(total),
		"status":            status,
		"completed_at":      completedAt,
	}).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

// EnrollCourse enrolls the caller in a published course
func EnrollCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("id").(uint)
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var course *courseModels.Course
	var enrollment *courseModels.Enrollment
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		course, err = publishedCourse(tx, courseID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&courseModels.Enrollment{}).
			Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errAlreadyEnrolled
		}
		if err := tx.Create(&courseModels.Enrollment{
			UserID:   userID,
			CourseID: courseID,
			Status:   courseModels.EnrollmentEnrolled,
		}).Error; err != nil {
			return err
		}
		enrollment, err = updateEnrollmentProgress(tx, userID, courseID)
		return err
	})
	if errors.Is(err, errAlreadyEnrolled) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}
	if err != nil {
		return respondError(c, err, "enroll in course")
	}

	utils.SendEnrollmentEmail(user.Email, user.Name, course.Title)
	logger.Log.Info("user enrolled", "user_id", userID, "course_id", courseID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

// MyEnrollments lists the caller's enrollments, newest first
func MyEnrollments(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	q := c.Locals("listQuery").(*validators.ListQuery)

	scope := database.Database.Db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND is_deleted = ?", userID, false)
	if q.Status != "" {
		scope = scope.Where("status = ?", q.Status)
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	enrollments := []courseModels.Enrollment{}
	if err := scope.Preload("Course").Order("created_at DESC, id DESC").
		Offset(q.Offset).Limit(q.Limit).Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", utils.ListResponse(enrollments, total, q.Offset, q.Limit))
}

// CompleteModule marks a non-assessment module as done for the caller
func CompleteModule(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID := c.Locals("id").(uint)

	var enrollment *courseModels.Enrollment
	var created bool
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		module, err := publishedModule(tx, moduleID)
		if err != nil {
			return err
		}
		if module.ContentType == courseModels.ContentAssessment {
			return fmt.Errorf("%w: assessments are completed by passing them", ErrInvalid)
		}
		if _, err := findEnrollment(tx, userID, module.CourseID); err != nil {
			return err
		}
		created, err = markModuleComplete(tx, userID, module)
		if err != nil {
			return err
		}
		enrollment, err = updateEnrollmentProgress(tx, userID, module.CourseID)
		return err
	})
	if err != nil {
		return respondError(c, err, "mark module as completed")
	}

	if enrollment.Status == courseModels.EnrollmentCompleted && created {
		var user models.User
		if err := database.Database.Db.Select("email", "name").Where("id = ?", userID).First(&user).Error; err == nil {
			var course courseModels.Course
			if err := database.Database.Db.Select("title").Where("id = ?", enrollment.CourseID).First(&course).Error; err == nil {
				utils.SendCourseCompletedEmail(user.Email, user.Name, course.Title)
			}
		}
	}

	message := "Module marked as completed!"
	if !created {
		message = "Module already completed."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, enrollment)
}

// CourseProgress returns the caller's progress with per-module completion flags
func CourseProgress(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("id").(uint)
	db := database.Database.Db

	if _, err := publishedCourse(db, courseID); err != nil {
		return respondError(c, err, "fetch progress")
	}
	enrollment, err := findEnrollment(db, userID, courseID)
	if err != nil {
		return respondError(c, err, "fetch progress")
	}

	var modules []courseModels.Module
	if err := liveModules(db).Where("course_id = ? AND is_published = ?", courseID, true).Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	var done []uint
	if err := db.Model(&courseModels.ModuleCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).Pluck("module_id", &done).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	doneSet := make(map[uint]bool, len(done))
	for _, id := range done {
		doneSet[id] = true
	}

	type moduleProgress struct {
		ModuleID    uint   `json:"module_id"`
		Title       string `json:"title"`
		ContentType string `json:"content_type"`
		OrderIndex  int    `json:"order_index"`
		Completed   bool   `json:"completed"`
	}
	items := make([]moduleProgress, 0, len(modules))
	for _, m := range modules {
		items = append(items, moduleProgress{
			ModuleID:    m.ID,
			Title:       m.Title,
			ContentType: m.ContentType,
			OrderIndex:  m.OrderIndex,
			Completed:   doneSet[m.ID],
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment": enrollment,
		"modules":    items,
	})
}
