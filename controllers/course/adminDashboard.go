package controllers

import (
	"fillop/database"
	"fillop/middleware"
	"fillop/models"
	courseModels "fillop/models/course"
	"fillop/utils"
	"fillop/validators"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

type enrollmentWithUser struct {
	courseModels.Enrollment
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// CourseEnrollments lists the students enrolled in a course the caller manages
func CourseEnrollments(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	q := c.Locals("listQuery").(*validators.ListQuery)
	db := database.Database.Db

	if _, err := findCourse(db, a, courseID); err != nil {
		return respondError(c, err, "fetch enrollments")
	}

	scope := db.Model(&courseModels.Enrollment{}).
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ? AND enrollments.is_deleted = ?", courseID, false)
	if q.Status != "" {
		scope = scope.Where("enrollments.status = ?", q.Status)
	}
	if q.Search != "" {
		pattern := utils.LikePattern(q.Search)
		scope = scope.Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	result := []enrollmentWithUser{}
	if err := scope.Select("enrollments.*, users.name AS user_name, users.email AS user_email").
		Order("enrollments.created_at DESC, enrollments.id DESC").
		Offset(q.Offset).Limit(q.Limit).Scan(&result).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", utils.ListResponse(result, total, q.Offset, q.Limit))
}

type dashboardStats struct {
	Users                map[string]int64 `json:"users"`
	PendingInvites       int64            `json:"pending_invites"`
	NewUsersThisWeek     int64            `json:"new_users_this_week"`
	NewUsersThisMonth    int64            `json:"new_users_this_month"`
	TotalCourses         int64            `json:"total_courses"`
	PublishedCourses     int64            `json:"published_courses"`
	TotalLearningPaths   int64            `json:"total_learning_paths"`
	TotalEnrollments     int64            `json:"total_enrollments"`
	CompletedEnrollments int64            `json:"completed_enrollments"`
}

func collectStats(db *gorm.DB, at time.Time) (*dashboardStats, error) {
	stats := &dashboardStats{Users: map[string]int64{}}
	clock := now.With(at)

	var byRole []struct {
		Role  string
		Total int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS total").
		Where("is_deleted = ?", false).Group("role").Scan(&byRole).Error; err != nil {
		return nil, err
	}
	for _, r := range []string{models.RoleAdmin, models.RoleLecturer, models.RoleStudent} {
		stats.Users[r] = 0
	}
	for _, row := range byRole {
		stats.Users[row.Role] = row.Total
	}

	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.PendingInvites, &models.User{}, "is_deleted = ? AND status = ?", []interface{}{false, models.StatusInvited}},
		{&stats.NewUsersThisWeek, &models.User{}, "is_deleted = ? AND created_at >= ?", []interface{}{false, clock.BeginningOfWeek()}},
		{&stats.NewUsersThisMonth, &models.User{}, "is_deleted = ? AND created_at >= ?", []interface{}{false, clock.BeginningOfMonth()}},
		{&stats.TotalCourses, &courseModels.Course{}, "is_deleted = ?", []interface{}{false}},
		{&stats.PublishedCourses, &courseModels.Course{}, "is_deleted = ? AND is_published = ?", []interface{}{false, true}},
		{&stats.TotalLearningPaths, &courseModels.LearningPath{}, "is_deleted = ?", []interface{}{false}},
		{&stats.TotalEnrollments, &courseModels.Enrollment{}, "is_deleted = ?", []interface{}{false}},
		{&stats.CompletedEnrollments, &courseModels.Enrollment{}, "is_deleted = ? AND status = ?", []interface{}{false, courseModels.EnrollmentCompleted}},
	}
	for _, cnt := range counts {
		if err := db.Model(cnt.model).Where(cnt.where, cnt.args...).Count(cnt.dst).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// DashboardStats gets dashboard statistics
func DashboardStats(c *fiber.Ctx) error {
	stats, err := collectStats(database.Database.Db, time.Now())
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard stats!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", stats)
}
