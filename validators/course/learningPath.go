package courseValidator

import (
	"fillop/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type LearningPathRequest struct {
	Title         string `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description   string `json:"description" form:"description"`
	Image         string `json:"image" form:"image"`
	Difficulty    string `json:"difficulty" form:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	EstimatedTime string `json:"estimated_time" form:"estimated_time"`
	IsPublished   bool   `json:"is_published" form:"is_published"`
	CategoryIDs   []uint `json:"category_ids" form:"category_ids"`
	CourseIDs     []uint `json:"course_ids" form:"course_ids"`
}

type LearningPathUpdateRequest struct {
	Title         *string `json:"title" form:"title" validate:"omitempty,min=3,max=200"`
	Description   *string `json:"description" form:"description"`
	Image         *string `json:"image" form:"image"`
	Difficulty    *string `json:"difficulty" form:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	EstimatedTime *string `json:"estimated_time" form:"estimated_time"`
	IsPublished   *bool   `json:"is_published" form:"is_published"`
	CategoryIDs   *[]uint `json:"category_ids" form:"category_ids"`
}

type PathCourseRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func CreateLearningPath() fiber.Handler {
	return validators.Body("validatedLearningPath", func(r *LearningPathRequest) map[string]string {
		r.Title = strings.TrimSpace(r.Title)
		r.Description = strings.TrimSpace(r.Description)
		r.CourseIDs = dedupe(r.CourseIDs)
		r.CategoryIDs = dedupe(r.CategoryIDs)
		return nil
	})
}

func UpdateLearningPath() fiber.Handler {
	return validators.Body("validatedLearningPathUpdate", func(r *LearningPathUpdateRequest) map[string]string {
		trimPtr(r.Title)
		trimPtr(r.Description)
		if r.CategoryIDs != nil {
			ids := dedupe(*r.CategoryIDs)
			r.CategoryIDs = &ids
		}
		return nil
	})
}

func AddPathCourse() fiber.Handler {
	return validators.Body[PathCourseRequest]("validatedPathCourse", nil)
}
