package courseValidator

import (
	courseModels "fillop/models/course"
	"fillop/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ============ Course Validators ============

type CourseRequest struct {
	Title       string `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image" form:"image"`
	ShowOutside bool   `json:"show_outside" form:"show_outside"`
	IsPublished bool   `json:"is_published" form:"is_published"`
	CategoryIDs []uint `json:"category_ids" form:"category_ids"`
}

type CourseUpdateRequest struct {
	Title       *string `json:"title" form:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" form:"description"`
	Image       *string `json:"image" form:"image"`
	ShowOutside *bool   `json:"show_outside" form:"show_outside"`
	IsPublished *bool   `json:"is_published" form:"is_published"`
	CategoryIDs *[]uint `json:"category_ids" form:"category_ids"`
}

type PublishRequest struct {
	IsPublished *bool `json:"is_published" validate:"required"`
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// CreateCourse validates course creation request
func CreateCourse() fiber.Handler {
	return validators.Body("validatedCourse", func(r *CourseRequest) map[string]string {
		r.Title = strings.TrimSpace(r.Title)
		r.Description = strings.TrimSpace(r.Description)
		return nil
	})
}

// UpdateCourse validates course update request
func UpdateCourse() fiber.Handler {
	return validators.Body("validatedCourseUpdate", func(r *CourseUpdateRequest) map[string]string {
		trimPtr(r.Title)
		trimPtr(r.Description)
		return nil
	})
}

func Publish() fiber.Handler {
	return validators.Body[PublishRequest]("validatedPublish", nil)
}

// ============ Module Validators ============

type ModuleRequest struct {
	Title       string `json:"title" form:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" form:"description"`
	ContentType string `json:"content_type" form:"content_type" validate:"required,oneof=pdf video ppt docx assessment text"`
	ContentURL  string `json:"content_url" form:"content_url"`
	TextContent string `json:"text_content" form:"text_content"`
	Duration    int    `json:"duration" form:"duration" validate:"min=0"`
	IsPublished bool   `json:"is_published" form:"is_published"`
}

type ModuleUpdateRequest struct {
	Title       *string `json:"title" form:"title" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" form:"description"`
	ContentType *string `json:"content_type" form:"content_type" validate:"omitempty,oneof=pdf video ppt docx assessment text"`
	ContentURL  *string `json:"content_url" form:"content_url"`
	TextContent *string `json:"text_content" form:"text_content"`
	Duration    *int    `json:"duration" form:"duration" validate:"omitempty,min=0"`
	IsPublished *bool   `json:"is_published" form:"is_published"`
}

func normalizeContentType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateModule validates module creation request
func CreateModule() fiber.Handler {
	return validators.Body("validatedModule", func(r *ModuleRequest) map[string]string {
		r.Title = strings.TrimSpace(r.Title)
		r.ContentType = normalizeContentType(r.ContentType)
		if r.ContentType == courseModels.ContentText && strings.TrimSpace(r.TextContent) == "" && r.ContentURL == "" {
			return map[string]string{"text_content": "Text content is required for text modules!"}
		}
		return nil
	})
}

// UpdateModule validates module update request
func UpdateModule() fiber.Handler {
	return validators.Body("validatedModuleUpdate", func(r *ModuleUpdateRequest) map[string]string {
		trimPtr(r.Title)
		if r.ContentType != nil {
			*r.ContentType = normalizeContentType(*r.ContentType)
		}
		return nil
	})
}
