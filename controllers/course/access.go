package controllers

import (
	"errors"
	"fillop/middleware"
	"fillop/models"
	courseModels "fillop/models/course"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid request")
)

type actor struct {
	ID   uint
	Role string
}

func (a actor) isAdmin() bool { return a.Role == models.RoleAdmin }

func currentActor(c *fiber.Ctx) actor {
	id, _ := c.Locals("userId").(uint)
	role, _ := c.Locals("role").(string)
	return actor{ID: id, Role: role}
}

// respondError maps domain errors onto the JSON envelope.
func respondError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotSibling):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, notFoundMessage(err), nil)
	case errors.Is(err, ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have access to this resource!", nil)
	case errors.Is(err, ErrInvalid):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, fmt.Sprintf("Failed to %s!", action), nil)
	}
}

func notFoundMessage(err error) string {
	var nf notFoundError
	if errors.As(err, &nf) {
		return string(nf) + " not found!"
	}
	if errors.Is(err, ErrNotSibling) {
		return "Item not found in this list!"
	}
	return "Resource not found!"
}

type notFoundError string

func (e notFoundError) Error() string { return string(e) + " not found" }
func (e notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func wrapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError(what)
	}
	return err
}

// findCourse loads a live course the actor may manage. Lecturers only reach
// courses they authored.
func findCourse(tx *gorm.DB, a actor, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&course).Error; err != nil {
		return nil, wrapNotFound(err, "Course")
	}
	if !a.isAdmin() && course.AuthorID != a.ID {
		return nil, ErrForbidden
	}
	return &course, nil
}

func findModule(tx *gorm.DB, a actor, id uint) (*courseModels.Module, *courseModels.Course, error) {
	var module courseModels.Module
	if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&module).Error; err != nil {
		return nil, nil, wrapNotFound(err, "Module")
	}
	course, err := findCourse(tx, a, module.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return &module, course, nil
}

// loadCategories resolves ids to live categories and fails if any is missing.
func loadCategories(tx *gorm.DB, ids []uint) ([]courseModels.Category, error) {
	categories := []courseModels.Category{}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return categories, nil
	}
	if err := tx.Where("id IN ? AND is_deleted = ?", ids, false).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, notFoundError("Category")
	}
	return categories, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
