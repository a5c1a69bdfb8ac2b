package course

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentEnrolled   = "ENROLLED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentCompleted  = "COMPLETED"
)

// Enrollment tracks a user's enrollment in a course with progress
type Enrollment struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"index;not null"`
	CourseID         uint       `json:"course_id" gorm:"index;not null"`
	Status           string     `json:"status" gorm:"default:'ENROLLED'"` // ENROLLED, IN_PROGRESS, COMPLETED
	Progress         float64    `json:"progress" gorm:"default:0"`        // Completion percentage (0-100)
	CompletedModules int        `json:"completed_modules" gorm:"default:0"`
	TotalModules     int        `json:"total_modules" gorm:"default:0"`
	CompletedAt      *time.Time `json:"completed_at"`
	Course           *Course    `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	IsDeleted        bool       `json:"-" gorm:"default:false"`
}

// ModuleCompletion records that a user finished a module.
type ModuleCompletion struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"index;not null"`
	CourseID uint `json:"course_id" gorm:"index;not null"`
	ModuleID uint `json:"module_id" gorm:"index;not null"`
}
