package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title         string         `json:"title" gorm:"not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Image         string         `json:"image"`
	Duration      int64          `json:"duration" gorm:"default:0"` // minutes, summed from modules
	ShowOutside   bool           `json:"show_outside" gorm:"default:false"`
	IsPublished   bool           `json:"is_published" gorm:"default:false"`
	AuthorID      uint           `json:"author_id" gorm:"index"`
	Categories    []Category     `json:"categories" gorm:"many2many:course_categories;"`
	Modules       []Module       `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
	LearningPaths []LearningPath `json:"learning_paths,omitempty" gorm:"-"`
	IsDeleted     bool           `json:"-" gorm:"default:false"`
}
