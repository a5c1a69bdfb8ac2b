package course

import "gorm.io/gorm"

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// LearningPath is an ordered collection of courses.
type LearningPath struct {
	gorm.Model
	Title         string     `json:"title" gorm:"not null"`
	Description   string     `json:"description" gorm:"type:text"`
	Image         string     `json:"image"`
	Difficulty    string     `json:"difficulty" gorm:"default:'Beginner'"`
	EstimatedTime string     `json:"estimated_time"`
	IsPublished   bool       `json:"is_published" gorm:"default:false"`
	AuthorID      uint       `json:"author_id" gorm:"index"`
	Categories    []Category `json:"categories" gorm:"many2many:learning_path_categories;"`
	Courses       []Course   `json:"courses,omitempty" gorm:"-"`
	IsDeleted     bool       `json:"-" gorm:"default:false"`
}

// LearningPathCourse places a course at a position inside a learning path.
type LearningPathCourse struct {
	gorm.Model
	LearningPathID uint `json:"learning_path_id" gorm:"index;not null"`
	CourseID       uint `json:"course_id" gorm:"index;not null"`
	OrderIndex     int  `json:"order_index" gorm:"default:0"`
}
