package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PassPercentage is the score an attempt needs to count the module as complete.
const PassPercentage = 50.0

// Assessment belongs to a module of content type "assessment".
type Assessment struct {
	gorm.Model
	ModuleID          uint       `json:"module_id" gorm:"uniqueIndex;not null"`
	Title             string     `json:"title"`
	Description       string     `json:"description" gorm:"type:text"`
	Duration          int        `json:"duration" gorm:"default:0"` // minutes
	NumberOfQuestions int        `json:"numberOfQuestions" gorm:"default:0"`
	Questions         []Question `json:"questions" gorm:"foreignKey:AssessmentID"`
}

type Question struct {
	gorm.Model
	AssessmentID uint     `json:"assessment_id" gorm:"index;not null"`
	Text         string   `json:"text" gorm:"type:text"`
	OrderIndex   int      `json:"order_index" gorm:"default:0"`
	Answers      []Answer `json:"answers" gorm:"foreignKey:QuestionID"`
	Delete       bool     `json:"delete,omitempty" gorm:"-"`
	LocalKey     uint64   `json:"-" gorm:"-"` // editor-side identity, never stored
}

type Answer struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	Delete     bool   `json:"delete,omitempty" gorm:"-"`
	LocalKey   uint64 `json:"-" gorm:"-"`
}

// AssessmentAttempt is one graded submission by a student.
type AssessmentAttempt struct {
	gorm.Model
	UserID        uint           `json:"user_id" gorm:"index;not null"`
	AssessmentID  uint           `json:"assessment_id" gorm:"index;not null"`
	ModuleID      uint           `json:"module_id" gorm:"index;not null"`
	Selections    datatypes.JSON `json:"selections"` // question ID -> selected answer IDs
	Score         int            `json:"score"`
	MaxScore      int            `json:"max_score"`
	Percentage    float64        `json:"percentage"`
	Passed        bool           `json:"passed" gorm:"default:false"`
	AttemptNumber int            `json:"attempt_number" gorm:"default:1"`
}
