package course

import "gorm.io/gorm"

const (
	ContentPDF        = "pdf"
	ContentVideo      = "video"
	ContentPPT        = "ppt"
	ContentDOCX       = "docx"
	ContentAssessment = "assessment"
	ContentText       = "text"
)

// ContentTypes lists the accepted module content types.
var ContentTypes = []string{ContentPDF, ContentVideo, ContentPPT, ContentDOCX, ContentAssessment, ContentText}

// Module represents a unit of content within a course
type Module struct {
	gorm.Model
	CourseID    uint        `json:"courseId" gorm:"index;not null"`
	Title       string      `json:"title"`
	Description string      `json:"description" gorm:"type:text"`
	ContentType string      `json:"content_type" gorm:"default:'text'"`
	ContentURL  string      `json:"content_url"`
	TextContent string      `json:"text_content,omitempty" gorm:"type:text"`
	Duration    int         `json:"duration" gorm:"default:0"` // minutes
	IsPublished bool        `json:"is_published" gorm:"default:false"`
	OrderIndex  int         `json:"order_index" gorm:"default:0"` // position in course, 1-based
	Assessment  *Assessment `json:"assessment,omitempty" gorm:"foreignKey:ModuleID"`
	IsDeleted   bool        `json:"-" gorm:"default:false"`
}
