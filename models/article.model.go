package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Article is a news post shown on the public site.
type Article struct {
	gorm.Model
	Title       string         `json:"title" gorm:"not null"`
	Summary     string         `json:"summary"`
	Body        string         `json:"body" gorm:"type:text"`
	Image       string         `json:"image"`
	Tags        datatypes.JSON `json:"tags"`
	AuthorID    uint           `json:"author_id" gorm:"index"`
	IsPublished bool           `json:"is_published" gorm:"default:false"`
	PublishedAt *time.Time     `json:"published_at"`
	IsDeleted   bool           `json:"-" gorm:"default:false"`
}
