package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is an offering listed on the public site (training, consulting, ...).
type Service struct {
	gorm.Model
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description" gorm:"type:text"`
	Icon        string         `json:"icon"`
	Features    datatypes.JSON `json:"features"`
	OrderIndex  int            `json:"order_index" gorm:"default:0"`
	IsPublished bool           `json:"is_published" gorm:"default:false"`
	IsDeleted   bool           `json:"-" gorm:"default:false"`
}
