package courseValidator

import (
	"fillop/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description"`
}

type MergeCategoriesRequest struct {
	SourceIDs []uint `json:"source_ids" validate:"required,min=1,dive,gt=0"`
	TargetID  uint   `json:"target_id" validate:"required"`
}

func Category() fiber.Handler {
	return validators.Body("validatedCategory", func(r *CategoryRequest) map[string]string {
		r.Name = strings.TrimSpace(r.Name)
		r.Description = strings.TrimSpace(r.Description)
		return nil
	})
}

func MergeCategories() fiber.Handler {
	return validators.Body("validatedMerge", func(r *MergeCategoriesRequest) map[string]string {
		r.SourceIDs = dedupe(r.SourceIDs)
		for _, id := range r.SourceIDs {
			if id == r.TargetID {
				return map[string]string{"source_ids": "Target category cannot be one of the sources!"}
			}
		}
		return nil
	})
}
