package contentValidator

import (
	"fillop/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type ArticleRequest struct {
	Title       string   `json:"title" form:"title" validate:"required,min=3,max=200"`
	Summary     string   `json:"summary" form:"summary" validate:"max=500"`
	Body        string   `json:"body" form:"body"`
	Image       string   `json:"image" form:"image"`
	Tags        []string `json:"tags" form:"tags"`
	IsPublished bool     `json:"is_published" form:"is_published"`
}

type ServiceRequest struct {
	Name        string   `json:"name" form:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" form:"description"`
	Icon        string   `json:"icon" form:"icon"`
	Features    []string `json:"features" form:"features"`
	OrderIndex  int      `json:"order_index" form:"order_index" validate:"min=0"`
	IsPublished bool     `json:"is_published" form:"is_published"`
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Article validates both create and full-replace update of an article.
func Article() fiber.Handler {
	return validators.Body("validatedArticle", func(r *ArticleRequest) map[string]string {
		r.Title = strings.TrimSpace(r.Title)
		r.Summary = strings.TrimSpace(r.Summary)
		r.Tags = cleanList(r.Tags)
		return nil
	})
}

func Service() fiber.Handler {
	return validators.Body("validatedService", func(r *ServiceRequest) map[string]string {
		r.Name = strings.TrimSpace(r.Name)
		r.Features = cleanList(r.Features)
		return nil
	})
}
