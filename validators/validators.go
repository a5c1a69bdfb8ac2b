// Package validators holds the shared request validation helpers used by the
// per-area validator middlewares.
package validators

import (
	"fillop/middleware"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Check runs struct tag validation on v and returns a field -> message map,
// empty when v is valid.
func Check(v interface{}) map[string]string {
	errs := make(map[string]string)
	err := validate.Struct(v)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["body"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", field)
	case "email":
		return "Invalid email!"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long!", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s!", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("%s must match %s!", field, strings.ToLower(fe.Param()))
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long!", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric!", field)
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s!", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid!", field)
	}
}

// Body parses the request body into a new T, lets normalize trim it and add
// cross-field errors, runs tag validation and stores the result under key.
func Body[T any](key string, normalize func(*T) map[string]string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		var extra map[string]string
		if normalize != nil {
			extra = normalize(reqData)
		}
		errors := Check(reqData)
		for k, v := range extra {
			if _, exists := errors[k]; !exists {
				errors[k] = v
			}
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals(key, reqData)
		return c.Next()
	}
}

// ParseID converts a route parameter into a positive ID.
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// IDParams validates that each named route parameter is a positive integer and
// stores it in Locals under the same name.
func IDParams(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			id, ok := ParseID(c.Params(name))
			if !ok {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("Invalid %s!", name), nil)
			}
			c.Locals(name, id)
		}
		return c.Next()
	}
}

// ListQuery is the offset/limit window every list endpoint accepts.
type ListQuery struct {
	Offset   int    `query:"offset"`
	Limit    int    `query:"limit"`
	Search   string `query:"search"`
	Category uint   `query:"category"`
	Role     string `query:"role"`
	Status   string `query:"status"`
}

// List validates the list query string and stores a *ListQuery under "listQuery".
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := new(ListQuery)
		if err := c.QueryParser(q); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)
		if q.Offset < 0 {
			errors["offset"] = "Offset must not be negative!"
		}
		if q.Limit < 0 {
			errors["limit"] = "Limit must not be negative!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		if q.Limit == 0 {
			q.Limit = DefaultLimit
		}
		if q.Limit > MaxLimit {
			q.Limit = MaxLimit
		}
		q.Search = strings.TrimSpace(q.Search)
		q.Role = strings.ToUpper(strings.TrimSpace(q.Role))
		q.Status = strings.ToUpper(strings.TrimSpace(q.Status))

		c.Locals("listQuery", q)
		return c.Next()
	}
}
