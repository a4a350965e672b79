package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("description", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(fl.Field().String())
		return n >= models.DescriptionMinLen && n <= models.DescriptionMaxLen
	})

	return v
}

// checkInput runs struct validation and renders the first failure as a 400.
func checkInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.Validation, "Invalid input data", err)
	}

	return apperr.New(apperr.Validation, fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("Please provide %s", field)
	case "email":
		return "Please provide a valid email."
	case "min":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "eqfield":
		return "Passwords are not the same"
	case "role":
		return fmt.Sprintf("%s must be one of: %s, %s", field, models.RoleEmployee, models.RoleEmployer)
	case "description":
		if text, _ := fe.Value().(string); utf8.RuneCountInString(text) < models.DescriptionMinLen {
			return fmt.Sprintf("%s must be at least %d characters long", field, models.DescriptionMinLen)
		}
		return fmt.Sprintf("%s must be at most %d characters long", field, models.DescriptionMaxLen)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based pagination request.
type Page struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (p Page) Normalize() (Page, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return p, apperr.New(apperr.Validation, "page must be a positive number")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return p, apperr.Newf(apperr.Validation, "limit must be between 1 and %d", MaxLimit)
	}
	// keeps Offset from overflowing
	if p.Page > math.MaxInt/p.Limit {
		return p, apperr.New(apperr.Validation, "page is out of range")
	}
	return p, nil
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paged is one page of results plus totals.
type Paged[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPaged[T any](items []T, p Page, total int) Paged[T] {
	if items == nil {
		items = []T{}
	}
	return Paged[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: TotalPages(total, p.Limit),
	}
}

func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
