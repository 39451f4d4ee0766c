package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"jobmate/salary-service/internal/model"
)

// ValidationError reports bad client input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// country: a market code the job API knows about
	_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		_, ok := model.LookupCountry(fl.Field().String())
		return ok
	})

	// notblank: not empty and not only whitespace
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type countryRequest struct {
	Country string `form:"country" json:"country" validate:"required,notblank,country"`
}

type categoryRequest struct {
	Category string `form:"category" json:"category" validate:"max=100"`
}

type snapshotsQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Msg: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldErrorToString(e))
	}
	return &ValidationError{Msg: "invalid input: " + strings.Join(msgs, "; ")}
}

func fieldErrorToString(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "country":
		return fmt.Sprintf("%s %q is not a known market", field, e.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
