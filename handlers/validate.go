// ABOUTME: Input validation for MCP tool arguments
// ABOUTME: Registers pipeline enum validators with go-playground/validator
package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/dealdesk/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "stage", func(fl validator.FieldLevel) bool {
		return models.Stage(fl.Field().String()).IsValid()
	})
	mustRegister(v, "priority", func(fl validator.FieldLevel) bool {
		return models.Priority(fl.Field().String()).IsValid()
	})
	mustRegister(v, "strategy", func(fl validator.FieldLevel) bool {
		return models.Strategy(fl.Field().String()).IsValid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// validateInput checks s against its validate tags and flattens failures into
// one readable error.
func validateInput(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid input: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, fe.Param())
	case "uuid":
		return field + " must be a UUID"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return field + " must be a URL"
	case "email":
		return field + " must be an email address"
	case "datetime":
		return field + " must be an RFC 3339 timestamp"
	case "stage":
		return fmt.Sprintf("%s must be one of %s", field, joinStages())
	case "priority":
		return field + " must be one of low, medium, high"
	case "strategy":
		return fmt.Sprintf("%s must be one of %s", field, joinStrategies())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func joinStages() string {
	names := make([]string, 0, len(models.Stages()))
	for _, s := range models.Stages() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func joinStrategies() string {
	names := make([]string, 0, len(models.ValidStrategies))
	for _, s := range models.ValidStrategies {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
