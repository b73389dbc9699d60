package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookd/pkg/logger"
	"bookd/pkg/model"
	"bookd/pkg/validation"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type CatalogValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogValidator(log *logger.Logger) *CatalogValidator {
	v := validator.New()

	if err := validation.Register(v); err != nil {
		log.Fatal("Failed to register catalog validations", "error", err)
	}

	return &CatalogValidator{
		validate: v,
		logger:   log,
	}
}

func (v *CatalogValidator) Validate(svc *model.CatalogService) error {
	if err := v.validate.Struct(svc); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}

	for _, opt := range svc.Options {
		// Impact type and value come together or not at all.
		if (opt.ImpactType == "") != (opt.ImpactValue == "") {
			return ValidationErrors{
				ValidationError{
					Field:   "Options",
					Message: fmt.Sprintf("option %q must set impact_type and impact_value together", opt.Name),
				},
			}
		}
	}

	return nil
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "decimal_amount":
			message = fmt.Sprintf("%s must be a non-negative decimal with at most 2 fraction digits", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
