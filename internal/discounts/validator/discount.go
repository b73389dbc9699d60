package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

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

type DiscountValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewDiscountValidator(log *logger.Logger) *DiscountValidator {
	v := validator.New()

	if err := validation.Register(v); err != nil {
		log.Fatal("Failed to register discount validations", "error", err)
	}

	return &DiscountValidator{
		validate: v,
		logger:   log,
	}
}

func (v *DiscountValidator) Validate(discount *model.Discount) error {
	if err := v.validate.Struct(discount); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}

	if discount.Type == model.DiscountTypePercentage {
		value, err := decimal.NewFromString(discount.Value)
		if err == nil && value.GreaterThan(decimal.NewFromInt(100)) {
			return ValidationErrors{
				ValidationError{
					Field:   "Value",
					Message: "percentage discounts cannot exceed 100",
				},
			}
		}
	}

	if discount.ExpiresAt != nil && !discount.ExpiresAt.After(time.Now()) {
		return ValidationErrors{
			ValidationError{
				Field:   "ExpiresAt",
				Message: "expiry must be in the future",
			},
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
