package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookd/pkg/logger"
	"bookd/pkg/model"
)

const minPasswordLength = 8

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

type WorkerValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewWorkerValidator(log *logger.Logger) *WorkerValidator {
	return &WorkerValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *WorkerValidator) ValidateInvitation(invitation *model.Invitation) error {
	return v.validateStruct(invitation)
}

func (v *WorkerValidator) ValidateAccount(account *model.Account) error {
	return v.validateStruct(account)
}

func (v *WorkerValidator) ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ValidationErrors{
			ValidationError{
				Field:   "Password",
				Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
			},
		}
	}
	return nil
}

func (v *WorkerValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
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
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
