package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fairway/pkg/logger"
	"fairway/pkg/model"
	"fairway/pkg/slot"
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

type RentalValidator struct {
	validate       *validator.Validate
	policy         slot.Policy
	maxAdvanceDays int
	logger         *logger.Logger
}

func NewRentalValidator(policy slot.Policy, maxAdvanceDays int, log *logger.Logger) *RentalValidator {
	v := validator.New()

	log.Info("Rental validator initialized successfully")

	return &RentalValidator{
		validate:       v,
		policy:         policy,
		maxAdvanceDays: maxAdvanceDays,
		logger:         log,
	}
}

// Validate checks a booking request against the struct tags and the timing
// rules. The request is expected to be sanitized first; the phone must
// already be in E.164 form.
func (v *RentalValidator) Validate(req *model.RentalRequest, now time.Time) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if err := v.validate.Var(req.Phone, "e164"); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Phone",
				Message: "phone could not be normalized to E.164 format (e.g., +4791234567)",
			},
		}
	}

	if !v.policy.Knows(req.Holes) {
		return ValidationErrors{
			ValidationError{
				Field:   "Holes",
				Message: fmt.Sprintf("no duration policy configured for %d holes", req.Holes),
			},
		}
	}

	if req.StartTime.Before(now) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time cannot be in the past",
			},
		}
	}

	horizon := now.AddDate(0, 0, v.maxAdvanceDays)
	if req.StartTime.After(horizon) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: fmt.Sprintf("start_time cannot be more than %d days ahead", v.maxAdvanceDays),
			},
		}
	}

	if req.NotificationMethod == model.NotifyByEmail && req.Email == "" {
		return ValidationErrors{
			ValidationError{
				Field:   "Email",
				Message: "email is required when notification_method is email",
			},
		}
	}

	return nil
}

func (v *RentalValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +4791234567)", err.Field())
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
