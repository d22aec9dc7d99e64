package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

var (
	phoneRegex = regexp.MustCompile(`^(?:|\+?[1-9]\d{6,14})$`)
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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("guest_details", validateGuestDetails); err != nil {
		log.Fatal("Failed to register 'guest_details' validator",
			"error", err,
		)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// guest details map guest name to a contact phone; at least one guest is
// required and phones may be empty but not malformed
func validateGuestDetails(fl validator.FieldLevel) bool {
	value := fl.Field()

	if value.IsNil() {
		return false
	}

	guests, ok := value.Interface().(map[string]string)
	if !ok {
		return false
	}

	if len(guests) == 0 || len(guests) > 20 {
		return false
	}

	for name, phone := range guests {
		if name == "" || !phoneRegex.MatchString(phone) {
			return false
		}
	}
	return true
}

func (v *BookingValidator) Validate(booking *model.Booking, now time.Time) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !booking.CheckOut.After(booking.CheckIn) {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckOut",
				Message: "check_out must be after check_in",
			},
		}
	}

	if booking.CheckIn.Before(now.Truncate(24 * time.Hour)) {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckIn",
				Message: "check_in cannot be in the past",
			},
		}
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "guest_details":
			message = fmt.Sprintf("%s must name between 1 and 20 guests with valid contact phones", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
