// Package validation provides go-playground/validator integration with
// IVR-specific custom rules for flow definitions decoded from the editor.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ivrflow/ivrflow/internal/core/flow"
)

// Validate is the shared validator instance with custom rules registered.
var Validate *validator.Validate

var (
	nodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	portIDPattern = regexp.MustCompile(`^[a-z]+(:[a-zA-Z0-9_#*-]+)?$`)
)

func init() {
	Validate = validator.New()

	Validate.RegisterValidation("node_id", validateNodeID)
	Validate.RegisterValidation("node_type", validateNodeType)
	Validate.RegisterValidation("port_id", validatePortID)
	Validate.RegisterValidation("clock_time", validateClockTime)
	Validate.RegisterValidation("calendar_date", validateCalendarDate)
	Validate.RegisterValidation("weekday", validateWeekday)
	Validate.RegisterValidation("timezone_name", validateTimezone)

	// Report field names as their JSON tags
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateDefinition validates a decoded flow definition against the
// struct tags on the wire model. It covers field-level shape only; the
// compiler performs the deeper structural checks.
func ValidateDefinition(def *flow.FlowDefinition) error {
	if def == nil {
		return ValidationErrors{{Field: "definition", Message: "definition is nil"}}
	}
	return ValidateStruct(def)
}

// ValidateStruct validates any tagged struct with the shared instance.
func ValidateStruct(s any) error {
	if err := Validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) ValidationErrors {
	var out ValidationErrors
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Message: errorMessage(fe),
			})
		}
	} else {
		out = append(out, ValidationError{Field: "", Message: err.Error()})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "len":
		return fmt.Sprintf("length must be exactly %s", fe.Param())
	case "node_id":
		return "must be a valid node identifier (alphanumeric, underscore, hyphen)"
	case "node_type":
		return "must be one of: start, menu, media, calendar, transfer, voicemail, hangup"
	case "port_id":
		return "must be a valid port identifier"
	case "clock_time":
		return "must be a wall-clock time in HH:MM format"
	case "calendar_date":
		return "must be a date in YYYY-MM-DD format"
	case "weekday":
		return "must be a three-letter weekday name (mon..sun)"
	case "timezone_name":
		return "must be an IANA timezone name"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}

// Custom validation functions for IVR-specific rules

func validateNodeID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return id != "" && len(id) <= 100 && nodeIDPattern.MatchString(id)
}

func validateNodeType(fl validator.FieldLevel) bool {
	switch flow.NodeType(fl.Field().String()) {
	case flow.NodeTypeStart, flow.NodeTypeMenu, flow.NodeTypeMedia,
		flow.NodeTypeCalendar, flow.NodeTypeTransfer,
		flow.NodeTypeVoicemail, flow.NodeTypeHangup:
		return true
	}
	return false
}

func validatePortID(fl validator.FieldLevel) bool {
	return portIDPattern.MatchString(fl.Field().String())
}

func validateClockTime(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "mon", "tue", "wed", "thu", "fri", "sat", "sun":
		return true
	}
	return false
}

func validateTimezone(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}
