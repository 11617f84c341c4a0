package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate    *validator.Validate
	varNameExpr = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func init() {
	validate = validator.New()

	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("longitude", validateLongitude)
	validate.RegisterValidation("varname", validateVarName)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180.0 && lon <= 180.0
}

// Variable names become processed table columns and database columns, so they
// are restricted to safe identifiers.
func validateVarName(fl validator.FieldLevel) bool {
	return varNameExpr.MatchString(fl.Field().String())
}

// FieldError is a configuration error pinned to the offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// Validate rejects a malformed configuration at load time, naming the first
// offending field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &FieldError{
				Field:   errs[0].Namespace(),
				Message: fieldMessage(errs[0]),
			}
		}
		return err
	}

	if _, err := time.LoadLocation(c.Extract.Timezone); err != nil {
		return &FieldError{
			Field:   "extract.timezone",
			Message: fmt.Sprintf("extract.timezone %q is not a recognized timezone", c.Extract.Timezone),
		}
	}

	if (c.Extract.StartDate == "") != (c.Extract.EndDate == "") {
		return &FieldError{
			Field:   "extract.start_date",
			Message: "extract.start_date and extract.end_date must be set together or both left empty",
		}
	}
	if c.Extract.StartDate != "" && c.Extract.StartDate > c.Extract.EndDate {
		return &FieldError{
			Field:   "extract.start_date",
			Message: fmt.Sprintf("extract.start_date %s is after extract.end_date %s", c.Extract.StartDate, c.Extract.EndDate),
		}
	}

	vars := make(map[string]bool, len(c.Extract.Variables))
	for _, v := range c.Extract.Variables {
		vars[v] = true
	}
	for _, m := range c.Charts.Metrics {
		if !vars[m] {
			return &FieldError{
				Field:   "charts.metrics",
				Message: fmt.Sprintf("charts.metrics contains %q which is not in extract.variables", m),
			}
		}
	}

	seen := make(map[string]bool, len(c.Cities))
	for _, city := range c.Cities {
		if seen[city.Name] {
			return &FieldError{
				Field:   "cities",
				Message: fmt.Sprintf("cities contains duplicate name %q", city.Name),
			}
		}
		seen[city.Name] = true
	}

	return nil
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Namespace())
	case "latitude":
		return fmt.Sprintf("%s must be a valid latitude between -90 and 90 degrees", err.Namespace())
	case "longitude":
		return fmt.Sprintf("%s must be a valid longitude between -180 and 180 degrees", err.Namespace())
	case "varname":
		return fmt.Sprintf("%s must be a lowercase identifier (letters, digits, underscores)", err.Namespace())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", err.Namespace(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Namespace(), err.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in format %s", err.Namespace(), err.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", err.Namespace())
	default:
		return fmt.Sprintf("%s is invalid", err.Namespace())
	}
}
