// Package validation wraps go-playground/validator with the custom tags the
// tool inputs use and renders validation failures as catalog-style error
// strings.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate

	// rangeSpecRe admits the range mini-language: column letters, A1
	// addresses, spans, comma lists, and the (cols)*(rows) product form.
	rangeSpecRe = regexp.MustCompile(`^[A-Za-z0-9:,()*\s]+$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Excel file path must have a supported extension.
		_ = v.RegisterValidation("filepath_ext", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			if s == "" {
				return false
			}
			return strings.HasSuffix(s, ".xlsx") || strings.HasSuffix(s, ".xlsm") ||
				strings.HasSuffix(s, ".xltx") || strings.HasSuffix(s, ".xltm")
		})
		// Range spec sanity: character-set check only. Unresolvable parts are
		// dropped silently at parse time, so this just rejects obvious junk.
		_ = v.RegisterValidation("rangespec", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // optional fields use omitempty with this tag
			}
			return rangeSpecRe.MatchString(s)
		})
		// Chart kind must be one the renderer knows.
		_ = v.RegisterValidation("chartkind", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "line", "col", "column", "bar", "area", "pie", "doughnut", "scatter", "radar":
				return true
			}
			return false
		})
	}
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "filepath_ext":
				return "VALIDATION: path must be an Excel file (.xlsx, .xlsm, .xltx, .xltm)"
			case "rangespec":
				return fmt.Sprintf("VALIDATION: %s has characters outside the range grammar; use forms like B, B:D, B2:B10, or (B,E)*(2,7)", field)
			case "chartkind":
				return "VALIDATION: chart kind must be one of line, col, bar, area, pie, doughnut, scatter, radar"
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			case "oneof":
				return fmt.Sprintf("VALIDATION: %s must be one of %s", field, fe.Param())
			}
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
