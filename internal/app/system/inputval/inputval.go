// Package inputval validates request DTOs with go-playground/validator and
// turns failures into user-facing messages.
//
// Struct fields carry `validate` rules and an optional `label` used in the
// message ("Email is required."). Custom rules:
//   - mailaddr: a bare e-mail address, see IsValidEmail
//   - nim: a student number (letters, digits, '.', '-', no spaces)
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps field label to message, for JSON error details.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

var nimPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their label (or json name) instead of the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("mailaddr", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("nim", func(fl validator.FieldLevel) bool {
		return nimPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks s against its struct tags.
func Validate(s any) *Result {
	res := &Result{}
	err := validate.Struct(s)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return label + " is required."
	case "email", "mailaddr":
		return "A valid email address is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nim":
		return label + " may only contain letters, digits, '.' and '-'."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail accepts a bare RFC 5322 address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	return validDotAtom(local) && validDotAtom(domain)
}

func validDotAtom(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}
