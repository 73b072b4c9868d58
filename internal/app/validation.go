package app

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	// bcrypt refuses longer input. Counted in bytes, not runes.
	maxPasswordBytes = 72
)

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name so the
// details map matches the request body.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
}

// bindError turns a ShouldBind failure into a response code and details.
func bindError(err error) (string, map[string]string) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return ErrRequestTooLarge, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrUnmarshal, nil
	}

	code := ErrInvalidFields
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			code = ErrMissingFields
			details[field] = field + "_required"
		case "email":
			details[field] = "invalid_email_format"
		case "e164":
			details[field] = "invalid_phone_format"
		case "max":
			details[field] = field + "_too_long"
		default:
			details[field] = field + "_invalid"
		}
	}
	return code, details
}

type passwordComplexity struct {
	hasUpper   bool
	hasNumber  bool
	hasSpecial bool
}

// validateRegisterInput applies the rules binding tags cannot express.
func validateRegisterInput(req RegisterRequest) (string, map[string]string) {
	if req.Name == "" {
		return ErrMissingFields, map[string]string{"name": "name_required"}
	}

	if code := validatePassword(req.Password); code != "" {
		return code, map[string]string{"password": code}
	}

	return "", nil
}

func validatePassword(password string) string {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	complexity := passwordComplexityFlags(password)
	switch {
	case !complexity.hasUpper:
		return ErrPasswordNoUppercase
	case !complexity.hasNumber:
		return ErrPasswordNoNumber
	case !complexity.hasSpecial:
		return ErrPasswordNoSpecialChar
	}
	return ""
}

func passwordComplexityFlags(password string) passwordComplexity {
	var complexity passwordComplexity
	for _, char := range password {
		switch {
		case char >= 'A' && char <= 'Z':
			complexity.hasUpper = true
		case char >= '0' && char <= '9':
			complexity.hasNumber = true
		case (char >= '!' && char <= '/') || (char >= ':' && char <= '@') || (char >= '[' && char <= '`') || (char >= '{' && char <= '~'):
			complexity.hasSpecial = true
		}
	}

	return complexity
}
