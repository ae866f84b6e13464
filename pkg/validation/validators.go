package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	EmailMinLength   = 5
	EmailMaxLength   = 50
	PhoneMaxLength   = 50
	RemarksMaxLength = 255
)

var (
	ErrEmailLength   = errors.New("email must be between 5 and 50 characters")
	ErrEmailFormat   = errors.New("email format is invalid")
	ErrPhoneLength   = errors.New("phone must be at most 50 characters")
	ErrRemarksLength = errors.New("remarks must be at most 255 characters")
)

// local-part@domain.tld, TLD of at least two letters
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// New returns a validator with the custom tags registered and json field names
// reported in errors.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("beta_email", BetaEmail)
}

// CheckEmail reports ErrEmailLength before ErrEmailFormat: the length rule
// wins regardless of content. Length is counted in characters.
func CheckEmail(email string) error {
	n := utf8.RuneCountInString(email)
	if n < EmailMinLength || n > EmailMaxLength {
		return ErrEmailLength
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailFormat
	}
	return nil
}

// CheckPhone accepts an empty phone.
func CheckPhone(phone string) error {
	if utf8.RuneCountInString(phone) > PhoneMaxLength {
		return ErrPhoneLength
	}
	return nil
}

// CheckRemarks accepts empty remarks.
func CheckRemarks(remarks string) error {
	if utf8.RuneCountInString(remarks) > RemarksMaxLength {
		return ErrRemarksLength
	}
	return nil
}

// BetaEmail is the validator.Func behind the beta_email tag.
func BetaEmail(fl validator.FieldLevel) bool {
	return CheckEmail(fl.Field().String()) == nil
}
