package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"beta-signup/pkg/i18n"
)

// Message localizes one of the sentinel errors of this package. Unknown
// errors are returned as their own text.
func Message(err error, lang i18n.Language) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailLength):
		return i18n.Sprintf(lang, i18n.KeyEmailLength)
	case errors.Is(err, ErrEmailFormat):
		return i18n.Sprintf(lang, i18n.KeyEmailFormat)
	case errors.Is(err, ErrPhoneLength):
		return i18n.Sprintf(lang, i18n.KeyPhoneLength)
	case errors.Is(err, ErrRemarksLength):
		return i18n.Sprintf(lang, i18n.KeyRemarksLength)
	}
	return err.Error()
}

// Validate is the single-call form used by the form: it returns the localized
// error message for email, or "" when the email is acceptable.
func Validate(email string, lang i18n.Language) string {
	return Message(CheckEmail(email), lang)
}

// FieldErrors converts validator.ValidationErrors into json-field -> localized
// message. Non-validation errors end up under the "_" key.
func FieldErrors(err error, lang i18n.Language) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		out[e.Field()] = formatSingleError(e, lang)
	}
	return out
}

func formatSingleError(e validator.FieldError, lang i18n.Language) string {
	value, _ := e.Value().(string)

	switch e.Field() {
	case "email":
		if err := CheckEmail(value); err != nil {
			return Message(err, lang)
		}
	case "phone":
		return Message(ErrPhoneLength, lang)
	case "remarks":
		return Message(ErrRemarksLength, lang)
	}
	return e.Error()
}
