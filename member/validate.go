package member

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	// MsgRequired is the marker shown under an empty required field.
	MsgRequired = "this field is required"
	// MsgInvalidEmail is the marker shown under a malformed email.
	MsgInvalidEmail = "must be a valid email address"
)

var errBlank = errors.New(MsgRequired)

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

// ValidateFields runs the required-field check shared by the create form and
// the detail editor. It returns nil or a *ValidationError.
func ValidateFields(f Fields) error {
	required := []validation.Rule{
		validation.Required.Error(MsgRequired),
		validation.By(notBlank),
	}

	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, required...),
		validation.Field(&f.Role, required...),
		validation.Field(&f.Email, append(required, is.EmailFormat.Error(MsgInvalidEmail))...),
		validation.Field(&f.Bio, required...),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for name, ferr := range fieldErrs {
		out.Fields[name] = ferr.Error()
	}
	return out
}
