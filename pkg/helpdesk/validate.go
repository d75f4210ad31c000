package helpdesk

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned when a form fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError lists the fields that failed validation together with the
// message shown to the user.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("faqcategory", func(fl validator.FieldLevel) bool {
		c := fl.Field().String()
		return c != domain.CategoryAll && slices.Contains(Categories, c)
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// check runs v against s and folds every failure into a single ValidationError
// carrying msg.
func check(v *validator.Validate, s any, msg string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Message: msg, Fields: fields}
}
