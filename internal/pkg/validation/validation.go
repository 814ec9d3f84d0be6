// internal/pkg/validation/validation.go
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

// RequiredMessage is reported when any required field is blank.
const RequiredMessage = "Please fill all required fields"

var (
	once     sync.Once
	validate *validator.Validate

	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(tagName)
		must(validate.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
			return expiryPattern.MatchString(fl.Field().String())
		}))
	})
	return validate
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("validation: %v", err))
	}
}

// FieldError is one failed field, keyed by its form name.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Struct validates v and converts failures into a validation error whose
// details list the offending fields. Blank required fields produce the
// generic required-fields message.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid input")
	}

	fields := make([]FieldError, 0, len(verrs))
	message := ""
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		if fe.Tag() == "required" {
			message = RequiredMessage
		} else if message == "" {
			message = describe(fe)
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(fields)
}

func describe(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "email":
		return "Please enter a valid email address"
	case "card_expiry":
		return "Expiry must be in MM/YY format"
	default:
		return fmt.Sprintf("Invalid %s", name)
	}
}

// tagName reports a field by its form tag so errors match request names.
func tagName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
