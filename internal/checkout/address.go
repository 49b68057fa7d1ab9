package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
)

// ShippingAddress is collected before a payment session is created and is
// echoed back to the backend on verification so the order record carries it.
type ShippingAddress struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,inphone"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required,pincode"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
		return isDigits(strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String()), 10)
	})
	v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return isDigits(fl.Field().String(), 6)
	})
	return v
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateAddress checks every field and reports all failures at once,
// keyed by the json field name.
func ValidateAddress(addr ShippingAddress) error {
	if err := validate.Struct(addr); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping address is incomplete")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "inphone":
		return "must be a 10-digit phone number"
	case "pincode":
		return "must be a 6-digit pincode"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return "is invalid"
}
