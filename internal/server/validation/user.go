package validation

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/incidentportal/internal/common"
)

// RegisterInput is the registration payload after normalisation.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Name     string `json:"name" validate:"required,max=50"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// max= counts runes; bcrypt limits bytes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

const MsgPasswordTooLong = "Password cannot exceed 72 bytes"

// field.tag -> client message
var userMessages = map[string]string{
	"Email.required":    "Email is required",
	"Email.email":       "Please enter a valid email",
	"Password.required": "Password is required",
	"Password.min":      "Password must be at least 6 characters",
	"Password.maxbytes": MsgPasswordTooLong,
	"Name.required":     "Name is required",
	"Name.max":          "Name cannot exceed 50 characters",
}

func ValidateRegister(in RegisterInput) error {
	return structError(validate.Struct(in))
}

func ValidateLogin(in LoginInput) error {
	return structError(validate.Struct(in))
}

// structError turns the first validator failure into a validation error.
func structError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return common.NewValidationError("Invalid request")
	}

	fe := verrs[0]
	if msg, ok := userMessages[fe.Field()+"."+fe.Tag()]; ok {
		return common.NewValidationError(msg)
	}
	return common.NewValidationError(fe.Field() + " is invalid")
}
