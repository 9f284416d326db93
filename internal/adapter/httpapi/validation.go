package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// phoneNumber accepts a JSON string or a JSON number.
type phoneNumber string

func (p *phoneNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = phoneNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = phoneNumber(n.String())
	return nil
}

type addressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type registerRequest struct {
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"min=8"`
	Phone    phoneNumber     `json:"phone" validate:"required,number,len=10"`
	Address  *addressRequest `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// fieldMessages maps "Field.tag" (or "Field" as fallback) to the client-facing message.
var fieldMessages = map[string]string{
	"Name":                    "Name is required.",
	"Email":                   "Invalid email format.",
	"Password.min":            "Password must be at least 8 characters long.",
	"Password.required":       "Password is required.",
	"Phone.required":          "Invalid phone number format.",
	"Phone.number":            "Invalid phone number format.",
	"Phone.len":               "Phone number must be 10 digits.",
	"ConfirmPassword.eqfield": "Passwords do not match.",
}

const msgEmailTaken = "User with this email already exists."

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := fieldMessages[fe.StructField()]; ok {
		return msg
	}
	return "Invalid value for " + fe.Field() + "."
}

// fieldErrors runs the struct tags on req. At most one error is reported per field.
func fieldErrors(req any) validator.ValidationErrors {
	var verrs validator.ValidationErrors
	if err := validate.Struct(req); err != nil && errors.As(err, &verrs) {
		return verrs
	}
	return nil
}

// validationMessages returns one message per failing field, in declaration order.
func validationMessages(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, messageFor(fe))
	}
	return msgs
}

func failed(verrs validator.ValidationErrors, field string) bool {
	for _, fe := range verrs {
		if fe.StructField() == field {
			return true
		}
	}
	return false
}

func (r *registerRequest) sanitize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = phoneNumber(strings.TrimSpace(string(r.Phone)))
}

func (r *registerRequest) address() *entity.Address {
	if r.Address == nil {
		return nil
	}
	return &entity.Address{
		Street:     strings.TrimSpace(r.Address.Street),
		City:       strings.TrimSpace(r.Address.City),
		PostalCode: strings.TrimSpace(r.Address.PostalCode),
	}
}
