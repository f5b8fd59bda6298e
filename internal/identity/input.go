package identity

import (
	"strings"

	"eatlog/internal/model"
)

const minPasswordLength = 6

// SignUpInput holds parameters for creating an account.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Validate validates the sign-up input.
func (i SignUpInput) Validate() error {
	var errs []model.FieldError
	errs = append(errs, validateEmail(i.Email)...)
	errs = append(errs, validatePassword("password", i.Password)...)
	if len(i.DisplayName) > 100 {
		errs = append(errs, model.FieldError{Field: "display_name", Message: "too long"})
	}
	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

// SignInInput holds parameters for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// Validate validates the sign-in input.
func (i SignInInput) Validate() error {
	var errs []model.FieldError
	if i.Email == "" {
		errs = append(errs, model.FieldError{Field: "email", Message: "required"})
	}
	if i.Password == "" {
		errs = append(errs, model.FieldError{Field: "password", Message: "required"})
	}
	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

// ResetPasswordInput exchanges a reset token for a new password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// Validate validates the reset input.
func (i ResetPasswordInput) Validate() error {
	var errs []model.FieldError
	if i.Token == "" {
		errs = append(errs, model.FieldError{Field: "token", Message: "required"})
	} else if len(i.Token) > 512 {
		errs = append(errs, model.FieldError{Field: "token", Message: "too long"})
	}
	errs = append(errs, validatePassword("new_password", i.NewPassword)...)
	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

// UpdatePasswordInput changes the password of a signed-in user.
type UpdatePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// Validate validates the update input.
func (i UpdatePasswordInput) Validate() error {
	var errs []model.FieldError
	if i.CurrentPassword == "" {
		errs = append(errs, model.FieldError{Field: "current_password", Message: "required"})
	}
	errs = append(errs, validatePassword("new_password", i.NewPassword)...)
	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

func validateEmail(email string) []model.FieldError {
	switch {
	case email == "":
		return []model.FieldError{{Field: "email", Message: "required"}}
	case len(email) > 254:
		return []model.FieldError{{Field: "email", Message: "too long"}}
	case !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		return []model.FieldError{{Field: "email", Message: "invalid format"}}
	}
	return nil
}

func validatePassword(field, password string) []model.FieldError {
	switch {
	case password == "":
		return []model.FieldError{{Field: field, Message: "required"}}
	case len(password) < minPasswordLength:
		return []model.FieldError{{Field: field, Message: "too short"}}
	case len(password) > 72:
		return []model.FieldError{{Field: field, Message: "too long"}}
	}
	return nil
}
