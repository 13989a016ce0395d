package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidCredentials indicates the identity collaborator found no matching
// user, or a write was attributed to no session.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidRatingValue indicates a rating outside the allowed 1..5 range.
var ErrInvalidRatingValue = errors.New("rating must be an integer between 1 and 5")

const (
	minNameLen    = 20
	maxNameLen    = 60
	maxAddressLen = 400
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError tags a validation failure with the field it belongs to.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failed field so callers can surface all
// messages at once rather than just the first.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateStoreName enforces the 20-60 character store name rule.
func ValidateStoreName(name string) *FieldError {
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return &FieldError{Field: "name", Message: "store name must be between 20 and 60 characters"}
	}
	return nil
}

// ValidateUserName enforces the 20-60 character user name rule.
func ValidateUserName(name string) *FieldError {
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return &FieldError{Field: "name", Message: "name must be between 20 and 60 characters"}
	}
	return nil
}

// ValidateEmail checks the conventional local@domain.tld shape.
func ValidateEmail(email string) *FieldError {
	if !emailPattern.MatchString(email) {
		return &FieldError{Field: "email", Message: "must be a valid email address"}
	}
	return nil
}

// ValidateAddress caps addresses at 400 characters.
func ValidateAddress(address string) *FieldError {
	if utf8.RuneCountInString(address) > maxAddressLen {
		return &FieldError{Field: "address", Message: "address must not exceed 400 characters"}
	}
	return nil
}

// ValidatePassword enforces 8-16 characters with at least one uppercase letter
// and one special character.
func ValidatePassword(password string) *FieldError {
	n := utf8.RuneCountInString(password)
	hasUpper := false
	hasSpecial := false
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if n < 8 || n > 16 || !hasUpper || !hasSpecial {
		return &FieldError{
			Field:   "password",
			Message: "password must be 8-16 characters with at least one uppercase letter and one special character",
		}
	}
	return nil
}

// ValidateStars checks the allowed star range for a rating.
func ValidateStars(stars int) error {
	if stars < 1 || stars > 5 {
		return ErrInvalidRatingValue
	}
	return nil
}
