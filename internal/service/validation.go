package service

import (
	"regexp"
	"strings"

	"voting_rooms/internal/model"
)

const (
	// MinPasswordLength is the shortest password accepted on sign-up
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest password bcrypt can hash
	MaxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateSignUp checks a sign-up request before any store access
func ValidateSignUp(req model.SignUpRequest) error {
	if strings.TrimSpace(req.FirstName) == "" ||
		strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" ||
		req.Password == "" {
		return validationError("firstName, lastName, email, phone and password are required")
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return validationError("email is invalid")
	}
	if len(req.Password) < MinPasswordLength {
		return validationError("password must be at least %d characters", MinPasswordLength)
	}
	if len(req.Password) > MaxPasswordBytes {
		return validationError("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidateSignIn checks a sign-in request before any store access
func ValidateSignIn(req model.SignInRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return validationError("email and password are required")
	}
	return nil
}
