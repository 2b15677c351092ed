package user

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Address      Address   `json:"address"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^0\d{9}$`)
	// Minimum 8 characters with at least one lowercase, one uppercase,
	// one digit and one special character.
	passwordLowerRe   = regexp.MustCompile(`[a-z]`)
	passwordUpperRe   = regexp.MustCompile(`[A-Z]`)
	passwordDigitRe   = regexp.MustCompile(`\d`)
	passwordSpecialRe = regexp.MustCompile(`[@$!%*?&]`)
)

// ValidateNew checks the fields of a signup request before anything is stored.
func ValidateNew(name, email, password, role, phone string) error {
	if name == "" {
		return errors.New("name is required")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%q is not a valid email address", email)
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if role != "Customer" && role != "Admin" {
		return fmt.Errorf("invalid user type %q", role)
	}
	if !phoneRe.MatchString(phone) {
		return fmt.Errorf("%q is not a valid 10-digit phone number starting with 0", phone)
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 ||
		!passwordLowerRe.MatchString(password) ||
		!passwordUpperRe.MatchString(password) ||
		!passwordDigitRe.MatchString(password) ||
		!passwordSpecialRe.MatchString(password) {
		return errors.New("password must be at least 8 characters long and include an uppercase letter, a lowercase letter, a number and a special character")
	}
	return nil
}
