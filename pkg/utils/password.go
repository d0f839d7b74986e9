package utils

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var pinPattern = regexp.MustCompile(`^\d{6,8}$`)

// HashPassword generates a bcrypt hash from a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// ComparePassword compares a bcrypt hashed password with plain text password
func ComparePassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidPIN reports whether pin is 6 to 8 digits
func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}
