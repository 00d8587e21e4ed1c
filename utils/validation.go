package utils

import (
	"fmt"
	netmail "net/mail"
	"regexp"
)

var (
	uppercase   = regexp.MustCompile(`[A-Z]`)
	lowercase   = regexp.MustCompile(`[a-z]`)
	digit       = regexp.MustCompile(`\d`)
	specialChar = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

func ValidateEmail(email string) error {
	_, err := netmail.ParseAddress(email)
	return err
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if !uppercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !lowercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digit.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialChar.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character")
	}
	return nil
}

func SamePassword(password string, confirmedPassword string) bool {
	return password == confirmedPassword
}
