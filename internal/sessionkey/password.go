package sessionkey

import (
	"fmt"
	"unicode"
)

// minPasswordLength defines the minimum number of characters required for a
// session key password.
const minPasswordLength = 8

// CheckPassword enforces the password policy: at least minPasswordLength
// characters including one uppercase letter, one lowercase letter and one
// digit. Pure function; returns pass/fail plus a human-readable message.
func CheckPassword(password string) (bool, string) {
	if len(password) < minPasswordLength {
		return false, fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	switch {
	case !hasUpper:
		return false, "password must include an uppercase letter"
	case !hasLower:
		return false, "password must include a lowercase letter"
	case !hasDigit:
		return false, "password must include a digit"
	}
	return true, "password ok"
}
