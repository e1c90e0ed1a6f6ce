package flows

import "regexp"

// minPasswordLength mirrors the backend's password policy; checking it
// locally saves a round trip for obviously short inputs.
const minPasswordLength = 8

// emailPattern accepts conventional addresses: something@something.tld with
// no whitespace. Deliverability is the backend's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the address shape locally, before any network call.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum length locally.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
