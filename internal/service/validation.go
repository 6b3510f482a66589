package service

import (
	"net/mail"
	"regexp"
	"time"
	"unicode/utf8"
)

const (
	maxEmailLen       = 254
	maxUsernameLen    = 16
	minPasswordLen    = 8
	maxPasswordLen    = 128
	maxProfileTextLen = 64
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func validateEmail(email string) error {
	if email == "" {
		return validationError("email is required")
	}
	if len(email) > maxEmailLen {
		return validationError("email must be at most %d characters", maxEmailLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("invalid email")
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen || !usernameRe.MatchString(username) {
		return validationError("username must be 1 to %d letters, digits or ._-", maxUsernameLen)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return validationError("password must be %d to %d characters", minPasswordLen, maxPasswordLen)
	}
	return nil
}

func validateProfile(in RegisterInput) error {
	if utf8.RuneCountInString(in.Name) > maxProfileTextLen || utf8.RuneCountInString(in.City) > maxProfileTextLen {
		return validationError("name and city must be at most %d characters", maxProfileTextLen)
	}
	if in.Birthdate != "" {
		if _, err := time.Parse(time.DateOnly, in.Birthdate); err != nil {
			return validationError("birthdate must be YYYY-MM-DD")
		}
	}
	if len(in.PreferredLanguage) > 10 {
		return validationError("preferred_language must be at most 10 characters")
	}
	return nil
}
