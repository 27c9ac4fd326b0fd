package auth

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	fieldUsername = "username"
	fieldFullname = "fullname"
	fieldEmail    = "email"
	fieldPassword = "password"
)

// fieldOrder decides which message summarises a failed signup.
var fieldOrder = []string{fieldUsername, fieldFullname, fieldEmail, fieldPassword}

var (
	usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRegexp    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterRegexp   = regexp.MustCompile(`[A-Za-z]`)
	digitRegexp    = regexp.MustCompile(`[0-9]`)
)

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

// First returns the message of the first failing field, or "" if none failed.
func (v ValidationErrors) First() string {
	for _, f := range fieldOrder {
		if msg, ok := v[f]; ok {
			return msg
		}
	}
	return ""
}

type SignupRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateRequest only carries the fields the client sent. A field sent as
// null is present and empty.
type UpdateRequest struct {
	Username *string `json:"username"`
	Fullname *string `json:"fullname"`
	Email    *string `json:"email"`
}

func (r *UpdateRequest) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	fields := map[string]**string{
		fieldUsername: &r.Username,
		fieldFullname: &r.Fullname,
		fieldEmail:    &r.Email,
	}
	for name, dst := range fields {
		v, present := raw[name]
		if !present {
			continue
		}
		var s string
		if string(v) != "null" {
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		*dst = &s
	}
	return nil
}

// ValidateSignup checks every signup field independently.
func ValidateSignup(r SignupRequest) ValidationErrors {
	errs := ValidationErrors{}
	setIf(errs, fieldUsername, validateUsername(r.Username))
	setIf(errs, fieldFullname, validateFullname(r.Fullname))
	setIf(errs, fieldEmail, validateEmail(r.Email))
	setIf(errs, fieldPassword, validatePassword(r.Password))
	return errs
}

// ValidateUpdate checks only the fields present in r.
func ValidateUpdate(r UpdateRequest) ValidationErrors {
	errs := ValidationErrors{}
	if r.Username != nil {
		setIf(errs, fieldUsername, validateUsername(*r.Username))
	}
	if r.Fullname != nil {
		setIf(errs, fieldFullname, validateFullname(*r.Fullname))
	}
	if r.Email != nil {
		setIf(errs, fieldEmail, validateEmail(*r.Email))
	}
	return errs
}

// NormalizeEmail returns the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func setIf(errs ValidationErrors, field, msg string) {
	if msg != "" {
		errs[field] = msg
	}
}

func validateUsername(username string) string {
	switch {
	case strings.TrimSpace(username) == "":
		return "Username is required"
	case len(username) < 3:
		return "Username must be at least 3 characters"
	case !usernameRegexp.MatchString(username):
		return "Username can only contain letters, numbers, and underscores"
	}
	return ""
}

func validateFullname(fullname string) string {
	f := strings.TrimSpace(fullname)
	switch {
	case f == "":
		return "Full name is required"
	case len([]rune(f)) < 2:
		return "Full name must be at least 2 characters"
	}
	return ""
}

func validateEmail(email string) string {
	e := strings.TrimSpace(email)
	switch {
	case e == "":
		return "Email is required"
	case !emailRegexp.MatchString(e):
		return "Please enter a valid email address"
	}
	return ""
}

func validatePassword(password string) string {
	switch {
	case password == "":
		return "Password is required"
	case len(password) < 6:
		return "Password must be at least 6 characters"
	case !letterRegexp.MatchString(password) || !digitRegexp.MatchString(password):
		return "Password must contain at least one letter and one number"
	}
	return ""
}
