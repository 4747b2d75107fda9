package domain

import (
	"fmt"
	"strings"
)

// Credentials is the session credential returned by authentication.
type Credentials struct {
	Token  string `json:"token"`
	Module int    `json:"module"`
}

// Login holds the student login form fields.
type Login struct {
	StudentID string
	Password  string
}

// Validate applies the login form rules.
func (l Login) Validate() error {
	if len(strings.TrimSpace(l.StudentID)) < 2 {
		return fmt.Errorf("%w: student id must be at least 2 characters", ErrInvalidLogin)
	}
	if len(l.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidLogin)
	}
	return nil
}

// Email returns the institutional address for the student id.
func (l Login) Email() string {
	id := strings.TrimSpace(l.StudentID)
	if strings.Contains(id, "@") {
		return id
	}
	return id + StudentDomain
}
