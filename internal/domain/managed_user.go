package domain

import (
	"encoding/json"
	"strings"
)

// ManagedUserKind selects which add-user endpoint an admin targets.
type ManagedUserKind string

const (
	ManagedStudent ManagedUserKind = "student"
	ManagedTeacher ManagedUserKind = "teacher"
)

// ParseManagedUserKind accepts "student", "teacher" or "faculty".
func ParseManagedUserKind(s string) (ManagedUserKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return ManagedStudent, true
	case "teacher", "faculty":
		return ManagedTeacher, true
	}
	return "", false
}

// ManagedUser is the body of POST /admin/add/{student,teacher}. Student-only
// and teacher-only fields are omitted when empty.
type ManagedUser struct {
	FullName           string `json:"full_name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	Department         string `json:"department,omitempty"`
	Phone              string `json:"phone,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Session            string `json:"session,omitempty"`
	Designation        string `json:"designation,omitempty"`
}

// Validate returns the names of missing or malformed fields for kind.
func (u ManagedUser) Validate(kind ManagedUserKind) map[string]string {
	problems := validateCredentials(u.FullName, u.Email, u.Password)
	switch kind {
	case ManagedStudent:
		if strings.TrimSpace(u.RegistrationNumber) == "" {
			problems["registration_number"] = "required"
		}
	case ManagedTeacher:
		if strings.TrimSpace(u.Designation) == "" {
			problems["designation"] = "required"
		}
	}
	return problems
}

// ManagedUserResult is the add-user response.
type ManagedUserResult struct {
	ID      FlexibleID      `json:"id,omitempty"`
	Email   string          `json:"email,omitempty"`
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}
