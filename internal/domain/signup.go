package domain

import (
	"net/mail"
	"strings"
)

// StudentSignup is the body of POST /student/signup.
type StudentSignup struct {
	FullName           string `json:"full_name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	RegistrationNumber string `json:"registration_number"`
	Session            string `json:"session"`
	Phone              string `json:"phone,omitempty"`
}

// FacultySignup is the body of POST /teacher/signup.
type FacultySignup struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Designation string `json:"designation"`
	Department  string `json:"department,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// AdminSignup is the body of POST /admin/signup.
type AdminSignup struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Validate returns the names of missing or malformed fields.
func (s StudentSignup) Validate() map[string]string {
	problems := validateCredentials(s.FullName, s.Email, s.Password)
	if strings.TrimSpace(s.RegistrationNumber) == "" {
		problems["registration_number"] = "required"
	}
	if strings.TrimSpace(s.Session) == "" {
		problems["session"] = "required"
	}
	return problems
}

// Validate returns the names of missing or malformed fields.
func (s FacultySignup) Validate() map[string]string {
	problems := validateCredentials(s.FullName, s.Email, s.Password)
	if strings.TrimSpace(s.Designation) == "" {
		problems["designation"] = "required"
	}
	return problems
}

// Validate returns the names of missing or malformed fields.
func (s AdminSignup) Validate() map[string]string {
	return validateCredentials(s.FullName, s.Email, s.Password)
}

func validateCredentials(name, email, password string) map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(name) == "" {
		problems["full_name"] = "required"
	}
	if strings.TrimSpace(email) == "" {
		problems["email"] = "required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		problems["email"] = "invalid"
	}
	if password == "" {
		problems["password"] = "required"
	} else if len(password) < 6 {
		problems["password"] = "too short"
	}
	return problems
}
