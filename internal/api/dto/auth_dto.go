package dto

import "github.com/afiatamanna06/csedu-web-sub001/internal/domain"

// LoginRequest payload for the portal login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// StudentSignupRequest payload for student registration.
type StudentSignupRequest struct {
	FullName           string `json:"full_name" form:"full_name"`
	Email              string `json:"email" form:"email"`
	Password           string `json:"password" form:"password"`
	RegistrationNumber string `json:"registration_number" form:"registration_number"`
	Session            string `json:"session" form:"session"`
	Phone              string `json:"phone" form:"phone"`
}

// ToDomain converts the request.
func (r StudentSignupRequest) ToDomain() domain.StudentSignup {
	return domain.StudentSignup{
		FullName:           r.FullName,
		Email:              r.Email,
		Password:           r.Password,
		RegistrationNumber: r.RegistrationNumber,
		Session:            r.Session,
		Phone:              r.Phone,
	}
}

// FacultySignupRequest payload for faculty registration.
type FacultySignupRequest struct {
	FullName    string `json:"full_name" form:"full_name"`
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	Designation string `json:"designation" form:"designation"`
	Department  string `json:"department" form:"department"`
	Phone       string `json:"phone" form:"phone"`
}

// ToDomain converts the request.
func (r FacultySignupRequest) ToDomain() domain.FacultySignup {
	return domain.FacultySignup{
		FullName:    r.FullName,
		Email:       r.Email,
		Password:    r.Password,
		Designation: r.Designation,
		Department:  r.Department,
		Phone:       r.Phone,
	}
}

// AdminSignupRequest payload for admin registration.
type AdminSignupRequest struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Phone    string `json:"phone" form:"phone"`
}

// ToDomain converts the request.
func (r AdminSignupRequest) ToDomain() domain.AdminSignup {
	return domain.AdminSignup{FullName: r.FullName, Email: r.Email, Password: r.Password, Phone: r.Phone}
}

// SessionResponse describes who is signed in for the current browser.
type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Identity      *domain.Identity `json:"identity"`
	Redirect      string           `json:"redirect,omitempty"`
}
