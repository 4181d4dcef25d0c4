package dto

import (
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/navigation"
)

// ManagedUserRequest payload for admin-created accounts.
type ManagedUserRequest struct {
	FullName           string `json:"full_name" form:"full_name"`
	Email              string `json:"email" form:"email"`
	Password           string `json:"password" form:"password"`
	Department         string `json:"department" form:"department"`
	Phone              string `json:"phone" form:"phone"`
	RegistrationNumber string `json:"registration_number" form:"registration_number"`
	Session            string `json:"session" form:"session"`
	Designation        string `json:"designation" form:"designation"`
}

// ToDomain converts the request.
func (r ManagedUserRequest) ToDomain() domain.ManagedUser {
	return domain.ManagedUser{
		FullName:           r.FullName,
		Email:              r.Email,
		Password:           r.Password,
		Department:         r.Department,
		Phone:              r.Phone,
		RegistrationNumber: r.RegistrationNumber,
		Session:            r.Session,
		Designation:        r.Designation,
	}
}

// DashboardResponse is the shell rendered around every dashboard page.
type DashboardResponse struct {
	Title    string            `json:"title"`
	Role     domain.Role       `json:"role"`
	Links    []navigation.Link `json:"links"`
	Identity domain.Identity   `json:"identity"`
}
