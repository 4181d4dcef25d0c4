package domain

import "time"

// Account is a department API account as stored by the development API.
type Account struct {
	ID                 string
	FullName           string
	Email              string
	PasswordHash       string
	Role               Role
	Phone              string
	RegistrationNumber string
	Session            string
	Designation        string
	Department         string
	Approved           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
