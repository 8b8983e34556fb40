package models

import "time"

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleOrganizer UserRole = "organizer"
)

func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleOrganizer
}

type User struct {
	ID               int       `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	Email            *string   `json:"email,omitempty" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	Role             UserRole  `json:"role" db:"role"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
}

// Participant — краткое представление зарегистрированного пользователя.
type Participant struct {
	ID       int    `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
}
