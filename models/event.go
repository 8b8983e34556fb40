package models

import "time"

// EventMode определяет формат проведения события.
type EventMode string

const (
	EventModeKnockout EventMode = "knockout"
	EventModeLeague   EventMode = "league"
)

func (m EventMode) Valid() bool {
	return m == EventModeKnockout || m == EventModeLeague
}

type Event struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	StartDate   *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	Mode        EventMode  `json:"mode" db:"mode"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

func (e *Event) IsLeague() bool {
	return e != nil && e.Mode == EventModeLeague
}

type EventRegistration struct {
	UserID           int       `json:"user_id" db:"user_id"`
	EventID          int       `json:"event_id" db:"event_id"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
}
