package models

import "time"

type LeagueStanding struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"`
	EventID      int       `json:"event_id" db:"event_id"`
	Points       int       `json:"points" db:"points"`
	Wins         int       `json:"wins" db:"wins"`
	Draws        int       `json:"draws" db:"draws"`
	Losses       int       `json:"losses" db:"losses"`
	GoalsScored  int       `json:"goals_scored" db:"goals_scored"`
	GoalsAgainst int       `json:"goals_against" db:"goals_against"`
	GamesPlayed  int       `json:"games_played" db:"games_played"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// StandingDelta is the increment applied to one participant's standing
// for a single recorded result.
type StandingDelta struct {
	Points       int
	Wins         int
	Draws        int
	Losses       int
	GoalsScored  int
	GoalsAgainst int
}

// StandingRow — строка турнирной таблицы лиги.
type StandingRow struct {
	Position       int    `json:"position"`
	UserID         int    `json:"user_id"`
	Username       string `json:"username"`
	Points         int    `json:"points"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsScored    int    `json:"goals_scored"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	GamesPlayed    int    `json:"games_played"`
}
