package models

import "time"

// MatchFileType — тип изображения, прикрепляемого участником к матчу.
type MatchFileType string

const (
	MatchFileScreenshot MatchFileType = "screenshot"
	MatchFileTactics    MatchFileType = "tactics"
)

func (t MatchFileType) Valid() bool {
	return t == MatchFileScreenshot || t == MatchFileTactics
}

type Match struct {
	ID          int        `json:"id" db:"id"`
	EventID     int        `json:"event_id" db:"event_id"`
	Stage       *string    `json:"stage,omitempty" db:"stage"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	Venue       *string    `json:"venue,omitempty" db:"venue"`
	User1ID     int        `json:"user1_id" db:"user1_id"`
	User2ID     int        `json:"user2_id" db:"user2_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	User1Username string `json:"user1_username,omitempty" db:"-"`
	User2Username string `json:"user2_username,omitempty" db:"-"`

	User1ScreenshotKey *string `json:"-" db:"user1_screenshot_key"`
	User1TacticsKey    *string `json:"-" db:"user1_tactics_key"`
	User2ScreenshotKey *string `json:"-" db:"user2_screenshot_key"`
	User2TacticsKey    *string `json:"-" db:"user2_tactics_key"`

	User1ScreenshotURL *string `json:"user1_screenshot_url,omitempty" db:"-"`
	User1TacticsURL    *string `json:"user1_tactics_url,omitempty" db:"-"`
	User2ScreenshotURL *string `json:"user2_screenshot_url,omitempty" db:"-"`
	User2TacticsURL    *string `json:"user2_tactics_url,omitempty" db:"-"`
}

func (m *Match) HasParticipant(userID int) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// FileKeySlot returns the key column for the given participant and file type,
// or nil when userID does not play in the match.
func (m *Match) FileKeySlot(userID int, fileType MatchFileType) **string {
	switch {
	case userID == m.User1ID && fileType == MatchFileScreenshot:
		return &m.User1ScreenshotKey
	case userID == m.User1ID && fileType == MatchFileTactics:
		return &m.User1TacticsKey
	case userID == m.User2ID && fileType == MatchFileScreenshot:
		return &m.User2ScreenshotKey
	case userID == m.User2ID && fileType == MatchFileTactics:
		return &m.User2TacticsKey
	}
	return nil
}

// FileKeys returns all stored file keys of the match, optionally only
// those belonging to one participant (userID > 0).
func (m *Match) FileKeys(userID int) []string {
	var keys []string
	add := func(owner int, k *string) {
		if k != nil && *k != "" && (userID <= 0 || owner == userID) {
			keys = append(keys, *k)
		}
	}
	add(m.User1ID, m.User1ScreenshotKey)
	add(m.User1ID, m.User1TacticsKey)
	add(m.User2ID, m.User2ScreenshotKey)
	add(m.User2ID, m.User2TacticsKey)
	return keys
}

type Result struct {
	ID           int       `json:"id" db:"id"`
	MatchID      int       `json:"match_id" db:"match_id"`
	User1Score   *int      `json:"user1_score" db:"user1_score"`
	User2Score   *int      `json:"user2_score" db:"user2_score"`
	WinnerUserID *int      `json:"winner_user_id" db:"winner_user_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MatchHistoryEntry — матч пользователя вместе с результатом (если он есть).
type MatchHistoryEntry struct {
	MatchID       int        `json:"match_id"`
	EventID       int        `json:"event_id"`
	EventName     string     `json:"event_name"`
	Stage         *string    `json:"stage,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Venue         *string    `json:"venue,omitempty"`
	User1ID       int        `json:"user1_id"`
	User1Username string     `json:"user1_username"`
	User2ID       int        `json:"user2_id"`
	User2Username string     `json:"user2_username"`
	User1Score    *int       `json:"user1_score"`
	User2Score    *int       `json:"user2_score"`
	WinnerUserID  *int       `json:"winner_user_id"`
	HasResult     bool       `json:"-"`
}

// KnockoutProgressEntry — матч плей-офф с признаком победы запрошенного пользователя.
// UserIsWinner is nil while no winner is recorded.
type KnockoutProgressEntry struct {
	MatchHistoryEntry
	UserIsWinner *bool `json:"user_is_winner"`
}
