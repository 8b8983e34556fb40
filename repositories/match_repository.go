package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/cup-manager/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchEventInvalid     = errors.New("match event conflict or invalid")
	ErrMatchUserInvalid      = errors.New("match user conflict or invalid")
	ErrMatchSameParticipants = errors.New("match participants must be distinct")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetByIDForUpdate locks the match row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	List(ctx context.Context, eventID *int) ([]*models.Match, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	// ListHistory returns the user's matches left-joined with their results.
	ListHistory(ctx context.Context, userID int, eventID *int, newestFirst bool) ([]*models.MatchHistoryEntry, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchSelect = `
		SELECT m.id, m.event_id, m.stage, m.scheduled_at, m.venue, m.user1_id, m.user2_id, m.created_at,
		       m.user1_screenshot_key, m.user1_tactics_key, m.user2_screenshot_key, m.user2_tactics_key,
		       u1.username, u2.username
		FROM matches m
		JOIN users u1 ON m.user1_id = u1.id
		JOIN users u2 ON m.user2_id = u2.id`

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.EventID, &m.Stage, &m.ScheduledAt, &m.Venue, &m.User1ID, &m.User2ID, &m.CreatedAt,
		&m.User1ScreenshotKey, &m.User1TacticsKey, &m.User2ScreenshotKey, &m.User2TacticsKey,
		&m.User1Username, &m.User2Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(event_id, stage, scheduled_at, venue, user1_id, user2_id,
			 user1_screenshot_key, user1_tactics_key, user2_screenshot_key, user2_tactics_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.EventID,
		match.Stage,
		match.ScheduledAt,
		match.Venue,
		match.User1ID,
		match.User2ID,
		match.User1ScreenshotKey,
		match.User1TacticsKey,
		match.User2ScreenshotKey,
		match.User2TacticsKey,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := r.scanMatch(r.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = $1`, id))
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, err
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	match, err := r.scanMatch(r.getExecutor(exec).QueryRowContext(ctx, matchSelect+` WHERE m.id = $1 FOR UPDATE OF m`, id))
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return match, err
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, eventID *int) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(matchSelect)

	var args []interface{}
	if eventID != nil {
		queryBuilder.WriteString(" WHERE m.event_id = $1")
		args = append(args, *eventID)
	}
	queryBuilder.WriteString(" ORDER BY m.scheduled_at ASC NULLS LAST, m.id ASC")

	return r.queryMatches(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByUser(ctx context.Context, userID int) ([]*models.Match, error) {
	return r.queryMatches(ctx, matchSelect+` WHERE m.user1_id = $1 OR m.user2_id = $1 ORDER BY m.id ASC`, userID)
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET event_id = $1, stage = $2, scheduled_at = $3, venue = $4, user1_id = $5, user2_id = $6,
		    user1_screenshot_key = $7, user1_tactics_key = $8, user2_screenshot_key = $9, user2_tactics_key = $10
		WHERE id = $11`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.EventID,
		match.Stage,
		match.ScheduledAt,
		match.Venue,
		match.User1ID,
		match.User2ID,
		match.User1ScreenshotKey,
		match.User1TacticsKey,
		match.User2ScreenshotKey,
		match.User2TacticsKey,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListHistory(ctx context.Context, userID int, eventID *int, newestFirst bool) ([]*models.MatchHistoryEntry, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT m.id, m.event_id, e.name, m.stage, m.scheduled_at, m.venue,
		       m.user1_id, u1.username, m.user2_id, u2.username,
		       r.id, r.user1_score, r.user2_score, r.winner_user_id
		FROM matches m
		JOIN events e ON m.event_id = e.id
		JOIN users u1 ON m.user1_id = u1.id
		JOIN users u2 ON m.user2_id = u2.id
		LEFT JOIN results r ON m.id = r.match_id
		WHERE (m.user1_id = $1 OR m.user2_id = $1)`)

	args := []interface{}{userID}
	if eventID != nil {
		queryBuilder.WriteString(" AND m.event_id = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *eventID)
	}

	if newestFirst {
		queryBuilder.WriteString(" ORDER BY m.scheduled_at DESC NULLS LAST, m.id DESC")
	} else {
		queryBuilder.WriteString(" ORDER BY m.scheduled_at ASC NULLS LAST, m.id ASC")
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]*models.MatchHistoryEntry, 0)
	for rows.Next() {
		var e models.MatchHistoryEntry
		var resultID sql.NullInt64
		if scanErr := rows.Scan(
			&e.MatchID, &e.EventID, &e.EventName, &e.Stage, &e.ScheduledAt, &e.Venue,
			&e.User1ID, &e.User1Username, &e.User2ID, &e.User2Username,
			&resultID, &e.User1Score, &e.User2Score, &e.WinnerUserID,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match history row: %w", scanErr)
		}
		e.HasResult = resultID.Valid
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match history rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Constraint {
		case "matches_event_id_fkey":
			return ErrMatchEventInvalid
		case "matches_user1_id_fkey", "matches_user2_id_fkey":
			return ErrMatchUserInvalid
		case "matches_distinct_users_check":
			return ErrMatchSameParticipants
		}
	}
	return err
}
