package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/cup-manager/models"
)

var (
	ErrStandingParticipantInvalid = errors.New("standing user conflict or invalid")
	ErrStandingEventInvalid       = errors.New("standing event conflict or invalid")
	ErrStandingNegativeCounter    = errors.New("standing counters must not be negative")
)

// StandingView is a standing row joined with the participant's username.
type StandingView struct {
	models.LeagueStanding
	Username string
}

type LeagueStandingRepository interface {
	// Upsert inserts the (user, event) row with delta as initial values and
	// games_played = 1, or atomically increments an existing row by delta.
	Upsert(ctx context.Context, exec SQLExecutor, eventID, userID int, delta models.StandingDelta) error
	// ListByEvent returns rows ordered by user_id, the stable base order for ranking.
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*StandingView, error)
}

type postgresLeagueStandingRepository struct {
	db *sql.DB // Main DB connection, used if exec is nil
}

func NewPostgresLeagueStandingRepository(db *sql.DB) LeagueStandingRepository {
	return &postgresLeagueStandingRepository{db: db}
}

func (r *postgresLeagueStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const upsertStandingQuery = `
		INSERT INTO league_standings
		    (user_id, event_id, points, wins, draws, losses, goals_scored, goals_against, games_played, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, NOW())
		ON CONFLICT (user_id, event_id) DO UPDATE SET
		    points        = league_standings.points + EXCLUDED.points,
		    wins          = league_standings.wins + EXCLUDED.wins,
		    draws         = league_standings.draws + EXCLUDED.draws,
		    losses        = league_standings.losses + EXCLUDED.losses,
		    goals_scored  = league_standings.goals_scored + EXCLUDED.goals_scored,
		    goals_against = league_standings.goals_against + EXCLUDED.goals_against,
		    games_played  = league_standings.games_played + 1,
		    updated_at    = NOW()`

func (r *postgresLeagueStandingRepository) Upsert(ctx context.Context, exec SQLExecutor, eventID, userID int, delta models.StandingDelta) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, upsertStandingQuery,
		userID, eventID,
		delta.Points, delta.Wins, delta.Draws, delta.Losses,
		delta.GoalsScored, delta.GoalsAgainst,
	)
	if err != nil {
		return r.handleStandingError(err)
	}
	return nil
}

func (r *postgresLeagueStandingRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*StandingView, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ls.id, ls.user_id, ls.event_id, ls.points, ls.wins, ls.draws, ls.losses,
		       ls.goals_scored, ls.goals_against, ls.games_played, ls.updated_at, u.username
		FROM league_standings ls
		JOIN users u ON ls.user_id = u.id
		WHERE ls.event_id = $1
		ORDER BY ls.user_id ASC`

	rows, err := executor.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for event %d: %w", eventID, err)
	}
	defer rows.Close()

	standings := make([]*StandingView, 0)
	for rows.Next() {
		var v StandingView
		if scanErr := rows.Scan(
			&v.ID, &v.UserID, &v.EventID, &v.Points, &v.Wins, &v.Draws, &v.Losses,
			&v.GoalsScored, &v.GoalsAgainst, &v.GamesPlayed, &v.UpdatedAt, &v.Username,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, &v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresLeagueStandingRepository) handleStandingError(err error) error {
	pqErr, ok := asPQError(err)
	if !ok {
		return err
	}
	switch pqErr.Constraint {
	case "league_standings_user_id_fkey":
		return ErrStandingParticipantInvalid
	case "league_standings_event_id_fkey":
		return ErrStandingEventInvalid
	case "league_standings_counters_check":
		return ErrStandingNegativeCounter
	}
	return err
}
