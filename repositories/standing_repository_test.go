package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/cup-manager/models"
)

func TestUpsertStandingPassesDeltaAndStartsGamesAtOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresLeagueStandingRepository(db)
	delta := models.StandingDelta{Points: 3, Wins: 1, GoalsScored: 2, GoalsAgainst: 1}

	mock.ExpectExec(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, NOW())`)).
		WithArgs(7, 11, 3, 1, 0, 0, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), nil, 11, 7, delta))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStandingUsesGivenExecutor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id, event_id) DO UPDATE`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	repo := NewPostgresLeagueStandingRepository(db)
	require.NoError(t, repo.Upsert(context.Background(), tx, 1, 2, models.StandingDelta{Draws: 1, Points: 1}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStandingMapsConstraintErrors(t *testing.T) {
	cases := map[string]error{
		"league_standings_user_id_fkey":   ErrStandingParticipantInvalid,
		"league_standings_event_id_fkey":  ErrStandingEventInvalid,
		"league_standings_counters_check": ErrStandingNegativeCounter,
	}
	for constraint, want := range cases {
		t.Run(constraint, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("INSERT INTO league_standings").
				WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: constraint})

			err = NewPostgresLeagueStandingRepository(db).Upsert(context.Background(), nil, 1, 1, models.StandingDelta{})
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestListStandingsByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "event_id", "points", "wins", "draws", "losses",
		"goals_scored", "goals_against", "games_played", "updated_at", "username",
	}).
		AddRow(1, 1, 5, 4, 1, 1, 0, 3, 1, 2, now, "alice").
		AddRow(2, 2, 5, 1, 0, 1, 1, 2, 3, 2, now, "bob")

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY ls.user_id ASC`)).WithArgs(5).WillReturnRows(rows)

	standings, err := NewPostgresLeagueStandingRepository(db).ListByEvent(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "alice", standings[0].Username)
	assert.Equal(t, 4, standings[0].Points)
	assert.Equal(t, 2, standings[1].GamesPlayed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStandingsByEventQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM league_standings").WillReturnError(boom)

	_, err = NewPostgresLeagueStandingRepository(db).ListByEvent(context.Background(), nil, 5)
	assert.ErrorIs(t, err, boom)
}
