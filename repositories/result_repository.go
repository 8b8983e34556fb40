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
	ErrResultNotFound      = errors.New("result not found")
	ErrResultMatchConflict = errors.New("result for this match already exists")
	ErrResultMatchInvalid  = errors.New("result match conflict or invalid")
	ErrResultWinnerInvalid = errors.New("result winner conflict or invalid")
	ErrResultScoreInvalid  = errors.New("result scores must not be negative")
)

// ResultFilter ограничивает выборку результатов; nil-поля не фильтруют.
type ResultFilter struct {
	MatchID *int
	EventID *int
}

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.Result) error
	GetByID(ctx context.Context, id int) (*models.Result, error)
	GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.Result, error)
	List(ctx context.Context, filter ResultFilter) ([]*models.Result, error)
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const resultColumns = `r.id, r.match_id, r.user1_score, r.user2_score, r.winner_user_id, r.created_at`

func (r *postgresResultRepository) scanResult(row rowScanner) (*models.Result, error) {
	var res models.Result
	err := row.Scan(&res.ID, &res.MatchID, &res.User1Score, &res.User2Score, &res.WinnerUserID, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.Result) error {
	query := `
		INSERT INTO results (match_id, user1_score, user2_score, winner_user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		result.MatchID,
		result.User1Score,
		result.User2Score,
		result.WinnerUserID,
	).Scan(&result.ID, &result.CreatedAt)

	return r.handleResultError(err)
}

func (r *postgresResultRepository) GetByID(ctx context.Context, id int) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results r WHERE r.id = $1`
	result, err := r.scanResult(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrResultNotFound) {
		return nil, fmt.Errorf("failed to get result by id %d: %w", id, err)
	}
	return result, err
}

func (r *postgresResultRepository) GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results r WHERE r.match_id = $1`
	result, err := r.scanResult(r.getExecutor(exec).QueryRowContext(ctx, query, matchID))
	if err != nil && !errors.Is(err, ErrResultNotFound) {
		return nil, fmt.Errorf("failed to get result of match %d: %w", matchID, err)
	}
	return result, err
}

func (r *postgresResultRepository) List(ctx context.Context, filter ResultFilter) ([]*models.Result, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + resultColumns + ` FROM results r`)

	var conditions []string
	var args []interface{}
	if filter.EventID != nil {
		queryBuilder.WriteString(` JOIN matches m ON r.match_id = m.id`)
		args = append(args, *filter.EventID)
		conditions = append(conditions, "m.event_id = $"+strconv.Itoa(len(args)))
	}
	if filter.MatchID != nil {
		args = append(args, *filter.MatchID)
		conditions = append(conditions, "r.match_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY r.id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.Result, 0)
	for rows.Next() {
		result, scanErr := r.scanResult(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", scanErr)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result rows iteration: %w", err)
	}
	return results, nil
}

func (r *postgresResultRepository) Update(ctx context.Context, result *models.Result) error {
	query := `
		UPDATE results
		SET user1_score = $1, user2_score = $2, winner_user_id = $3
		WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query,
		result.User1Score,
		result.User2Score,
		result.WinnerUserID,
		result.ID,
	)
	if err != nil {
		return r.handleResultError(err)
	}
	return checkAffectedRows(res, ErrResultNotFound)
}

func (r *postgresResultRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrResultNotFound)
}

func (r *postgresResultRepository) handleResultError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Constraint {
		case "results_match_id_key":
			if pqErr.Code == pqUniqueViolation {
				return ErrResultMatchConflict
			}
		case "results_match_id_fkey":
			return ErrResultMatchInvalid
		case "results_winner_user_id_fkey":
			return ErrResultWinnerInvalid
		case "results_scores_check":
			return ErrResultScoreInvalid
		}
	}
	return err
}
