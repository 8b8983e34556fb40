package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/cup-manager/models"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventModeInvalid = errors.New("event mode invalid")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int) error
	HasMatches(ctx context.Context, id int) (bool, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const eventColumns = `id, name, description, start_date, end_date, mode, created_at`

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, description, start_date, end_date, mode)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Mode,
	).Scan(&event.ID, &event.CreatedAt)

	return r.handleEventError(err)
}

func (r *postgresEventRepository) scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Mode, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := r.scanEvent(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrEventNotFound) {
		return nil, fmt.Errorf("failed to get event by id %d: %w", id, err)
	}
	return event, err
}

func (r *postgresEventRepository) List(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date ASC NULLS LAST, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, scanErr := r.scanEvent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", scanErr)
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, start_date = $3, end_date = $4, mode = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Mode,
		event.ID,
	)
	if err != nil {
		return r.handleEventError(err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) HasMatches(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE event_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check matches of event %d: %w", id, err)
	}
	return exists, nil
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		if pqErr.Code == pqCheckViolation && pqErr.Constraint == "events_mode_check" {
			return ErrEventModeInvalid
		}
	}
	return err
}
