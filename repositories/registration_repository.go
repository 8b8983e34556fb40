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
	ErrRegistrationNotFound     = errors.New("event registration not found")
	ErrRegistrationConflict     = errors.New("user already registered for this event")
	ErrRegistrationUserInvalid  = errors.New("registration user conflict or invalid")
	ErrRegistrationEventInvalid = errors.New("registration event conflict or invalid")
)

type RegistrationFilter struct {
	UserID  *int
	EventID *int
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.EventRegistration) error
	Exists(ctx context.Context, userID, eventID int) (bool, error)
	List(ctx context.Context, filter RegistrationFilter) ([]*models.EventRegistration, error)
	// ListParticipants возвращает пользователей, зарегистрированных на событие.
	ListParticipants(ctx context.Context, eventID int) ([]*models.Participant, error)
	Delete(ctx context.Context, userID, eventID int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.EventRegistration) error {
	query := `
		INSERT INTO event_registrations (user_id, event_id)
		VALUES ($1, $2)
		RETURNING registration_date`

	err := r.db.QueryRowContext(ctx, query, reg.UserID, reg.EventID).Scan(&reg.RegistrationDate)
	return r.handleRegistrationError(err)
}

func (r *postgresRegistrationRepository) Exists(ctx context.Context, userID, eventID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM event_registrations WHERE user_id = $1 AND event_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration of user %d for event %d: %w", userID, eventID, err)
	}
	return exists, nil
}

func (r *postgresRegistrationRepository) List(ctx context.Context, filter RegistrationFilter) ([]*models.EventRegistration, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT user_id, event_id, registration_date FROM event_registrations`)

	var conditions []string
	var args []interface{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		conditions = append(conditions, "event_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY registration_date ASC, user_id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.EventRegistration, 0)
	for rows.Next() {
		var reg models.EventRegistration
		if scanErr := rows.Scan(&reg.UserID, &reg.EventID, &reg.RegistrationDate); scanErr != nil {
			return nil, fmt.Errorf("failed to scan event registration row: %w", scanErr)
		}
		regs = append(regs, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event registration rows iteration: %w", err)
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) ListParticipants(ctx context.Context, eventID int) ([]*models.Participant, error) {
	query := `
		SELECT u.id, u.username
		FROM event_registrations er
		JOIN users u ON er.user_id = u.id
		WHERE er.event_id = $1
		ORDER BY u.username ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants of event %d: %w", eventID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if scanErr := rows.Scan(&p.ID, &p.Username); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, userID, eventID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM event_registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch {
		case pqErr.Code == pqUniqueViolation && pqErr.Constraint == "event_registrations_pkey":
			return ErrRegistrationConflict
		case pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == "event_registrations_user_id_fkey":
			return ErrRegistrationUserInvalid
		case pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == "event_registrations_event_id_fkey":
			return ErrRegistrationEventInvalid
		}
	}
	return err
}
