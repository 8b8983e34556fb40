package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
	"github.com/Dosada05/cup-manager/storage"
)

const dateLayout = "2006-01-02"

type CreateEventInput struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	StartDate   *string          `json:"start_date"`
	EndDate     *string          `json:"end_date"`
	Mode        models.EventMode `json:"mode"`
}

// UpdateEventInput — частичное обновление: nil-поля не меняются.
type UpdateEventInput struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	StartDate   *string           `json:"start_date"`
	EndDate     *string           `json:"end_date"`
	Mode        *models.EventMode `json:"mode"`
}

type EventService interface {
	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, id int, input UpdateEventInput) (*models.Event, error)
	Delete(ctx context.Context, id int) error
	ListMatches(ctx context.Context, eventID int) ([]*models.Match, error)
	KnockoutProgress(ctx context.Context, eventID, userID int) ([]*models.KnockoutProgressEntry, error)
}

type eventService struct {
	eventRepo repositories.EventRepository
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	regRepo   repositories.RegistrationRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	regRepo repositories.RegistrationRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		matchRepo: matchRepo,
		userRepo:  userRepo,
		regRepo:   regRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be in YYYY-MM-DD format", ErrValidationFailed, *value)
	}
	return &t, nil
}

func (s *eventService) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrEventNameRequired
	}
	mode := input.Mode
	if mode == "" {
		mode = models.EventModeKnockout
	}
	if !mode.Valid() {
		return nil, ErrInvalidEventMode
	}

	start, err := parseDate(input.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(input.EndDate)
	if err != nil {
		return nil, err
	}
	if err := validateEventDates(start, end); err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:        name,
		Description: trimmedOrNil(input.Description),
		StartDate:   start,
		EndDate:     end,
		Mode:        mode,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, mapEventRepoError(err)
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapEventRepoError(err)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.eventRepo.List(ctx)
}

func (s *eventService) Update(ctx context.Context, id int, input UpdateEventInput) (*models.Event, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrEventNameRequired
		}
		event.Name = name
	}
	if input.Description != nil {
		event.Description = trimmedOrNil(input.Description)
	}
	if input.StartDate != nil {
		if event.StartDate, err = parseDate(input.StartDate); err != nil {
			return nil, err
		}
	}
	if input.EndDate != nil {
		if event.EndDate, err = parseDate(input.EndDate); err != nil {
			return nil, err
		}
	}
	if err := validateEventDates(event.StartDate, event.EndDate); err != nil {
		return nil, err
	}

	if input.Mode != nil && *input.Mode != event.Mode {
		if !input.Mode.Valid() {
			return nil, ErrInvalidEventMode
		}
		hasMatches, err := s.eventRepo.HasMatches(ctx, id)
		if err != nil {
			return nil, err
		}
		if hasMatches {
			return nil, ErrEventModeLocked
		}
		event.Mode = *input.Mode
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, mapEventRepoError(err)
	}
	return event, nil
}

// Delete removes the event with its matches, results and standings, then
// the files attached to the removed matches.
func (s *eventService) Delete(ctx context.Context, id int) error {
	matches, err := s.matchRepo.List(ctx, &id)
	if err != nil {
		return fmt.Errorf("failed to list matches of event %d: %w", id, err)
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return mapEventRepoError(err)
	}

	var keys []string
	for _, m := range matches {
		keys = append(keys, m.FileKeys(0)...)
	}
	deleteStoredFilesFunc(ctx, s.uploader, keys, s.logger)
	return nil
}

func (s *eventService) ListMatches(ctx context.Context, eventID int) ([]*models.Match, error) {
	if _, err := s.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.List(ctx, &eventID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		populateMatchFileURLsFunc(m, s.uploader)
	}
	return matches, nil
}

func (s *eventService) KnockoutProgress(ctx context.Context, eventID, userID int) ([]*models.KnockoutProgressEntry, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Mode != models.EventModeKnockout {
		return nil, ErrEventNotKnockout
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, mapUserRepoError(err)
	}
	registered, err := s.regRepo.Exists(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrUserNotRegistered
	}

	history, err := s.matchRepo.ListHistory(ctx, userID, &eventID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load knockout matches of user %d in event %d: %w", userID, eventID, err)
	}
	return knockoutProgress(history, userID), nil
}

// knockoutProgress annotates each match with whether userID won it:
// nil while no winner is recorded.
func knockoutProgress(history []*models.MatchHistoryEntry, userID int) []*models.KnockoutProgressEntry {
	entries := make([]*models.KnockoutProgressEntry, 0, len(history))
	for _, h := range history {
		entry := &models.KnockoutProgressEntry{MatchHistoryEntry: *h}
		if h.HasResult && h.WinnerUserID != nil {
			won := *h.WinnerUserID == userID
			entry.UserIsWinner = &won
		}
		entries = append(entries, entry)
	}
	return entries
}

func mapEventRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrEventModeInvalid):
		return ErrInvalidEventMode
	}
	return err
}
