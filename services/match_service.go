package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
	"github.com/Dosada05/cup-manager/storage"
	"github.com/Dosada05/cup-manager/utils"
)

type CreateMatchInput struct {
	EventID     int        `json:"event_id"`
	Stage       *string    `json:"stage"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Venue       *string    `json:"venue"`
	User1ID     int        `json:"user1_id"`
	User2ID     int        `json:"user2_id"`
}

// UpdateMatchInput — частичное обновление: nil-поля не меняются.
type UpdateMatchInput struct {
	EventID     *int       `json:"event_id"`
	Stage       *string    `json:"stage"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Venue       *string    `json:"venue"`
	User1ID     *int       `json:"user1_id"`
	User2ID     *int       `json:"user2_id"`
}

type UploadMatchImageInput struct {
	MatchID  int
	UserID   int
	CallerID int
	FileType models.MatchFileType
	Filename string
	Size     int64
	Reader   io.Reader
}

type MatchService interface {
	Create(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, eventID *int) ([]*models.Match, error)
	Update(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error)
	Delete(ctx context.Context, id int) error
	UploadMatchImage(ctx context.Context, input UploadMatchImageInput) (*models.Match, error)
}

type matchService struct {
	transactor     repositories.Transactor
	matchRepo      repositories.MatchRepository
	eventRepo      repositories.EventRepository
	userRepo       repositories.UserRepository
	resultRepo     repositories.ResultRepository
	uploader       storage.FileUploader
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewMatchService(
	transactor repositories.Transactor,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	resultRepo repositories.ResultRepository,
	uploader storage.FileUploader,
	maxUploadBytes int64,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		transactor:     transactor,
		matchRepo:      matchRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		resultRepo:     resultRepo,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (s *matchService) validateRefs(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if match.User1ID == match.User2ID {
		return ErrSameParticipants
	}
	if _, err := s.eventRepo.GetByID(ctx, exec, match.EventID); err != nil {
		return mapEventRepoError(err)
	}
	for _, uid := range []int{match.User1ID, match.User2ID} {
		if _, err := s.userRepo.GetByID(ctx, uid); err != nil {
			return mapUserRepoError(err)
		}
	}
	return nil
}

func (s *matchService) Create(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	match := &models.Match{
		EventID:     input.EventID,
		Stage:       trimmedOrNil(input.Stage),
		ScheduledAt: input.ScheduledAt,
		Venue:       trimmedOrNil(input.Venue),
		User1ID:     input.User1ID,
		User2ID:     input.User2ID,
	}
	if err := s.validateRefs(ctx, nil, match); err != nil {
		return nil, err
	}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, mapMatchRepoError(err)
	}
	// перечитываем, чтобы получить имена участников
	return s.GetByID(ctx, match.ID)
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	populateMatchFileURLsFunc(match, s.uploader)
	return match, nil
}

func (s *matchService) List(ctx context.Context, eventID *int) ([]*models.Match, error) {
	matches, err := s.matchRepo.List(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		populateMatchFileURLsFunc(m, s.uploader)
	}
	return matches, nil
}

// Update применяет частичные изменения. Состав участников и событие
// матча, результат которого учтён в таблице лиги, менять нельзя.
func (s *matchService) Update(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error) {
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapMatchRepoError(err)
		}

		targetEventID := match.EventID
		if input.EventID != nil {
			targetEventID = *input.EventID
		}
		pairingChanged := targetEventID != match.EventID ||
			(input.User1ID != nil && *input.User1ID != match.User1ID) ||
			(input.User2ID != nil && *input.User2ID != match.User2ID)
		if pairingChanged {
			if err := s.ensureNotInStandings(ctx, exec, match.ID, match.EventID, targetEventID); err != nil {
				return err
			}
		}

		match.EventID = targetEventID
		if input.Stage != nil {
			match.Stage = trimmedOrNil(input.Stage)
		}
		if input.ScheduledAt != nil {
			match.ScheduledAt = input.ScheduledAt
		}
		if input.Venue != nil {
			match.Venue = trimmedOrNil(input.Venue)
		}
		if input.User1ID != nil {
			match.User1ID = *input.User1ID
		}
		if input.User2ID != nil {
			match.User2ID = *input.User2ID
		}
		if err := s.validateRefs(ctx, exec, match); err != nil {
			return err
		}

		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return mapMatchRepoError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *matchService) Delete(ctx context.Context, id int) error {
	var deleted *models.Match
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapMatchRepoError(err)
		}
		// результат удалится каскадом, а очки в таблице лиги останутся
		if err := s.ensureNotInStandings(ctx, exec, match.ID, match.EventID); err != nil {
			return err
		}
		if err := s.matchRepo.Delete(ctx, exec, id); err != nil {
			return mapMatchRepoError(err)
		}
		deleted = match
		return nil
	})
	if err != nil {
		return err
	}
	deleteStoredFilesFunc(ctx, s.uploader, deleted.FileKeys(0), s.logger)
	return nil
}

// ensureNotInStandings returns ErrResultLocked when the match has a result
// and any of the given events is a league.
func (s *matchService) ensureNotInStandings(ctx context.Context, exec repositories.SQLExecutor, matchID int, eventIDs ...int) error {
	if _, err := s.resultRepo.GetByMatchID(ctx, exec, matchID); err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil
		}
		return err
	}
	for _, eventID := range eventIDs {
		event, err := s.eventRepo.GetByID(ctx, exec, eventID)
		if err != nil {
			return mapEventRepoError(err)
		}
		if event.IsLeague() {
			return ErrResultLocked
		}
	}
	return nil
}

// UploadMatchImage stores a screenshot or tactics image for one participant
// and replaces the previous file of the same slot.
func (s *matchService) UploadMatchImage(ctx context.Context, input UploadMatchImageInput) (*models.Match, error) {
	if !input.FileType.Valid() {
		return nil, ErrInvalidFileType
	}
	ext, ok := utils.ImageExtension(input.Filename)
	if !ok {
		return nil, ErrInvalidFileFormat
	}
	if s.maxUploadBytes > 0 && input.Size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if input.CallerID != input.UserID {
		return nil, ErrForbiddenOperation
	}
	if s.uploader == nil {
		return nil, errors.New("file storage is not configured")
	}

	match, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	slot := match.FileKeySlot(input.UserID, input.FileType)
	if slot == nil {
		return nil, ErrParticipantNotFound
	}

	key := fmt.Sprintf("matches/%d/user_%d/%s_%s%s", match.ID, input.UserID, input.FileType, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, utils.ContentTypeForExtension(ext), input.Reader); err != nil {
		return nil, fmt.Errorf("failed to upload %s for match %d: %w", input.FileType, match.ID, err)
	}

	oldKey := *slot
	*slot = &key
	if err := s.matchRepo.Update(ctx, nil, match); err != nil {
		deleteStoredFilesFunc(ctx, s.uploader, []string{key}, s.logger)
		return nil, mapMatchRepoError(err)
	}
	if oldKey != nil && *oldKey != "" && *oldKey != key {
		deleteStoredFilesFunc(ctx, s.uploader, []string{*oldKey}, s.logger)
	}

	s.logger.InfoContext(ctx, "Match image uploaded",
		slog.Int("match_id", match.ID),
		slog.Int("user_id", input.UserID),
		slog.String("file_type", string(input.FileType)),
		slog.String("key", key),
	)
	populateMatchFileURLsFunc(match, s.uploader)
	return match, nil
}

func mapMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchEventInvalid):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrMatchUserInvalid):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrMatchSameParticipants):
		return ErrSameParticipants
	}
	return err
}
