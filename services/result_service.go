package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
)

type CreateResultInput struct {
	MatchID      int  `json:"match_id"`
	User1Score   *int `json:"user1_score"`
	User2Score   *int `json:"user2_score"`
	WinnerUserID *int `json:"winner_user_id"`
}

// UpdateResultInput — частичное обновление: nil-поля не меняются.
type UpdateResultInput struct {
	User1Score   *int `json:"user1_score"`
	User2Score   *int `json:"user2_score"`
	WinnerUserID *int `json:"winner_user_id"`
}

type ResultService interface {
	Create(ctx context.Context, input CreateResultInput) (*models.Result, error)
	GetByID(ctx context.Context, id int) (*models.Result, error)
	// GetByMatch returns nil without error when the match has no result yet.
	GetByMatch(ctx context.Context, matchID int) (*models.Result, error)
	List(ctx context.Context, filter repositories.ResultFilter) ([]*models.Result, error)
	Update(ctx context.Context, id int, input UpdateResultInput) (*models.Result, error)
	Delete(ctx context.Context, id int) error
}

type resultService struct {
	transactor repositories.Transactor
	resultRepo repositories.ResultRepository
	matchRepo  repositories.MatchRepository
	eventRepo  repositories.EventRepository
	aggregator *StandingsAggregator
	logger     *slog.Logger
}

func NewResultService(
	transactor repositories.Transactor,
	resultRepo repositories.ResultRepository,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	aggregator *StandingsAggregator,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		transactor: transactor,
		resultRepo: resultRepo,
		matchRepo:  matchRepo,
		eventRepo:  eventRepo,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Create records the result and, for league events, applies it to the
// standings in the same transaction. The match row stays locked until
// commit, so concurrent submissions for one match are serialized.
func (s *resultService) Create(ctx context.Context, input CreateResultInput) (*models.Result, error) {
	if err := validateScores(input.User1Score, input.User2Score); err != nil {
		return nil, err
	}

	result := &models.Result{
		MatchID:      input.MatchID,
		User1Score:   input.User1Score,
		User2Score:   input.User2Score,
		WinnerUserID: input.WinnerUserID,
	}
	var league bool

	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, input.MatchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}

		event, err := s.eventRepo.GetByID(ctx, exec, match.EventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		_, err = s.resultRepo.GetByMatchID(ctx, exec, match.ID)
		switch {
		case err == nil:
			return ErrResultAlreadyExists
		case !errors.Is(err, repositories.ErrResultNotFound):
			return err
		}

		if err := validateWinner(match, input.WinnerUserID); err != nil {
			return err
		}

		if err := s.resultRepo.Create(ctx, exec, result); err != nil {
			return mapResultRepoError(err)
		}

		if event.IsLeague() {
			league = true
			return s.aggregator.ApplyResult(ctx, exec, event, match, result)
		}
		return nil
	})
	if err != nil {
		if isResultDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record result for match %d: %w", input.MatchID, err)
	}

	s.logger.InfoContext(ctx, "Result recorded",
		slog.Int("result_id", result.ID),
		slog.Int("match_id", result.MatchID),
		slog.Bool("standings_applied", league),
	)
	return result, nil
}

func (s *resultService) GetByID(ctx context.Context, id int) (*models.Result, error) {
	result, err := s.resultRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *resultService) GetByMatch(ctx context.Context, matchID int) (*models.Result, error) {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	result, err := s.resultRepo.GetByMatchID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (s *resultService) List(ctx context.Context, filter repositories.ResultFilter) ([]*models.Result, error) {
	return s.resultRepo.List(ctx, filter)
}

// loadEditable returns the result and its match, refusing results whose
// event is a league: their effect on standings is not reversible.
func (s *resultService) loadEditable(ctx context.Context, id int) (*models.Result, *models.Match, error) {
	result, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	match, err := s.matchRepo.GetByID(ctx, result.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, nil, ErrMatchNotFound
		}
		return nil, nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, nil, match.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, err
	}
	if event.IsLeague() {
		return nil, nil, ErrResultLocked
	}
	return result, match, nil
}

func (s *resultService) Update(ctx context.Context, id int, input UpdateResultInput) (*models.Result, error) {
	if err := validateScores(input.User1Score, input.User2Score); err != nil {
		return nil, err
	}

	result, match, err := s.loadEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.User1Score != nil {
		result.User1Score = input.User1Score
	}
	if input.User2Score != nil {
		result.User2Score = input.User2Score
	}
	if input.WinnerUserID != nil {
		if err := validateWinner(match, input.WinnerUserID); err != nil {
			return nil, err
		}
		result.WinnerUserID = input.WinnerUserID
	}

	if err := s.resultRepo.Update(ctx, result); err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, mapResultRepoError(err)
	}
	return result, nil
}

func (s *resultService) Delete(ctx context.Context, id int) error {
	if _, _, err := s.loadEditable(ctx, id); err != nil {
		return err
	}
	if err := s.resultRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return ErrResultNotFound
		}
		return err
	}
	return nil
}

func mapResultRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrResultMatchConflict):
		return ErrResultAlreadyExists
	case errors.Is(err, repositories.ErrResultMatchInvalid):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrResultWinnerInvalid):
		return ErrWinnerNotParticipant
	case errors.Is(err, repositories.ErrResultScoreInvalid):
		return ErrInvalidScore
	}
	return err
}

func isResultDomainError(err error) bool {
	for _, target := range []error{
		ErrMatchNotFound, ErrEventNotFound, ErrResultAlreadyExists,
		ErrWinnerNotParticipant, ErrInvalidScore,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
