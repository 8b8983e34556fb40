package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
)

const (
	pointsForWin  = 3
	pointsForDraw = 1
)

// StandingsAggregator начисляет очки участникам лиги по результату матча.
type StandingsAggregator struct {
	standingRepo repositories.LeagueStandingRepository
}

func NewStandingsAggregator(standingRepo repositories.LeagueStandingRepository) *StandingsAggregator {
	return &StandingsAggregator{standingRepo: standingRepo}
}

// ApplyResult upserts both participants' standings for a newly created result.
// It must run on the same executor as the result insert; the caller guarantees
// that event is a league and that no earlier result existed for match.
func (a *StandingsAggregator) ApplyResult(ctx context.Context, exec repositories.SQLExecutor, event *models.Event, match *models.Match, result *models.Result) error {
	if !event.IsLeague() {
		return ErrEventNotLeague
	}

	d1, d2 := computeOutcome(scoreOrZero(result.User1Score), scoreOrZero(result.User2Score))

	type update struct {
		userID int
		delta  models.StandingDelta
	}
	updates := []update{{match.User1ID, d1}, {match.User2ID, d2}}
	// одинаковый порядок блокировок строк во всех транзакциях
	if updates[1].userID < updates[0].userID {
		updates[0], updates[1] = updates[1], updates[0]
	}

	for _, u := range updates {
		if err := a.standingRepo.Upsert(ctx, exec, event.ID, u.userID, u.delta); err != nil {
			return fmt.Errorf("failed to update standing of user %d in event %d: %w", u.userID, event.ID, err)
		}
	}
	return nil
}

func scoreOrZero(score *int) int {
	if score == nil {
		return 0
	}
	return *score
}

// computeOutcome returns the standing increments for user1 and user2.
func computeOutcome(score1, score2 int) (d1, d2 models.StandingDelta) {
	d1 = models.StandingDelta{GoalsScored: score1, GoalsAgainst: score2}
	d2 = models.StandingDelta{GoalsScored: score2, GoalsAgainst: score1}

	switch {
	case score1 > score2:
		d1.Points, d1.Wins = pointsForWin, 1
		d2.Losses = 1
	case score1 < score2:
		d2.Points, d2.Wins = pointsForWin, 1
		d1.Losses = 1
	default:
		d1.Points, d1.Draws = pointsForDraw, 1
		d2.Points, d2.Draws = pointsForDraw, 1
	}
	return d1, d2
}

type StandingsService interface {
	RankedStandings(ctx context.Context, eventID int) ([]models.StandingRow, error)
}

type standingsService struct {
	eventRepo    repositories.EventRepository
	standingRepo repositories.LeagueStandingRepository
}

func NewStandingsService(eventRepo repositories.EventRepository, standingRepo repositories.LeagueStandingRepository) StandingsService {
	return &standingsService{eventRepo: eventRepo, standingRepo: standingRepo}
}

func (s *standingsService) RankedStandings(ctx context.Context, eventID int) ([]models.StandingRow, error) {
	event, err := s.eventRepo.GetByID(ctx, nil, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if !event.IsLeague() {
		return nil, ErrEventNotLeague
	}

	views, err := s.standingRepo.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for event %d: %w", eventID, err)
	}
	return rankStandings(views), nil
}

// rankStandings orders rows by points, goal difference and goals scored,
// all descending. Remaining ties keep the input order.
func rankStandings(views []*repositories.StandingView) []models.StandingRow {
	rows := make([]models.StandingRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, models.StandingRow{
			UserID:         v.UserID,
			Username:       v.Username,
			Points:         v.Points,
			Wins:           v.Wins,
			Draws:          v.Draws,
			Losses:         v.Losses,
			GoalsScored:    v.GoalsScored,
			GoalsAgainst:   v.GoalsAgainst,
			GoalDifference: v.GoalsScored - v.GoalsAgainst,
			GamesPlayed:    v.GamesPlayed,
		})
	}

	slices.SortStableFunc(rows, func(a, b models.StandingRow) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(b.GoalDifference, a.GoalDifference); c != 0 {
			return c
		}
		return cmp.Compare(b.GoalsScored, a.GoalsScored)
	})

	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}
