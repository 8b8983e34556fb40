package services

import (
	"context"
	"errors"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
)

type RegistrationService interface {
	Register(ctx context.Context, userID, eventID int) (*models.EventRegistration, error)
	Unregister(ctx context.Context, userID, eventID int) error
	List(ctx context.Context, filter repositories.RegistrationFilter) ([]*models.EventRegistration, error)
	ListByUser(ctx context.Context, userID int) ([]*models.EventRegistration, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.EventRegistration, error)
	ListParticipants(ctx context.Context, eventID int) ([]*models.Participant, error)
}

type registrationService struct {
	regRepo   repositories.RegistrationRepository
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
}

func NewRegistrationService(
	regRepo repositories.RegistrationRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
) RegistrationService {
	return &registrationService{
		regRepo:   regRepo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
	}
}

func (s *registrationService) ensureEvent(ctx context.Context, eventID int) error {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return mapEventRepoError(err)
	}
	return nil
}

func (s *registrationService) ensureUser(ctx context.Context, userID int) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return mapUserRepoError(err)
	}
	return nil
}

func (s *registrationService) Register(ctx context.Context, userID, eventID int) (*models.EventRegistration, error) {
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	reg := &models.EventRegistration{UserID: userID, EventID: eventID}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, mapRegistrationRepoError(err)
	}
	return reg, nil
}

func (s *registrationService) Unregister(ctx context.Context, userID, eventID int) error {
	if err := s.regRepo.Delete(ctx, userID, eventID); err != nil {
		return mapRegistrationRepoError(err)
	}
	return nil
}

func (s *registrationService) List(ctx context.Context, filter repositories.RegistrationFilter) ([]*models.EventRegistration, error) {
	return s.regRepo.List(ctx, filter)
}

func (s *registrationService) ListByUser(ctx context.Context, userID int) ([]*models.EventRegistration, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.regRepo.List(ctx, repositories.RegistrationFilter{UserID: &userID})
}

func (s *registrationService) ListByEvent(ctx context.Context, eventID int) ([]*models.EventRegistration, error) {
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.regRepo.List(ctx, repositories.RegistrationFilter{EventID: &eventID})
}

func (s *registrationService) ListParticipants(ctx context.Context, eventID int) ([]*models.Participant, error) {
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.regRepo.ListParticipants(ctx, eventID)
}

func mapRegistrationRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrRegistrationConflict):
		return ErrRegistrationConflict
	case errors.Is(err, repositories.ErrRegistrationNotFound):
		return ErrRegistrationNotFound
	case errors.Is(err, repositories.ErrRegistrationUserInvalid):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrRegistrationEventInvalid):
		return ErrEventNotFound
	}
	return err
}
