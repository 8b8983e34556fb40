package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
	"github.com/Dosada05/cup-manager/storage"
	"github.com/Dosada05/cup-manager/utils"
)

type CreateUserInput struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Email    *string         `json:"email"`
	Role     models.UserRole `json:"role"`
}

// UpdateUserInput — частичное обновление: nil-поля не меняются.
type UpdateUserInput struct {
	Username *string          `json:"username"`
	Email    *string          `json:"email"`
	Role     *models.UserRole `json:"role"`
	Password *string          `json:"password"`
}

// UpdateProfileInput — поля, которые пользователь может менять сам.
type UpdateProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id int, input UpdateUserInput) (*models.User, error)
	UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (*models.User, error)
	Delete(ctx context.Context, id int) error
	MatchHistory(ctx context.Context, userID int) ([]*models.MatchHistoryEntry, error)
}

type userService struct {
	userRepo  repositories.UserRepository
	matchRepo repositories.MatchRepository
	eventRepo repositories.EventRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

func (s *userService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        trimmedOrNil(input.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, mapUserRepoError(err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) Update(ctx context.Context, id int, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyProfileChanges(user, input.Username, input.Email); err != nil {
		return nil, err
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapUserRepoError(err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (*models.User, error) {
	return s.Update(ctx, id, UpdateUserInput{Username: input.Username, Email: input.Email})
}

func applyProfileChanges(user *models.User, username, email *string) error {
	if username != nil {
		name := strings.TrimSpace(*username)
		if name == "" {
			return ErrUsernameRequired
		}
		user.Username = name
	}
	if email != nil {
		user.Email = trimmedOrNil(email)
	}
	return nil
}

// Delete removes the user (matches, results and registrations cascade) and
// then the files the user uploaded to those matches. A user who already has
// results counted in a league table cannot be deleted.
func (s *userService) Delete(ctx context.Context, id int) error {
	history, err := s.matchRepo.ListHistory(ctx, id, nil, false)
	if err != nil {
		return fmt.Errorf("failed to list matches of user %d: %w", id, err)
	}
	leagues := make(map[int]bool)
	for _, entry := range history {
		if !entry.HasResult {
			continue
		}
		isLeague, seen := leagues[entry.EventID]
		if !seen {
			event, err := s.eventRepo.GetByID(ctx, nil, entry.EventID)
			if err != nil {
				return mapEventRepoError(err)
			}
			isLeague = event.IsLeague()
			leagues[entry.EventID] = isLeague
		}
		if isLeague {
			return ErrResultLocked
		}
	}

	matches, err := s.matchRepo.ListByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list matches of user %d: %w", id, err)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return mapUserRepoError(err)
	}

	var keys []string
	for _, m := range matches {
		keys = append(keys, m.FileKeys(0)...)
	}
	deleteStoredFilesFunc(ctx, s.uploader, keys, s.logger)
	return nil
}

func (s *userService) MatchHistory(ctx context.Context, userID int) ([]*models.MatchHistoryEntry, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListHistory(ctx, userID, nil, true)
}

func mapUserRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrUserUsernameConflict):
		return ErrUsernameTaken
	}
	return err
}
