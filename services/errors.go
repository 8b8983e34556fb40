package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrEventNameRequired  = errors.New("event name is required")
	ErrInvalidEventMode   = errors.New("invalid event mode")
	ErrInvalidDateRange   = errors.New("event end date must not be before start date")
	ErrInvalidScore       = errors.New("scores must be non-negative")
	ErrSameParticipants   = errors.New("match participants must be two different users")
	ErrInvalidFileType    = errors.New("file_type must be 'screenshot' or 'tactics'")
	ErrInvalidFileFormat  = errors.New("invalid file format")
	ErrFileTooLarge       = errors.New("file is too large")
	ErrUserNotRegistered  = errors.New("user is not registered for this event")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Ошибки состояния события
	ErrEventNotLeague   = errors.New("standings are only available for league events")
	ErrEventNotKnockout = errors.New("knockout progress is only available for knockout events")
	ErrEventModeLocked  = errors.New("event mode cannot be changed once matches exist")

	// Ошибки целостности результатов
	ErrResultAlreadyExists  = errors.New("result for this match already exists")
	ErrWinnerNotParticipant = errors.New("winner must be one of the match participants")
	ErrResultLocked         = errors.New("results of league events cannot be changed once standings are applied")

	// Ошибки конфликтов
	ErrUsernameTaken        = errors.New("username is already taken")
	ErrRegistrationConflict = errors.New("user is already registered for this event")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrResultNotFound       = errors.New("result not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrParticipantNotFound  = errors.New("user does not play in this match")
)
