package services

import (
	"context"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "neo", Password: "123"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = env.auth.Register(ctx, RegisterInput{Username: " ", Password: "123456"})
	assert.ErrorIs(t, err, ErrUsernameRequired)

	user, err := env.auth.Register(ctx, RegisterInput{Username: "neo", Password: "matrix1", Email: ptr(" neo@zion.io ")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "neo@zion.io", *user.Email)
	assert.True(t, utils.CheckPasswordHash("matrix1", user.PasswordHash))

	_, err = env.auth.Register(ctx, RegisterInput{Username: "neo", Password: "another1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.auth.Login(ctx, LoginInput{Username: "neo", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginInput{Username: "ghost", Password: "matrix1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := env.auth.Login(ctx, LoginInput{Username: "neo", Password: "matrix1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, models.RoleUser, res.Role)

	token, err := jwt.Parse(res.AccessToken, func(t *jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(user.ID), claims["user_id"])
	assert.Equal(t, "user", claims["role"])
	assert.Equal(t, "neo", claims["name"])
}

func TestEnsureOrganizerIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.auth.EnsureOrganizer(ctx, "admin", "admin-pass"))
	require.NoError(t, env.auth.EnsureOrganizer(ctx, "admin", "admin-pass"))

	users, err := env.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleOrganizer, users[0].Role)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Create(ctx, CreateUserInput{Username: "trinity", Password: "secret1"})
	require.NoError(t, err)
	_, err = env.users.Create(ctx, CreateUserInput{Username: "morpheus", Password: "secret1", Role: models.RoleOrganizer})
	require.NoError(t, err)

	_, err = env.users.Create(ctx, CreateUserInput{Username: "smith", Password: "secret1", Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = env.users.Update(ctx, user.ID, UpdateUserInput{Username: ptr("morpheus")})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	organizer := models.RoleOrganizer
	updated, err := env.users.Update(ctx, user.ID, UpdateUserInput{Role: &organizer, Password: ptr("newsecret")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, updated.Role)
	assert.Equal(t, "trinity", updated.Username)
	assert.True(t, utils.CheckPasswordHash("newsecret", updated.PasswordHash))

	profile, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Email: ptr("t@zion.io")})
	require.NoError(t, err)
	assert.Equal(t, "t@zion.io", *profile.Email)
	assert.Equal(t, models.RoleOrganizer, profile.Role)

	_, err = env.users.Update(ctx, 999, UpdateUserInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserRemovesUploadedFiles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeKnockout)
	u1, u2 := env.store.addUser("u1"), env.store.addUser("u2")
	m := env.store.addMatch(event.ID, u1.ID, u2.ID)

	match, err := env.matches.UploadMatchImage(ctx, UploadMatchImageInput{
		MatchID: m.ID, UserID: u1.ID, CallerID: u1.ID, FileType: models.MatchFileScreenshot,
		Filename: "s.gif", Size: 1, Reader: strings.NewReader("g"),
	})
	require.NoError(t, err)
	key := *match.User1ScreenshotKey

	require.NoError(t, env.users.Delete(ctx, u1.ID))
	assert.False(t, env.uploader.has(key))

	_, err = env.users.GetByID(ctx, u1.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, env.users.Delete(ctx, u1.ID), ErrUserNotFound)
}

func TestDeleteUserWithLeagueResultIsRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	league := env.store.addEvent("League", models.EventModeLeague)
	cup := env.store.addEvent("Cup", models.EventModeKnockout)
	a, b, c := env.store.addUser("a"), env.store.addUser("b"), env.store.addUser("c")
	played := env.store.addMatch(league.ID, a.ID, b.ID)
	env.store.addMatch(league.ID, a.ID, c.ID)
	knockout := env.store.addMatch(cup.ID, b.ID, c.ID)

	_, err := env.results.Create(ctx, CreateResultInput{MatchID: played.ID, User1Score: ptr(1), User2Score: ptr(1)})
	require.NoError(t, err)
	_, err = env.results.Create(ctx, CreateResultInput{MatchID: knockout.ID, User1Score: ptr(0), User2Score: ptr(2)})
	require.NoError(t, err)

	assert.ErrorIs(t, env.users.Delete(ctx, a.ID), ErrResultLocked)
	assert.ErrorIs(t, env.users.Delete(ctx, b.ID), ErrResultLocked)
	_, err = env.users.GetByID(ctx, a.ID)
	require.NoError(t, err)

	rows, err := env.standings.RankedStandings(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 1, row.GamesPlayed)
		assert.Equal(t, 1, row.Points)
	}

	// у c только несыгранный матч лиги и результат плей-офф
	require.NoError(t, env.users.Delete(ctx, c.ID))
	_, err = env.matches.GetByID(ctx, knockout.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchHistoryNewestFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeKnockout)
	u1, u2 := env.store.addUser("u1"), env.store.addUser("u2")
	older := env.store.addMatch(event.ID, u1.ID, u2.ID)
	newer := env.store.addMatch(event.ID, u2.ID, u1.ID)

	_, err := env.results.Create(ctx, CreateResultInput{MatchID: older.ID, User1Score: ptr(1), User2Score: ptr(0)})
	require.NoError(t, err)

	history, err := env.users.MatchHistory(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer.ID, history[0].MatchID)
	assert.False(t, history[0].HasResult)
	assert.Equal(t, 1, *history[1].User1Score)
}

func TestRegistrations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeLeague)
	u1 := env.store.addUser("u1")

	_, err := env.registration.Register(ctx, u1.ID, 999)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = env.registration.Register(ctx, 999, event.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.registration.Register(ctx, u1.ID, event.ID)
	require.NoError(t, err)

	_, err = env.registration.Register(ctx, u1.ID, event.ID)
	assert.ErrorIs(t, err, ErrRegistrationConflict)

	participants, err := env.registration.ListParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "u1", participants[0].Username)

	regs, err := env.registration.ListByUser(ctx, u1.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 1)

	require.NoError(t, env.registration.Unregister(ctx, u1.ID, event.ID))
	assert.ErrorIs(t, env.registration.Unregister(ctx, u1.ID, event.ID), ErrRegistrationNotFound)
}
