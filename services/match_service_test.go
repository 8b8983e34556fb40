package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/cup-manager/models"
)

func TestCreateMatchValidatesReferences(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeLeague)
	u1, u2 := env.store.addUser("u1"), env.store.addUser("u2")

	_, err := env.matches.Create(ctx, CreateMatchInput{EventID: event.ID, User1ID: u1.ID, User2ID: u1.ID})
	assert.ErrorIs(t, err, ErrSameParticipants)

	_, err = env.matches.Create(ctx, CreateMatchInput{EventID: 999, User1ID: u1.ID, User2ID: u2.ID})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = env.matches.Create(ctx, CreateMatchInput{EventID: event.ID, User1ID: u1.ID, User2ID: 999})
	assert.ErrorIs(t, err, ErrUserNotFound)

	match, err := env.matches.Create(ctx, CreateMatchInput{EventID: event.ID, Stage: ptr("Round 1"), User1ID: u1.ID, User2ID: u2.ID})
	require.NoError(t, err)
	assert.Equal(t, "u1", match.User1Username)
	assert.Equal(t, "u2", match.User2Username)
	assert.Equal(t, "Round 1", *match.Stage)
}

func TestUpdateMatchPartial(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeKnockout)
	u1, u2, u3 := env.store.addUser("u1"), env.store.addUser("u2"), env.store.addUser("u3")
	m := env.store.addMatch(event.ID, u1.ID, u2.ID)

	updated, err := env.matches.Update(ctx, m.ID, UpdateMatchInput{Venue: ptr("Arena"), User2ID: &u3.ID})
	require.NoError(t, err)
	assert.Equal(t, "Arena", *updated.Venue)
	assert.Equal(t, u1.ID, updated.User1ID)
	assert.Equal(t, u3.ID, updated.User2ID)

	_, err = env.matches.Update(ctx, m.ID, UpdateMatchInput{User1ID: &u3.ID})
	assert.ErrorIs(t, err, ErrSameParticipants)

	_, err = env.matches.Update(ctx, 999, UpdateMatchInput{})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestUploadMatchImage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeKnockout)
	u1, u2, outsider := env.store.addUser("u1"), env.store.addUser("u2"), env.store.addUser("x")
	m := env.store.addMatch(event.ID, u1.ID, u2.ID)

	input := func() UploadMatchImageInput {
		return UploadMatchImageInput{
			MatchID: m.ID, UserID: u2.ID, CallerID: u2.ID, FileType: models.MatchFileTactics,
			Filename: "plan.webp", Size: 4, Reader: strings.NewReader("webp"),
		}
	}

	first, err := env.matches.UploadMatchImage(ctx, input())
	require.NoError(t, err)
	require.NotNil(t, first.User2TacticsKey)
	firstKey := *first.User2TacticsKey
	assert.True(t, strings.HasPrefix(firstKey, "matches/"))
	assert.True(t, strings.HasSuffix(firstKey, ".webp"))
	assert.Equal(t, "https://files.test/"+firstKey, *first.User2TacticsURL)
	assert.Nil(t, first.User1TacticsKey)

	// повторная загрузка заменяет файл и удаляет старый
	second, err := env.matches.UploadMatchImage(ctx, input())
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, *second.User2TacticsKey)
	assert.False(t, env.uploader.has(firstKey))
	assert.True(t, env.uploader.has(*second.User2TacticsKey))

	bad := input()
	bad.FileType = "avatar"
	_, err = env.matches.UploadMatchImage(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidFileType)

	bad = input()
	bad.Filename = "plan.pdf"
	_, err = env.matches.UploadMatchImage(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	bad = input()
	bad.Size = 4096
	_, err = env.matches.UploadMatchImage(ctx, bad)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	bad = input()
	bad.CallerID = u1.ID
	_, err = env.matches.UploadMatchImage(ctx, bad)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	bad = input()
	bad.UserID, bad.CallerID = outsider.ID, outsider.ID
	_, err = env.matches.UploadMatchImage(ctx, bad)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	bad = input()
	bad.MatchID = 999
	_, err = env.matches.UploadMatchImage(ctx, bad)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestDeleteMatchRemovesFiles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	event := env.store.addEvent("E", models.EventModeKnockout)
	u1, u2 := env.store.addUser("u1"), env.store.addUser("u2")
	m := env.store.addMatch(event.ID, u1.ID, u2.ID)

	var keys []string
	for _, up := range []struct {
		user int
		ft   models.MatchFileType
	}{{u1.ID, models.MatchFileScreenshot}, {u2.ID, models.MatchFileScreenshot}, {u2.ID, models.MatchFileTactics}} {
		match, err := env.matches.UploadMatchImage(ctx, UploadMatchImageInput{
			MatchID: m.ID, UserID: up.user, CallerID: up.user, FileType: up.ft,
			Filename: "a.jpg", Size: 1, Reader: strings.NewReader("x"),
		})
		require.NoError(t, err)
		keys = match.FileKeys(up.user)
	}
	require.Len(t, keys, 2)

	require.NoError(t, env.matches.Delete(ctx, m.ID))
	for _, k := range keys {
		assert.False(t, env.uploader.has(k))
	}
	assert.Len(t, env.uploader.deleted, 3)

	assert.ErrorIs(t, env.matches.Delete(ctx, m.ID), ErrMatchNotFound)
}

func TestLeagueMatchWithResultIsLocked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	league := env.store.addEvent("League", models.EventModeLeague)
	cup := env.store.addEvent("Cup", models.EventModeKnockout)
	a, b, c := env.store.addUser("a"), env.store.addUser("b"), env.store.addUser("c")
	m := env.store.addMatch(league.ID, a.ID, b.ID)

	_, err := env.results.Create(ctx, CreateResultInput{MatchID: m.ID, User1Score: ptr(3), User2Score: ptr(0)})
	require.NoError(t, err)

	_, err = env.matches.Update(ctx, m.ID, UpdateMatchInput{User2ID: &c.ID})
	assert.ErrorIs(t, err, ErrResultLocked)
	_, err = env.matches.Update(ctx, m.ID, UpdateMatchInput{User1ID: &b.ID, User2ID: &a.ID})
	assert.ErrorIs(t, err, ErrResultLocked)
	_, err = env.matches.Update(ctx, m.ID, UpdateMatchInput{EventID: &cup.ID})
	assert.ErrorIs(t, err, ErrResultLocked)
	assert.ErrorIs(t, env.matches.Delete(ctx, m.ID), ErrResultLocked)

	// те же значения и организационные поля менять можно
	updated, err := env.matches.Update(ctx, m.ID, UpdateMatchInput{
		EventID: &league.ID, User1ID: &a.ID, Stage: ptr("Tour 2"), Venue: ptr("Arena"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tour 2", *updated.Stage)
	assert.Equal(t, "Arena", *updated.Venue)
	assert.Equal(t, b.ID, updated.User2ID)

	rows, err := env.standings.RankedStandings(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, a.ID, rows[0].UserID)
	assert.Equal(t, 3, rows[0].Points)
	assert.Equal(t, 1, rows[0].GamesPlayed)
	assert.Equal(t, b.ID, rows[1].UserID)
	assert.Equal(t, 1, rows[1].GamesPlayed)
	assert.Equal(t, 3, rows[1].GoalsAgainst)
}

func TestKnockoutMatchWithResultStaysEditable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	league := env.store.addEvent("League", models.EventModeLeague)
	cup := env.store.addEvent("Cup", models.EventModeKnockout)
	playoff := env.store.addEvent("Playoff", models.EventModeKnockout)
	a, b, c := env.store.addUser("a"), env.store.addUser("b"), env.store.addUser("c")
	m := env.store.addMatch(cup.ID, a.ID, b.ID)

	_, err := env.results.Create(ctx, CreateResultInput{MatchID: m.ID, User1Score: ptr(2), User2Score: ptr(1)})
	require.NoError(t, err)

	// перенос в лигу добавил бы неучтённый результат
	_, err = env.matches.Update(ctx, m.ID, UpdateMatchInput{EventID: &league.ID})
	assert.ErrorIs(t, err, ErrResultLocked)

	updated, err := env.matches.Update(ctx, m.ID, UpdateMatchInput{EventID: &playoff.ID, User2ID: &c.ID})
	require.NoError(t, err)
	assert.Equal(t, playoff.ID, updated.EventID)
	assert.Equal(t, c.ID, updated.User2ID)

	require.NoError(t, env.matches.Delete(ctx, m.ID))
	_, err = env.matches.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestLeagueMatchWithoutResultCanBeChanged(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	league := env.store.addEvent("League", models.EventModeLeague)
	a, b, c := env.store.addUser("a"), env.store.addUser("b"), env.store.addUser("c")
	m := env.store.addMatch(league.ID, a.ID, b.ID)

	updated, err := env.matches.Update(ctx, m.ID, UpdateMatchInput{User2ID: &c.ID})
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.User2ID)
	require.NoError(t, env.matches.Delete(ctx, m.ID))
}
