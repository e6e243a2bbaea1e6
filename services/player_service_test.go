package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playerFixture struct {
	svc      *playerService
	players  *fakePlayerRepo
	users    *fakeUserRepo
	uploader *fakeUploader
}

func newPlayerFixture() *playerFixture {
	f := &playerFixture{
		players:  newFakePlayerRepo(),
		users:    newFakeUserRepo(),
		uploader: &fakeUploader{},
	}
	f.svc = NewPlayerService(f.players, f.users, f.uploader, discardLogger()).(*playerService)
	f.svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return f
}

func TestCreatePlayer(t *testing.T) {
	f := newPlayerFixture()
	ctx := context.Background()

	player, err := f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: " Anna "})
	require.NoError(t, err)
	assert.Equal(t, "Anna", player.Name)
	assert.Equal(t, 1, player.OwnerID)

	_, err = f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: "Anna"})
	assert.ErrorIs(t, err, ErrPlayerNameConflict)

	_, err = f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: ""})
	assert.ErrorIs(t, err, ErrPlayerNameRequired)

	_, err = f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: "Linked", UserID: ptr(42)})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePlayerLinkedToUser(t *testing.T) {
	f := newPlayerFixture()
	ctx := context.Background()

	user := &models.User{Username: "anna", Email: "anna@example.com"}
	require.NoError(t, f.users.Create(ctx, user))

	player, err := f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: "Anna", UserID: &user.ID})
	require.NoError(t, err)
	require.NotNil(t, player.UserID)
	assert.Equal(t, user.ID, *player.UserID)
}

func TestUpdateAndDeletePlayer(t *testing.T) {
	f := newPlayerFixture()
	ctx := context.Background()

	player, err := f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: "Anna"})
	require.NoError(t, err)

	_, err = f.svc.UpdatePlayer(ctx, 2, player.ID, UpdatePlayerInput{Name: ptr("Hijack")})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	updated, err := f.svc.UpdatePlayer(ctx, 1, player.ID, UpdatePlayerInput{Name: ptr("Anna K.")})
	require.NoError(t, err)
	assert.Equal(t, "Anna K.", updated.Name)

	f.players.inUse[player.ID] = true
	assert.ErrorIs(t, f.svc.DeletePlayer(ctx, 1, player.ID), ErrPlayerInUse)

	f.players.inUse[player.ID] = false
	require.NoError(t, f.svc.DeletePlayer(ctx, 1, player.ID))
	_, err = f.svc.GetPlayer(ctx, 1, player.ID)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSearchPlayers(t *testing.T) {
	f := newPlayerFixture()
	ctx := context.Background()

	for _, name := range []string{"Alexander", "Alex", "Bob", "Sasha"} {
		_, err := f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: name})
		require.NoError(t, err)
	}

	found, err := f.svc.SearchPlayers(ctx, 1, "ALEX")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Alex", found[0].Name)
	assert.Equal(t, "Alexander", found[1].Name)
}

func TestUploadPlayerImage(t *testing.T) {
	f := newPlayerFixture()
	ctx := context.Background()

	player, err := f.svc.CreatePlayer(ctx, 1, CreatePlayerInput{Name: "Anna"})
	require.NoError(t, err)

	updated, err := f.svc.UploadPlayerImage(ctx, 1, player.ID, strings.NewReader("jpg"), "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, "https://cdn.test/players/1/1700000000.jpg", *updated.ImageURL)
	assert.Empty(t, f.uploader.deleted)

	listed, err := f.svc.ListPlayers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].ImageURL)
}
