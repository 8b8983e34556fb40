package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/static/uploads", nil)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := u.Upload(ctx, "matches/3/user_1/screenshot_a.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/matches/3/user_1/screenshot_a.png", res.Location)

	data, err := os.ReadFile(filepath.Join(dir, "matches", "3", "user_1", "screenshot_a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, u.Delete(ctx, res.Key))
	_, err = os.Stat(filepath.Join(dir, "matches", "3", "user_1", "screenshot_a.png"))
	assert.True(t, os.IsNotExist(err))

	// повторное удаление не ошибка
	assert.NoError(t, u.Delete(ctx, res.Key))
}

func TestLocalUploaderRejectsEscapingKeys(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "/static/uploads", nil)
	require.NoError(t, err)

	for _, key := range []string{"", "../secret.png", "/etc/passwd", "a/../../b.png"} {
		_, err := u.Upload(context.Background(), key, "image/png", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalUploaderHonoursCancelledContext(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/files", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = u.Upload(ctx, "a.png", "image/png", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestJoinPublicURL(t *testing.T) {
	u := &cloudflareR2Uploader{publicBaseURL: "https://cdn.example.com/media/"}
	assert.Equal(t, "https://cdn.example.com/media/matches/1/a.png", u.GetPublicURL("/matches/1/a.png"))
	assert.Equal(t, "", u.GetPublicURL(""))
}
