package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("secret124", hash))
}

func TestImageExtension(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.gif", "e.bmp", "f.WebP"} {
		_, ok := ImageExtension(name)
		assert.True(t, ok, name)
	}
	for _, name := range []string{"a.pdf", "b", "c.png.exe", ".env"} {
		_, ok := ImageExtension(name)
		assert.False(t, ok, name)
	}

	ext, _ := ImageExtension("Shot.PNG")
	assert.Equal(t, ".png", ext)
	assert.Equal(t, "image/png", ContentTypeForExtension(ext))
	assert.Equal(t, "application/octet-stream", ContentTypeForExtension(".txt"))
}
