package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// localUploader хранит файлы на диске; routes раздаёт каталог по publicPath.
type localUploader struct {
	rootDir    string
	publicPath string
	logger     *slog.Logger
}

func NewLocalUploader(rootDir, publicPath string, logger *slog.Logger) (FileUploader, error) {
	if rootDir == "" {
		return nil, errors.New("local upload directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", rootDir, err)
	}
	return &localUploader{rootDir: rootDir, publicPath: publicPath, logger: logger}, nil
}

func (u *localUploader) resolve(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(u.rootDir, rel), nil
}

func (u *localUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	path, err := u.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file for %s: %w", key, err)
	}

	if _, err := io.Copy(f, contextReader{ctx: ctx, r: reader}); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write file for %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to close file for %s: %w", key, err)
	}

	u.logger.Debug("file stored locally", slog.String("key", key), slog.String("content_type", contentType))
	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *localUploader) Delete(ctx context.Context, key string) error {
	path, err := u.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (u *localUploader) GetPublicURL(key string) string {
	return joinPublicURL(u.publicPath, key, u.logger)
}

// contextReader прерывает копирование при отмене контекста.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
