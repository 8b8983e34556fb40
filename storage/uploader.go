package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for object keys that are empty or escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит файлы матчей по ключу и отдаёт их публичный URL.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete удаляет объект; отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
