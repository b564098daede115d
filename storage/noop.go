package storage

import (
	"context"
	"errors"
	"io"
)

var ErrUploadsDisabled = errors.New("file uploads are not configured")

type noopUploader struct{}

// NewNoopUploader возвращает заглушку для инсталляций без настроенного R2:
// загрузка логотипа отвечает ошибкой, остальное молчит.
func NewNoopUploader() FileUploader {
	return noopUploader{}
}

func (noopUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	return nil, ErrUploadsDisabled
}

func (noopUploader) Delete(ctx context.Context, key string) error {
	return nil
}

func (noopUploader) GetPublicURL(key string) string {
	return ""
}
