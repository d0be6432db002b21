// Package media stores attached images and returns the URL they are served at.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "opsboard/internal/errors"
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// DiskUploader writes images under dir with generated names.
type DiskUploader struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *zap.Logger
}

func NewDiskUploader(dir, baseURL string, maxBytes int64, logger *zap.Logger) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	return &DiskUploader{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

func (u *DiskUploader) Dir() string {
	return u.dir
}

var errTooLarge = errors.New("image exceeds size limit")

func (u *DiskUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", apperrors.NewValidationError("unsupported image type", apperrors.ValidationDetail{
			Field:   "image",
			Message: fmt.Sprintf("extension %q is not an accepted image type", ext),
		})
	}

	fileName := uuid.NewString() + ext
	path := filepath.Join(u.dir, fileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}

	n, err := copyLimited(ctx, f, r, u.maxBytes)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, errTooLarge) {
			return "", apperrors.NewValidationError("image too large", apperrors.ValidationDetail{
				Field:   "image",
				Message: fmt.Sprintf("image must be at most %d bytes", u.maxBytes),
			})
		}
		return "", fmt.Errorf("writing image file: %w", err)
	}

	url := u.baseURL + "/" + fileName
	u.logger.Info("image stored", zap.String("file", fileName), zap.Int64("bytes", n))
	return url, nil
}

func copyLimited(ctx context.Context, dst io.Writer, src io.Reader, limit int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if limit <= 0 {
		return io.Copy(dst, src)
	}
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, errTooLarge
	}
	return n, nil
}
