package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

// imageTypes are the raster formats uploads may use. Vector and markup
// based formats are refused since they can carry script.
var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("file too large")
)

// SniffImage reads the whole upload, bounded by maxBytes, and checks that
// its content is a raster image. It returns the bytes and detected MIME type.
func SniffImage(r io.Reader, maxBytes int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !lo.ContainsBy(imageTypes, mt.Is) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	return data, mt.String(), nil
}

// ImageName builds the object name for a user's upload:
// posts/<uid>/<unix ms>_<file name>.
func ImageName(userID, fileName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		base = "image"
	}
	return fmt.Sprintf("posts/%s/%d_%s", userID, at.UnixMilli(), base)
}
