// Package validation checks post content and media against the LinkedIn
// publishing limits.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/postqueue/internal/models"
)

const (
	MaxContentLength = 3000
	MaxImages        = 9
	MaxImageSize     = 5 << 20
	MaxVideoSize     = 200 << 20
	MaxDocumentSize  = 100 << 20
)

var (
	ErrInvalidContent               = errors.New("invalid content")
	ErrInvalidMedia                 = errors.New("invalid media")
	ErrIncompatibleMediaCombination = errors.New("incompatible media combination")
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: post content cannot be empty", ErrInvalidContent)
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return fmt.Errorf("%w: post content exceeds %d characters (%d)", ErrInvalidContent, MaxContentLength, n)
	}
	return nil
}

func ValidateMedia(media []*models.MediaAsset) error {
	var images, videos, documents int

	for _, m := range media {
		switch m.Kind() {
		case models.MediaKindImage:
			images++
			if !imageTypes[m.FileType] {
				return fmt.Errorf("%w: image %s must be JPEG or PNG", ErrInvalidMedia, m.FileName)
			}
			if m.FileSize > MaxImageSize {
				return fmt.Errorf("%w: image %s exceeds 5MB", ErrInvalidMedia, m.FileName)
			}
		case models.MediaKindVideo:
			videos++
			if m.FileSize > MaxVideoSize {
				return fmt.Errorf("%w: video %s exceeds 200MB", ErrInvalidMedia, m.FileName)
			}
		default:
			documents++
			if !documentTypes[m.FileType] {
				return fmt.Errorf("%w: unsupported file type %s", ErrInvalidMedia, m.FileType)
			}
			if m.FileSize > MaxDocumentSize {
				return fmt.Errorf("%w: document %s exceeds 100MB", ErrInvalidMedia, m.FileName)
			}
		}
	}

	switch {
	case images > MaxImages:
		return fmt.Errorf("%w: at most %d images per post", ErrInvalidMedia, MaxImages)
	case videos > 1:
		return fmt.Errorf("%w: only one video per post", ErrInvalidMedia)
	case documents > 1:
		return fmt.Errorf("%w: only one document per post", ErrInvalidMedia)
	case videos > 0 && images > 0:
		return fmt.Errorf("%w: cannot post both video and images simultaneously on LinkedIn", ErrIncompatibleMediaCombination)
	case documents > 0 && (images > 0 || videos > 0):
		return fmt.Errorf("%w: cannot post document with images or video on LinkedIn", ErrIncompatibleMediaCombination)
	}
	return nil
}

// ValidatePost runs the content and media checks in that order.
func ValidatePost(content string, media []*models.MediaAsset) error {
	if err := ValidateContent(content); err != nil {
		return err
	}
	return ValidateMedia(media)
}
