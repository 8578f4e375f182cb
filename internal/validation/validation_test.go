package validation

import (
	"strings"
	"testing"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/stretchr/testify/assert"
)

func image(size int64) *models.MediaAsset {
	return &models.MediaAsset{FileName: "img", FileType: "image/png", FileSize: size}
}

func video(size int64) *models.MediaAsset {
	return &models.MediaAsset{FileName: "clip", FileType: "video/mp4", FileSize: size}
}

func document(size int64) *models.MediaAsset {
	return &models.MediaAsset{FileName: "deck", FileType: "application/pdf", FileSize: size}
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("hello"))
	assert.NoError(t, ValidateContent(strings.Repeat("é", MaxContentLength)))

	assert.ErrorIs(t, ValidateContent(""), ErrInvalidContent)
	assert.ErrorIs(t, ValidateContent("  \n\t"), ErrInvalidContent)
	assert.ErrorIs(t, ValidateContent(strings.Repeat("a", MaxContentLength+1)), ErrInvalidContent)
}

func TestValidateMedia(t *testing.T) {
	nine := make([]*models.MediaAsset, 0, 10)
	for i := 0; i < MaxImages; i++ {
		nine = append(nine, image(1024))
	}

	tests := []struct {
		name  string
		media []*models.MediaAsset
		want  error
	}{
		{"no media", nil, nil},
		{"nine images", nine, nil},
		{"ten images", append(append([]*models.MediaAsset{}, nine...), image(1024)), ErrInvalidMedia},
		{"gif image", []*models.MediaAsset{{FileType: "image/gif", FileSize: 10}}, ErrInvalidMedia},
		{"image too large", []*models.MediaAsset{image(MaxImageSize + 1)}, ErrInvalidMedia},
		{"video", []*models.MediaAsset{video(MaxVideoSize)}, nil},
		{"video too large", []*models.MediaAsset{video(MaxVideoSize + 1)}, ErrInvalidMedia},
		{"two videos", []*models.MediaAsset{video(1), video(1)}, ErrInvalidMedia},
		{"document", []*models.MediaAsset{document(MaxDocumentSize)}, nil},
		{"document too large", []*models.MediaAsset{document(MaxDocumentSize + 1)}, ErrInvalidMedia},
		{"unknown type", []*models.MediaAsset{{FileType: "application/zip", FileSize: 1}}, ErrInvalidMedia},
		{"video and image", []*models.MediaAsset{video(1), image(1)}, ErrIncompatibleMediaCombination},
		{"document and image", []*models.MediaAsset{document(1), image(1)}, ErrIncompatibleMediaCombination},
		{"document and video", []*models.MediaAsset{document(1), video(1)}, ErrIncompatibleMediaCombination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMedia(tt.media)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidatePost_ContentCheckedFirst(t *testing.T) {
	err := ValidatePost("", []*models.MediaAsset{video(1), image(1)})
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.NotErrorIs(t, err, ErrIncompatibleMediaCombination)
}

func TestValidatePost_MessageMentionsPlatform(t *testing.T) {
	err := ValidatePost("text", []*models.MediaAsset{video(1), image(1)})
	assert.EqualError(t, err, "incompatible media combination: cannot post both video and images simultaneously on LinkedIn")
}
