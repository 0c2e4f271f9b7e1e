package upload

import (
	"slices"

	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
)

// MaxSize is the largest accepted upload, 20 MiB.
const MaxSize int64 = 20 * 1024 * 1024

// AllowedTypes lists the accepted MIME types.
var AllowedTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"application/pdf",
}

// Validate accepts a candidate whose type is allowed and whose size is in
// (0, MaxSize]. Violations are returned as *failure.Error carrying the
// offending value for message interpolation.
func Validate(c *Candidate) error {
	if c == nil {
		return failure.New(failure.NoFileSelected, nil)
	}
	if !slices.Contains(AllowedTypes, c.MimeType) {
		fileType := c.MimeType
		if fileType == "" {
			fileType = "unknown"
		}
		return failure.New(failure.InvalidType, map[string]string{"fileType": fileType})
	}
	if c.Size > MaxSize {
		return failure.New(failure.TooLarge, map[string]string{"size": formatSize(c.Size)})
	}
	if c.Size <= 0 {
		return failure.New(failure.Empty, nil)
	}
	return nil
}
