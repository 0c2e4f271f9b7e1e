package upload

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
)

// Preview summarises a candidate for display.
type Preview struct {
	Name   string
	Size   string
	Icon   string
	Width  int
	Height int
}

// Describe builds the preview for c. Images must decode far enough to report
// their dimensions; an unreadable image is reported as failure.UnreadableImage.
func Describe(c *Candidate) (Preview, error) {
	p := Preview{
		Name: c.Name,
		Size: formatSize(c.Size),
	}

	switch {
	case c.IsPDF():
		p.Icon = "picture_as_pdf"
		return p, nil
	case c.IsImage():
		p.Icon = "image"
	default:
		return p, nil
	}

	r, err := c.Open()
	if err != nil {
		return p, failure.Wrap(failure.UnreadableImage, err)
	}
	defer r.Close()

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return p, failure.Wrap(failure.UnreadableImage, err)
	}
	p.Width = cfg.Width
	p.Height = cfg.Height

	return p, nil
}

// Dimensions returns "WxH" or an empty string for documents.
func (p Preview) Dimensions() string {
	if p.Width == 0 && p.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
