package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Candidate is the single file selected for submission.
type Candidate struct {
	Name     string
	MimeType string
	Size     int64

	path string
	data []byte
}

// FromFile describes the file at path. The declared MIME type comes from the
// extension; content sniffing is only used when the extension is unknown.
func FromFile(path string) (*Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mimeType := declaredType(filepath.Ext(path))
	if mimeType == "" && info.Size() > 0 {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to detect type of %s: %w", path, err)
		}
		mimeType = baseType(detected.String())
	}

	return &Candidate{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     info.Size(),
		path:     path,
	}, nil
}

// FromBytes describes an in-memory file with an explicit MIME type.
func FromBytes(name, mimeType string, data []byte) *Candidate {
	return &Candidate{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		data:     data,
	}
}

// Open returns the candidate's content.
func (c *Candidate) Open() (io.ReadCloser, error) {
	if c.path != "" {
		return os.Open(c.path)
	}
	return io.NopCloser(bytes.NewReader(c.data)), nil
}

// IsPDF reports whether the candidate is a PDF document.
func (c *Candidate) IsPDF() bool {
	return c.MimeType == "application/pdf"
}

// IsImage reports whether the candidate is an image.
func (c *Candidate) IsImage() bool {
	return strings.HasPrefix(c.MimeType, "image/")
}

func declaredType(ext string) string {
	switch strings.ToLower(ext) {
	case "":
		return ""
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return baseType(mime.TypeByExtension(strings.ToLower(ext)))
}

// baseType strips parameters such as "; charset=utf-8".
func baseType(t string) string {
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return mediaType
}
