package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/lehigh-university-libraries/ocrstream/internal/utils"
	"github.com/lehigh-university-libraries/ocrstream/pkg/upload"
)

// ErrNoStream is returned for a successful response that carries no body.
var ErrNoStream = errors.New("response has no readable body")

// Model field names used by the different backend versions.
const (
	FieldModelName     = "model_name"
	FieldSelectedModel = "selected_model"
)

// HTTPError is a non-2xx answer. Message is the backend's "error" field,
// empty when the body was not the expected JSON.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error: %d - %s", e.StatusCode, e.Body)
}

// Request is one submission.
type Request struct {
	Candidate    *upload.Candidate
	Instructions string
	Model        string
	RequestID    string
}

// Client posts files to the OCR endpoint.
type Client struct {
	Endpoint string
	// ModelField names the form field carrying the model; empty omits it.
	ModelField string
	HTTP       *http.Client
}

// New creates a client. No timeout is set: a response may stream for as long
// as the model keeps writing.
func New(endpoint, modelField string) *Client {
	return &Client{
		Endpoint:   endpoint,
		ModelField: modelField,
		HTTP:       &http.Client{},
	}
}

// Submit sends the request and returns the open response body. The caller
// must close it.
func (c *Client) Submit(ctx context.Context, r Request) (io.ReadCloser, error) {
	if r.Candidate == nil {
		return nil, errors.New("no file to submit")
	}

	body, contentType, err := c.encode(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return nil, utils.MaskSensitiveError(err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain, application/json")
	if r.RequestID != "" {
		req.Header.Set("X-Request-ID", r.RequestID)
	}

	slog.Info("Submitting file",
		"endpoint", utils.MaskSensitiveData(c.Endpoint),
		"file", r.Candidate.Name,
		"mime_type", r.Candidate.MimeType,
		"model", r.Model,
		"request_id", r.RequestID,
	)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, utils.MaskSensitiveError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readHTTPError(resp)
	}

	if resp.Body == nil || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, ErrNoStream
	}

	return resp.Body, nil
}

func (c *Client) encode(r Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(r.Candidate.Name)))
	header.Set("Content-Type", r.Candidate.MimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}

	f, err := r.Candidate.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", r.Candidate.Name, err)
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", r.Candidate.Name, err)
	}

	if err := w.WriteField("instructions", r.Instructions); err != nil {
		return nil, "", fmt.Errorf("failed to write instructions: %w", err)
	}
	if c.ModelField != "" && r.Model != "" {
		if err := w.WriteField(c.ModelField, r.Model); err != nil {
			return nil, "", fmt.Errorf("failed to write model: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func readHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	e := &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       TruncateBody(body),
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = strings.TrimSpace(payload.Error)
	}
	return e
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// TruncateBody truncates a response body to a maximum length for error messages.
// Default maxLen is 500 if not specified.
func TruncateBody(body []byte, maxLen ...int) string {
	limit := 500
	if len(maxLen) > 0 && maxLen[0] > 0 {
		limit = maxLen[0]
	}
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "... (truncated)"
	}
	return s
}
