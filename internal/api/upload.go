package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MaxUploadSize is the largest image the upload service accepts.
const MaxUploadSize = 5 << 20

// Uploader posts screenshots and ID images to the image store and returns
// their public URL.
type Uploader struct {
	url        string
	username   func() string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewUploader creates an uploader for the service at url. username is
// resolved on every upload and namespaces the stored files.
func NewUploader(url string, username func() string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		url:      url,
		username: username,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type uploadResponse struct {
	Status   bool   `json:"status"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

// UploadFile reads the image at path and uploads it.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > MaxUploadSize {
		return "", &ValidationError{Field: "image", Message: "Image must be 5MB or smaller"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return u.Upload(ctx, filepath.Base(path), data)
}

// Upload sends data as a multipart image. Non-image content and oversize
// files are rejected before any request is made.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) > MaxUploadSize {
		return "", &ValidationError{Field: "image", Message: "Image must be 5MB or smaller"}
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", &ValidationError{Field: "image", Message: "Please upload an image file"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("writing form file: %w", err)
	}
	if err := w.WriteField("username", u.username()); err != nil {
		return "", fmt.Errorf("writing username field: %w", err)
	}
	if err := w.WriteField("prompt", "screenshot"); err != nil {
		return "", fmt.Errorf("writing prompt field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &buf)
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	u.logger.DebugContext(ctx, "uploading image",
		slog.String("filename", filename),
		slog.Int("size", len(data)),
		slog.String("content_type", contentType),
	)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Method: http.MethodPost, Path: u.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Method: http.MethodPost, Path: u.url, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{Method: http.MethodPost, Path: u.url, Status: resp.StatusCode}
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	if !out.Status || out.Response == "" {
		return "", &APIError{Status: resp.StatusCode, Message: firstNonEmpty(out.Message, "Upload failed")}
	}
	return out.Response, nil
}
