package gallery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const maxImageBytes = 10 << 20

type UploadResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// UploadImage stores a base64 image, given bare or as a data URL, under
// gallery/<imageType>/<unix>-<name> and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, imageType, data, fileName string) (*UploadResult, error) {
	if imageType != "before" && imageType != "after" {
		return nil, fmt.Errorf("%w: image type must be before or after", ErrInvalidInput)
	}
	if data == "" || fileName == "" {
		return nil, fmt.Errorf("%w: Image data and filename are required", ErrInvalidInput)
	}
	if s.images == nil {
		return nil, ErrStorageUnavailable
	}

	raw, contentType, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	name := sanitizeFileName(fileName)
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if contentType == "" {
		contentType = http.DetectContentType(raw)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s is not an image", ErrInvalidInput, contentType)
	}

	path := fmt.Sprintf("gallery/%s/%d-%s", imageType, s.now().Unix(), name)
	if err := s.images.Upload(ctx, s.bucket, path, bytes.NewReader(raw), contentType); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	slog.InfoContext(ctx, "gallery image uploaded", "path", path, "bytes", len(raw))
	return &UploadResult{URL: s.images.GetPublicURL(s.bucket, path), Path: path}, nil
}

// decodeImage accepts "data:<type>;base64,<payload>" or a bare payload.
func decodeImage(data string) ([]byte, string, error) {
	var contentType string
	payload := data
	if strings.HasPrefix(data, "data:") {
		header, rest, ok := strings.Cut(data, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: malformed data URL", ErrInvalidInput)
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		payload = rest
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("%w: image data is not valid base64", ErrInvalidInput)
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}
	if len(raw) > maxImageBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, maxImageBytes)
	}
	return raw, contentType, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "image"
	}
	return out
}
