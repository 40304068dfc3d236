// Package images wraps the external image-hosting service. Deleting an
// image is best effort; CRUD operations that own an image must not fail
// when cleanup does.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"
)

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader, folder string) (Image, error)
	Delete(ctx context.Context, publicID string) error
}

type httpUploader struct {
	baseURL string
	client  *http.Client
}

func NewHTTPUploader() Uploader {
	base := os.Getenv("IMAGE_SERVICE_URL")
	if base == "" {
		base = "http://localhost:9000"
	}
	return &httpUploader{
		baseURL: base,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (u *httpUploader) Upload(ctx context.Context, filename string, r io.Reader, folder string) (Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Image{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Image{}, fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return Image{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Image{}, fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", &body)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("image service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Image{}, fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	var img Image
	if err := json.NewDecoder(resp.Body).Decode(&img); err != nil {
		return Image{}, fmt.Errorf("failed to decode image service response: %w", err)
	}
	return img, nil
}

func (u *httpUploader) Delete(ctx context.Context, publicID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		u.baseURL+"/images/"+url.PathEscape(publicID), nil)
	if err != nil {
		return err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("image service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("image service returned status %d", resp.StatusCode)
	}
	return nil
}
