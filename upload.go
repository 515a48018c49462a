package vikasyatra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// MediaUploader stores a local file somewhere the backend can fetch it from
// and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ============================================================================
// Cloudinary
// ============================================================================

const DefaultCloudinaryEndpoint = "https://api.cloudinary.com/v1_1"

// CloudinaryUploader posts unsigned uploads with an upload preset.
type CloudinaryUploader struct {
	CloudName  string
	Preset     string
	Endpoint   string
	HTTPClient *http.Client
}

func NewCloudinaryUploader(cloudName, preset string) *CloudinaryUploader {
	return &CloudinaryUploader{
		CloudName:  cloudName,
		Preset:     preset,
		Endpoint:   DefaultCloudinaryEndpoint,
		HTTPClient: &http.Client{Timeout: 5 * DefaultTimeout},
	}
}

// cloudinaryResource maps a content type to the upload resource type.
func cloudinaryResource(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "audio"), strings.HasPrefix(contentType, "video"):
		return "video"
	case contentType == "application/pdf":
		return "raw"
	default:
		return "image"
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if u.CloudName == "" || u.Preset == "" {
		return "", fmt.Errorf("cloudinary cloud name and upload preset are required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("upload_preset", u.Preset); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := strings.TrimRight(u.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultCloudinaryEndpoint
	}
	url := fmt.Sprintf("%s/%s/%s/upload", endpoint, u.CloudName, cloudinaryResource(contentType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	hc := u.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	var res struct {
		SecureURL string `json:"secure_url"`
		Error     *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&res)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "upload failed"
		if res.Error != nil && res.Error.Message != "" {
			msg = res.Error.Message
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("upload returned no secure_url")
	}
	return res.SecureURL, nil
}

// ============================================================================
// Google Cloud Storage
// ============================================================================

// GCSUploader writes objects to a bucket and returns their public URL.
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSUploader(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing bucket name")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, prefix: prefix}, nil
}

// objectKey namespaces uploads so two files with the same name never collide.
func (g *GCSUploader) objectKey(name string) string {
	return path.Join(g.prefix, uuid.NewString()+"-"+path.Base(name))
}

func (g *GCSUploader) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)
}

func (g *GCSUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key := g.objectKey(name)
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return g.PublicURL(key), nil
}

func (g *GCSUploader) Close() error {
	return g.client.Close()
}
