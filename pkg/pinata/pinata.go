package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	bookstore "github.com/jgbooks/bookstore/go"
)

const (
	// DefaultEndpoint is the pinning service file upload URL
	DefaultEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

	// DefaultGateway resolves pinned content hashes
	DefaultGateway = "https://gateway.pinata.cloud/ipfs/"

	// DefaultTimeout bounds a single upload
	DefaultTimeout = 60 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	formFieldFile       = "file"
	formFieldMetadata   = "pinataMetadata"
)

// Config configures the uploader
type Config struct {
	JWT      string
	Endpoint string
	Gateway  string
	Timeout  time.Duration
}

// Uploader pins files and returns their gateway URL.
type Uploader struct {
	jwt        string
	endpoint   string
	gateway    string
	HTTPClient *http.Client
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// NewUploader creates an uploader. The JWT is required.
func NewUploader(config Config) (*Uploader, error) {
	if strings.TrimSpace(config.JWT) == "" {
		return nil, fmt.Errorf("pinata jwt is required")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Gateway == "" {
		config.Gateway = DefaultGateway
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if !strings.HasSuffix(config.Gateway, "/") {
		config.Gateway += "/"
	}

	return &Uploader{
		jwt:        config.JWT,
		endpoint:   config.Endpoint,
		gateway:    config.Gateway,
		HTTPClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Upload sends r as a multipart file and returns the gateway URL of the pin.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("filename is required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile(formFieldFile, filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	metadata, err := json.Marshal(map[string]string{"name": filename})
	if err != nil {
		return "", fmt.Errorf("failed to marshal pin metadata: %w", err)
	}
	if err := form.WriteField(formFieldMetadata, string(metadata)); err != nil {
		return "", fmt.Errorf("failed to write pin metadata: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerContentType, form.FormDataContentType())
	req.Header.Set(headerAuthorization, "Bearer "+u.jwt)

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("failed to upload %s: %s: %s", filename, resp.Status, strings.TrimSpace(string(detail)))
	}

	var pin pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if pin.IpfsHash == "" {
		return "", fmt.Errorf("upload response has no content hash")
	}

	return u.gateway + pin.IpfsHash, nil
}

var _ bookstore.Uploader = (*Uploader)(nil)
