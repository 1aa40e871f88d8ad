// Package http provides the framework-neutral HTTP surface of a bookstore client.
// Router adapters live in pkg/gin, pkg/echo and pkg/stdlib; they decode the
// request, call a Service method and write the returned Response as JSON.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	bookstore "github.com/jgbooks/bookstore/go"
)

// Route paths shared by every adapter
const (
	PathState    = "/api/state"
	PathCatalog  = "/api/catalog"
	PathPending  = "/api/pending"
	PathResync   = "/api/resync"
	PathPurchase = "/api/purchase"
	PathClaim    = "/api/claim"
	PathAdmin    = "/api/admin"
	PathMetadata = "/api/metadata"
	PathUpload   = "/api/metadata/{id}/image"
	PathVideo    = "/api/video"

	// HeaderAPIKey carries the key for mutating routes
	HeaderAPIKey = "X-API-Key"

	// FormFieldImage is the multipart field of an uploaded cover
	FormFieldImage = "image"

	// MaxUploadBytes bounds an uploaded cover
	MaxUploadBytes = 10 << 20
)

// Response is a status code and a JSON-encodable body.
type Response struct {
	Status int
	Body   interface{}
}

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	ItemID  uint64   `json:"itemId,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Service serves bookstore operations over HTTP.
type Service struct {
	client *bookstore.Client
	apiKey string
	logger *slog.Logger
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithAPIKey requires key on mutating routes
func WithAPIKey(key string) ServiceOption {
	return func(s *Service) {
		s.apiKey = strings.TrimSpace(key)
	}
}

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service for client.
func NewService(client *bookstore.Client, opts ...ServiceOption) *Service {
	s := &Service{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying client
func (s *Service) Client() *bookstore.Client {
	return s.client
}

// Authorize checks the key sent with a mutating request. Without a configured
// key every request is allowed.
func (s *Service) Authorize(key string) *Response {
	if s.apiKey == "" || key == s.apiKey {
		return nil
	}
	return &Response{
		Status: http.StatusUnauthorized,
		Body:   ErrorBody{Error: "invalid api key", Code: "unauthorized"},
	}
}

// State returns the current snapshot.
func (s *Service) State() Response {
	return ok(s.stateView(s.client.Snapshot()))
}

// Catalog returns every tracked item.
func (s *Service) Catalog() Response {
	native, token := s.client.Decimals()
	entries := s.client.Catalog()
	items := make([]CatalogItemView, 0, len(entries))
	for _, e := range entries {
		items = append(items, newCatalogItemView(e, native, token))
	}
	return ok(items)
}

// Pending returns the in-flight purchases.
func (s *Service) Pending() Response {
	pending := s.client.Pending()
	views := make([]PendingView, 0, len(pending))
	for _, p := range pending {
		views = append(views, PendingView{
			ItemID:    uint64(p.ItemID),
			Path:      string(p.Path),
			AttemptID: p.AttemptID,
			StartedAt: p.StartedAt,
		})
	}
	return ok(views)
}

// Resync re-reads everything from the ledger.
func (s *Service) Resync(ctx context.Context) Response {
	return ok(s.stateView(s.client.Resync(ctx, bookstore.ScopeAll(), bookstore.ReasonManual)))
}

// Purchase buys an item.
func (s *Service) Purchase(ctx context.Context, body []byte) Response {
	var req PurchaseRequest
	if resp := decode(SchemaPurchase, body, &req); resp != nil {
		return *resp
	}
	id, err := bookstore.ParseItemID(req.ItemID)
	if err != nil {
		return s.fail(err)
	}
	path, err := bookstore.ParsePath(req.Path)
	if err != nil {
		return s.fail(err)
	}

	outcome, err := s.client.Purchase(ctx, id, path)
	if err != nil {
		return s.fail(err)
	}
	return ok(PurchaseResponse{
		ItemID:  uint64(id),
		Path:    string(path),
		Outcome: string(outcome),
		State:   s.stateView(s.client.Snapshot()),
	})
}

// Claim mints faucet tokens to the caller.
func (s *Service) Claim(ctx context.Context) Response {
	receipt, err := s.client.Claim(ctx)
	if err != nil {
		return s.fail(err)
	}
	return ok(ReceiptResponse{Receipt: receipt, State: s.stateView(s.client.Snapshot())})
}

// Admin runs an administrative command.
func (s *Service) Admin(ctx context.Context, body []byte) Response {
	var req AdminRequest
	if resp := decode(SchemaAdmin, body, &req); resp != nil {
		return *resp
	}

	admin := s.client.Admin()
	var (
		receipt *bookstore.Receipt
		err     error
	)
	switch bookstore.AdminCommand(req.Command) {
	case bookstore.CommandSetPrice:
		receipt, err = admin.SetPriceFromInput(ctx, req.ItemID, req.NativePrice, req.TokenPrice)
	case bookstore.CommandWithdrawNative:
		receipt, err = admin.WithdrawNative(ctx)
	case bookstore.CommandWithdrawToken:
		receipt, err = admin.WithdrawToken(ctx)
	case bookstore.CommandSetTokenContract:
		receipt, err = admin.SetTokenContract(ctx, req.Token)
	}
	if err != nil {
		return s.fail(err)
	}
	return ok(ReceiptResponse{Receipt: receipt, State: s.stateView(s.client.Snapshot())})
}

// SaveMetadata stores a display name for an item.
func (s *Service) SaveMetadata(ctx context.Context, body []byte) Response {
	var req MetadataRequest
	if resp := decode(SchemaMetadata, body, &req); resp != nil {
		return *resp
	}
	meta, err := s.client.SaveItemMetadata(ctx, req.ItemID, req.Name)
	if err != nil {
		return s.fail(err)
	}
	return ok(meta)
}

// Upload stores a cover image for the item named by idText.
func (s *Service) Upload(ctx context.Context, idText, filename string, r io.Reader) Response {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return BadRequest(fmt.Errorf("read image: %w", err))
	}
	if len(data) > MaxUploadBytes {
		return BadRequest(fmt.Errorf("image exceeds %d bytes", MaxUploadBytes))
	}
	meta, err := s.client.UploadCover(ctx, idText, filename, bytes.NewReader(data))
	if err != nil {
		return s.fail(err)
	}
	return ok(meta)
}

// Video returns the saved video link and its embeddable form.
func (s *Service) Video() Response {
	link := s.client.VideoLink()
	return ok(VideoView{Link: link, EmbedURL: bookstore.VideoEmbedURL(link)})
}

// SetVideo saves the video link.
func (s *Service) SetVideo(_ context.Context, body []byte) Response {
	var req VideoRequest
	if resp := decode(SchemaVideo, body, &req); resp != nil {
		return *resp
	}
	if err := s.client.SetVideoLink(req.Link); err != nil {
		return s.fail(err)
	}
	return s.Video()
}

// BadRequest builds a 400 response for adapter-level decoding failures.
func BadRequest(err error) Response {
	return Response{
		Status: http.StatusBadRequest,
		Body:   ErrorBody{Error: err.Error(), Code: bookstore.ErrCodeInvalidInput},
	}
}

func (s *Service) fail(err error) Response {
	status := StatusFor(err)
	body := ErrorBody{Error: err.Error()}

	var berr *bookstore.Error
	if errors.As(err, &berr) {
		body.Code = berr.Code
		body.ItemID = uint64(berr.ItemID)
		if berr.Message != "" {
			body.Error = berr.Message
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.Int("status", status), slog.Any("err", err))
	}
	return Response{Status: status, Body: body}
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	var berr *bookstore.Error
	if !errors.As(err, &berr) {
		return http.StatusInternalServerError
	}
	switch berr.Code {
	case bookstore.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case bookstore.ErrCodeNotConnected:
		return http.StatusUnauthorized
	case bookstore.ErrCodeInsufficientBalance:
		return http.StatusPaymentRequired
	case bookstore.ErrCodeNotAdmin:
		return http.StatusForbidden
	case bookstore.ErrCodePurchasePending, bookstore.ErrCodeAborted:
		return http.StatusConflict
	case bookstore.ErrCodePriceUnknown:
		return http.StatusUnprocessableEntity
	case bookstore.ErrCodeSnapshotFailed:
		return http.StatusServiceUnavailable
	case bookstore.ErrCodeTxRejected, bookstore.ErrCodeTxFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func ok(body interface{}) Response {
	return Response{Status: http.StatusOK, Body: body}
}
