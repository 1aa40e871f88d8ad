package stdlib_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookstore "github.com/jgbooks/bookstore/go"
	bookhttp "github.com/jgbooks/bookstore/go/http"
	"github.com/jgbooks/bookstore/go/pkg/metastore"
	"github.com/jgbooks/bookstore/go/pkg/stdlib"
	"github.com/jgbooks/bookstore/go/test/mocks/ledger"
)

const (
	apiKey    = "test-key"
	buyerAddr = "0x4444444444444444444444444444444444444444"
)

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return "https://gateway.example/ipfs/" + filename + "-" + string(data), nil
}

func newHandler(t *testing.T) (http.Handler, *ledger.Ledger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	l := ledger.New(
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
	)
	l.SetPrice(2, big.NewInt(1000), big.NewInt(2000))

	client := bookstore.NewClient(l,
		bookstore.WithLogger(logger),
		bookstore.WithMetadataStore(metastore.NewMemory(nil)),
		bookstore.WithUploader(stubUploader{}),
	)
	client.Connect(context.Background(), l.Wallet(buyerAddr))
	svc := bookhttp.NewService(client, bookhttp.WithAPIKey(apiKey), bookhttp.WithLogger(logger))
	return stdlib.NewHandler(svc, logger), l
}

func do(t *testing.T, h http.Handler, method, path, key string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key != "" {
		req.Header.Set(bookhttp.HeaderAPIKey, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ReadRoutes(t *testing.T) {
	h, _ := newHandler(t)

	rec := do(t, h, http.MethodGet, bookhttp.PathState, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state bookhttp.StateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Connected)
	assert.Equal(t, "1000", state.Quotes["2"].Native.Raw)

	rec = do(t, h, http.MethodGet, bookhttp.PathCatalog, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []bookhttp.CatalogItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 3)

	rec = do(t, h, http.MethodGet, bookhttp.PathPending, "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_MutatingRoutesRequireKey(t *testing.T) {
	h, l := newHandler(t)

	rec := do(t, h, http.MethodPost, bookhttp.PathPurchase, "", bytes.NewBufferString(`{"itemId":"2","path":"native"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, l.Writes())

	rec = do(t, h, http.MethodPost, bookhttp.PathPurchase, apiKey, bytes.NewBufferString(`{"itemId":"2","path":"native"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp bookhttp.PurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "purchased", resp.Outcome)
	assert.Equal(t, []string{"buyWithEth"}, l.Writes())
}

func TestRouter_ErrorStatus(t *testing.T) {
	h, _ := newHandler(t)

	rec := do(t, h, http.MethodPost, bookhttp.PathAdmin, apiKey, bytes.NewBufferString(`{"command":"withdraw_token"}`), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body bookhttp.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, bookstore.ErrCodeNotAdmin, body.Code)
}

func TestRouter_VideoAndUpload(t *testing.T) {
	h, _ := newHandler(t)

	rec := do(t, h, http.MethodPut, bookhttp.PathVideo, apiKey, bytes.NewBufferString(`{"link":"https://youtu.be/xyz"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, bookhttp.PathVideo, "", nil, "")
	var video bookhttp.VideoView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &video))
	assert.Equal(t, "https://youtu.be/xyz", video.Link)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(bookhttp.FormFieldImage, "cover.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("img"))
	require.NoError(t, mw.Close())

	rec = do(t, h, http.MethodPost, "/api/metadata/2/image", apiKey, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var meta bookstore.ItemMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "https://gateway.example/ipfs/cover.png-img", meta.ImageURL)

	rec = do(t, h, http.MethodPost, "/api/metadata/2/image", apiKey, bytes.NewBufferString("nope"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
