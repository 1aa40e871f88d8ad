package stdlib

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	bookhttp "github.com/jgbooks/bookstore/go/http"
)

// NewHandler returns a net/http handler serving svc. A nil logger disables
// request logging.
func NewHandler(svc *bookhttp.Service, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if logger != nil {
		r.Use(requestLogger(logger))
	}
	Mount(r, svc)
	return r
}

// Mount adds every bookstore route to r.
func Mount(r chi.Router, svc *bookhttp.Service) {
	r.Get(bookhttp.PathState, func(w http.ResponseWriter, _ *http.Request) { write(w, svc.State()) })
	r.Get(bookhttp.PathCatalog, func(w http.ResponseWriter, _ *http.Request) { write(w, svc.Catalog()) })
	r.Get(bookhttp.PathPending, func(w http.ResponseWriter, _ *http.Request) { write(w, svc.Pending()) })
	r.Get(bookhttp.PathVideo, func(w http.ResponseWriter, _ *http.Request) { write(w, svc.Video()) })

	r.Group(func(r chi.Router) {
		r.Use(authorized(svc))

		r.Post(bookhttp.PathResync, func(w http.ResponseWriter, req *http.Request) {
			write(w, svc.Resync(req.Context()))
		})
		r.Post(bookhttp.PathPurchase, withBody(svc.Purchase))
		r.Post(bookhttp.PathClaim, func(w http.ResponseWriter, req *http.Request) {
			write(w, svc.Claim(req.Context()))
		})
		r.Post(bookhttp.PathAdmin, withBody(svc.Admin))
		r.Post(bookhttp.PathMetadata, withBody(svc.SaveMetadata))
		r.Put(bookhttp.PathVideo, withBody(svc.SetVideo))
		r.Post(bookhttp.PathUpload, func(w http.ResponseWriter, req *http.Request) {
			file, header, err := req.FormFile(bookhttp.FormFieldImage)
			if err != nil {
				write(w, bookhttp.BadRequest(err))
				return
			}
			defer file.Close()
			write(w, svc.Upload(req.Context(), chi.URLParam(req, "id"), header.Filename, file))
		})
	})
}

func authorized(svc *bookhttp.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resp := svc.Authorize(r.Header.Get(bookhttp.HeaderAPIKey)); resp != nil {
				write(w, *resp)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("latency", time.Since(start)),
			)
		})
	}
}

type bodyHandler func(ctx context.Context, body []byte) bookhttp.Response

func withBody(handle bodyHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			write(w, bookhttp.BadRequest(err))
			return
		}
		write(w, handle(r.Context(), body))
	}
}

func write(w http.ResponseWriter, resp bookhttp.Response) {
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
