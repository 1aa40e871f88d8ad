package gin

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	bookhttp "github.com/jgbooks/bookstore/go/http"
)

// RouterOptions is the options for NewRouter.
type RouterOptions struct {
	Logger *slog.Logger
}

// Options is the type for the options for NewRouter.
type Options func(*RouterOptions)

// WithLogger is an option for NewRouter to log every request.
func WithLogger(logger *slog.Logger) Options {
	return func(options *RouterOptions) {
		options.Logger = logger
	}
}

// NewRouter creates a gin engine serving svc.
func NewRouter(svc *bookhttp.Service, opts ...Options) *gin.Engine {
	options := &RouterOptions{}
	for _, opt := range opts {
		opt(options)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if options.Logger != nil {
		r.Use(RequestLogger(options.Logger))
	}
	Register(r, svc)
	return r
}

// Register adds every bookstore route to r.
func Register(r gin.IRoutes, svc *bookhttp.Service) {
	r.GET(bookhttp.PathState, func(c *gin.Context) { write(c, svc.State()) })
	r.GET(bookhttp.PathCatalog, func(c *gin.Context) { write(c, svc.Catalog()) })
	r.GET(bookhttp.PathPending, func(c *gin.Context) { write(c, svc.Pending()) })
	r.GET(bookhttp.PathVideo, func(c *gin.Context) { write(c, svc.Video()) })

	r.POST(bookhttp.PathResync, authorized(svc), func(c *gin.Context) {
		write(c, svc.Resync(c.Request.Context()))
	})
	r.POST(bookhttp.PathPurchase, authorized(svc), withBody(func(c *gin.Context, body []byte) bookhttp.Response {
		return svc.Purchase(c.Request.Context(), body)
	}))
	r.POST(bookhttp.PathClaim, authorized(svc), func(c *gin.Context) {
		write(c, svc.Claim(c.Request.Context()))
	})
	r.POST(bookhttp.PathAdmin, authorized(svc), withBody(func(c *gin.Context, body []byte) bookhttp.Response {
		return svc.Admin(c.Request.Context(), body)
	}))
	r.POST(bookhttp.PathMetadata, authorized(svc), withBody(func(c *gin.Context, body []byte) bookhttp.Response {
		return svc.SaveMetadata(c.Request.Context(), body)
	}))
	r.PUT(bookhttp.PathVideo, authorized(svc), withBody(func(c *gin.Context, body []byte) bookhttp.Response {
		return svc.SetVideo(c.Request.Context(), body)
	}))
	r.POST(strings.Replace(bookhttp.PathUpload, "{id}", ":id", 1), authorized(svc), func(c *gin.Context) {
		file, err := c.FormFile(bookhttp.FormFieldImage)
		if err != nil {
			write(c, bookhttp.BadRequest(err))
			return
		}
		f, err := file.Open()
		if err != nil {
			write(c, bookhttp.BadRequest(err))
			return
		}
		defer f.Close()
		write(c, svc.Upload(c.Request.Context(), c.Param("id"), file.Filename, f))
	})
}

// RequestLogger logs method, path, status and latency of each request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func authorized(svc *bookhttp.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resp := svc.Authorize(c.GetHeader(bookhttp.HeaderAPIKey)); resp != nil {
			c.AbortWithStatusJSON(resp.Status, resp.Body)
			return
		}
		c.Next()
	}
}

func withBody(handle func(c *gin.Context, body []byte) bookhttp.Response) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			write(c, bookhttp.BadRequest(err))
			return
		}
		write(c, handle(c, body))
	}
}

func write(c *gin.Context, resp bookhttp.Response) {
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	c.JSON(resp.Status, resp.Body)
}
