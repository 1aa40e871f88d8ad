package echo

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	bookhttp "github.com/jgbooks/bookstore/go/http"
)

// NewRouter creates an echo instance serving svc. A nil logger disables
// request logging.
func NewRouter(svc *bookhttp.Service, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	if logger != nil {
		e.Use(requestLogger(logger))
	}
	Register(e.Group(""), svc)
	return e
}

// Register adds every bookstore route to g.
func Register(g *echo.Group, svc *bookhttp.Service) {
	auth := authorized(svc)

	g.GET(bookhttp.PathState, func(c echo.Context) error { return write(c, svc.State()) })
	g.GET(bookhttp.PathCatalog, func(c echo.Context) error { return write(c, svc.Catalog()) })
	g.GET(bookhttp.PathPending, func(c echo.Context) error { return write(c, svc.Pending()) })
	g.GET(bookhttp.PathVideo, func(c echo.Context) error { return write(c, svc.Video()) })

	g.POST(bookhttp.PathResync, func(c echo.Context) error {
		return write(c, svc.Resync(c.Request().Context()))
	}, auth)
	g.POST(bookhttp.PathPurchase, withBody(func(c echo.Context, body []byte) bookhttp.Response {
		return svc.Purchase(c.Request().Context(), body)
	}), auth)
	g.POST(bookhttp.PathClaim, func(c echo.Context) error {
		return write(c, svc.Claim(c.Request().Context()))
	}, auth)
	g.POST(bookhttp.PathAdmin, withBody(func(c echo.Context, body []byte) bookhttp.Response {
		return svc.Admin(c.Request().Context(), body)
	}), auth)
	g.POST(bookhttp.PathMetadata, withBody(func(c echo.Context, body []byte) bookhttp.Response {
		return svc.SaveMetadata(c.Request().Context(), body)
	}), auth)
	g.PUT(bookhttp.PathVideo, withBody(func(c echo.Context, body []byte) bookhttp.Response {
		return svc.SetVideo(c.Request().Context(), body)
	}), auth)
	g.POST(strings.Replace(bookhttp.PathUpload, "{id}", ":id", 1), func(c echo.Context) error {
		file, err := c.FormFile(bookhttp.FormFieldImage)
		if err != nil {
			return write(c, bookhttp.BadRequest(err))
		}
		f, err := file.Open()
		if err != nil {
			return write(c, bookhttp.BadRequest(err))
		}
		defer f.Close()
		return write(c, svc.Upload(c.Request().Context(), c.Param("id"), file.Filename, f))
	}, auth)
}

func authorized(svc *bookhttp.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if resp := svc.Authorize(c.Request().Header.Get(bookhttp.HeaderAPIKey)); resp != nil {
				return write(c, *resp)
			}
			return next(c)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}

func withBody(handle func(c echo.Context, body []byte) bookhttp.Response) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
		if err != nil {
			return write(c, bookhttp.BadRequest(err))
		}
		return write(c, handle(c, body))
	}
}

func write(c echo.Context, resp bookhttp.Response) error {
	if resp.Status == 0 {
		resp.Status = 200
	}
	return c.JSON(resp.Status, resp.Body)
}
