// Package httpapi serves the public share-link endpoints: the landing page a
// link URL points at and a redirect to the file's signed download URL.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// LinkService is the part of the storage facade the link endpoints need.
type LinkService interface {
	OpenLink(ctx context.Context, token, password string) (*services.LinkView, error)
	DownloadURL(ctx context.Context, access services.Access, entryID int64) (string, error)
}

type HTTPServer struct {
	address string
	links   LinkService
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, links LinkService) *HTTPServer {
	s := &HTTPServer{
		address: a,
		links:   links,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.router()
	return s
}

func (s *HTTPServer) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	share := router.Group("/share")
	{
		share.GET("/:token", s.GetShare)
		share.GET("/:token/download", s.DownloadShare)
	}

	return router
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
