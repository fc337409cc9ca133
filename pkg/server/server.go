// Package server exposes the consolidation handler over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DrSkyle/balanco/pkg/consolidate"
	"github.com/DrSkyle/balanco/pkg/version"
)

const maxBodyBytes = 1 << 20

// Consolidator is the handler surface the routes call.
type Consolidator interface {
	Handle(ctx context.Context, event json.RawMessage) consolidate.Response
	Consolidate(ctx context.Context, year any) consolidate.Response
}

// NewRouter builds the gin engine:
//
//	POST /consolidate        body is an invocation event ({"year": ...})
//	GET  /consolidate/:year
//	GET  /healthz
func NewRouter(h Consolidator, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(requestID(), accessLog(logger), recovery(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Current})
	})

	r.POST("/consolidate", func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable request body"})
				return
			}
		}
		if len(body) == 0 {
			body = []byte("{}")
		}
		write(c, h.Handle(c.Request.Context(), body))
	})

	r.GET("/consolidate/:year", func(c *gin.Context) {
		write(c, h.Consolidate(c.Request.Context(), c.Param("year")))
	})

	return r
}

func write(c *gin.Context, resp consolidate.Response) {
	c.Data(resp.StatusCode, "application/json; charset=utf-8", []byte(resp.Body))
}

// Run serves router on addr until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, addr string, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		)
	}
}

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
					"request_id", c.GetString("request_id"),
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Critical error: internal server error"})
			}
		}()
		c.Next()
	}
}
