// Package server exposes the prediction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/abhisek/stresslens/internal/app"
)

// Server is the HTTP front end. Handlers share the App and keep no state of
// their own.
type Server struct {
	app    *app.App
	logger *zap.Logger
	engine *gin.Engine
}

// New builds the router for a.
func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
		engine: gin.New(),
	}

	s.engine.Use(
		requestID(),
		observe(s.logger),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			s.logger.Error("panic in handler",
				zap.Any("panic", recovered),
				zap.String("request_id", c.GetString(requestIDKey)),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}),
	)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/predict", s.predict)
	r.POST("/predict/score", s.predictScore)
	r.POST("/analyze", s.analyze)

	r.POST("/chat", s.chat)
	r.POST("/insight", s.insightText)
	r.POST("/insight/prediction", s.insightPrediction)
	r.POST("/insight/recommendation", s.insightRecommendation)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown grace.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.Config.Server
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("grace", cfg.ShutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
