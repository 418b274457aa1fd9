package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/zubairAhmed777/yt-downldr/internal/config"
	"github.com/zubairAhmed777/yt-downldr/internal/fetch"
	"github.com/zubairAhmed777/yt-downldr/internal/utils"
)

// Server is the HTTP facade over the fetch capability. The download
// directory and fetcher are injected so tests can use a temp dir and a
// fake.
type Server struct {
	cfg     config.Config
	fetcher fetch.Fetcher
	engine  *gin.Engine
	server  *http.Server
	logger  zerolog.Logger
}

func New(cfg config.Config, fetcher fetch.Fetcher) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  utils.GetLogger("server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.loggingMiddleware())
	// The browser extension calls from arbitrary origins.
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/diag", s.handleDiag)
	engine.POST("/download", s.handleDownload)
	engine.GET("/download", s.handleDownloadQuery)
	engine.POST("/api/predict/download", s.handlePredictDownload)
	engine.GET("/file/*path", s.handleFile)
	// /file=<path> does not fit a route pattern, so it lands in NoRoute.
	engine.NoRoute(s.handleLegacyFile)

	s.engine = engine
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	if err := utils.EnsureDir(s.cfg.DownloadDir); err != nil {
		return fmt.Errorf("error creating download directory: %v", err)
	}
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Port),
		Handler:     s.engine,
		ReadTimeout: 30 * time.Second,
		// No write timeout: downloads can take minutes.
		IdleTimeout: 120 * time.Second,
	}
	s.logger.Info().Msgf("Listening on port %d, download directory %s", s.cfg.Port, s.cfg.DownloadDir)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
