// Package api exposes the trade store and metrics aggregator over HTTP.
package api

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/attachments"
	"trade-journal-go/internal/auth"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/storage"
)

// Server wires the router, store, and external collaborators.
type Server struct {
	Engine   *gin.Engine
	store    storage.Store
	verifier auth.Verifier
	uploader attachments.Uploader
	cfg      *config.Config
	logger   *zap.Logger
}

// NewServer builds the gin engine with logging, recovery, CORS, and all
// journal routes. verifier may be nil when auth is disabled; uploader may be
// nil when attachments are disabled.
func NewServer(cfg *config.Config, store storage.Store, verifier auth.Verifier, uploader attachments.Uploader, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		Engine:   engine,
		store:    store,
		verifier: verifier,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}

	engine.Use(s.requestLogger())
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	protected := engine.Group("/")
	if cfg.Auth.Enabled {
		protected.Use(s.requireAuth())
	}

	protected.GET("/trades", s.listTrades)
	protected.POST("/trades", s.createTrade)
	protected.PUT("/trades/:id", s.updateTrade)
	protected.DELETE("/trades/:id", s.deleteTrade)
	protected.POST("/trades/:id/attachment", s.uploadAttachment)

	engine.GET("/trades/:id/analytics", s.tradeAnalytics)
	engine.GET("/analytics/summary", s.strategySummary)
	engine.GET("/analytics/stats", s.stats)
	engine.GET("/analytics/greeks", s.optionGreeks)
	engine.GET("/health", s.health)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	if cfg.Server.WebDir != "" {
		engine.StaticFile("/", filepath.Join(cfg.Server.WebDir, "index.html"))
		engine.Static("/static", filepath.Join(cfg.Server.WebDir, "static"))
	}

	return s
}

// requestLogger logs method, path, status and latency for every request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// requireAuth rejects requests without a valid bearer credential. The
// decision to enforce auth is made once at startup from configuration.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		principal, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}
		c.Set("principal", principal)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
