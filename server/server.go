// Package server implements the hosted translation function: a thin endpoint
// that accepts the function-call payload, performs the chat completion with a
// server-side credential, and returns the canonical translation envelope. It
// exists so browser and CLI clients can translate without holding a model key.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	conlang "github.com/supastishn/conlang-translator"
	"github.com/supastishn/conlang-translator/cache"
	"github.com/supastishn/conlang-translator/resource"
)

// Server hosts the translate function behind gin.
type Server struct {
	cfg     *Config
	logger  *zap.Logger
	http    *resty.Client
	router  *gin.Engine
	prompts *conlang.PromptBuilder
}

// New creates a Server. When a materials URL is configured, prompts are
// grounded with the same reference files library clients use.
func New(cfg *Config, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	prompts := &conlang.PromptBuilder{}
	if cfg.MaterialsURL != "" {
		prompts.Resources = resource.NewLoader(cfg.MaterialsURL,
			resource.WithCache(cache.NewInMemoryCache(3600)),
			resource.WithLogger(logger),
		)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		http: resty.New().
			SetHeader("User-Agent", conlang.UserAgent()),
		prompts: prompts,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and custom servers.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run listens on the configured address until the process exits.
func (s *Server) Run() error {
	s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
	return s.router.Run(s.cfg.Addr)
}

func (s *Server) setupRoutes() {
	s.router = gin.New()

	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(gin.Recovery())

	s.router.GET("/health", s.handleHealth)
	s.router.POST("/v1/functions/translate", s.handleTranslate)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		s.logger.Info("http request",
			zap.Int("status", param.StatusCode),
			zap.String("method", param.Method),
			zap.String("path", param.Path),
			zap.String("ip", param.ClientIP),
			zap.Duration("latency", param.Latency),
		)
		return ""
	})
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
