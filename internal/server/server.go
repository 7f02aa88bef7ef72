package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livepoll/config"
	"livepoll/internal/handler"
	"livepoll/internal/middleware"
	"livepoll/internal/redis"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"
	"livepoll/internal/websocket"
	"livepoll/pkg/database"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// Handlers bundles every HTTP handler the route table needs.
type Handlers struct {
	Auth  *handler.AuthHandler
	Poll  *handler.PollHandler
	Vote  *handler.VoteHandler
	Stats *handler.StatsHandler
	WS    *websocket.Handler
}

// Deps carries the cross-cutting pieces the middleware chain needs.
type Deps struct {
	AuthService *services.AuthService
	Cache       *redis.CacheStore
	Limiter     *redis.RateLimiter
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, deps *Deps) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))
	if deps.Limiter != nil {
		s.engine.Use(middleware.RateLimitMiddleware(deps.Limiter))
	}

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authRequired := middleware.AuthMiddleware(deps.AuthService, deps.Cache)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/refresh", handlers.Auth.Refresh)
		auth.POST("/logout", authRequired, handlers.Auth.Logout)
		auth.POST("/logout-all", authRequired, handlers.Auth.LogoutAll)
	}

	polls := s.engine.Group("/v1/polls", authRequired)
	{
		polls.GET("", handlers.Poll.List)
		polls.POST("", handlers.Poll.Create)
		polls.GET("/mine", handlers.Poll.ListMine)
		polls.GET("/:id", handlers.Poll.GetByID)
		polls.PATCH("/:id", handlers.Poll.Update)
		polls.DELETE("/:id", handlers.Poll.Delete)
		polls.PUT("/:id/completion", handlers.Poll.SetCompletion)

		polls.GET("/:id/results", handlers.Vote.Results)
		polls.GET("/:id/votes", handlers.Vote.ListByPoll)

		vote := polls.Group("/:id/vote")
		if deps.Limiter != nil {
			vote.Use(middleware.VoteRateLimitMiddleware(deps.Limiter))
		}
		{
			vote.GET("", handlers.Vote.MyVote)
			vote.POST("", handlers.Vote.Cast)
			vote.PUT("", handlers.Vote.Change)
			vote.DELETE("", handlers.Vote.Remove)
		}
	}

	votes := s.engine.Group("/v1/votes", authRequired)
	{
		votes.GET("/mine", handlers.Vote.ListMine)
	}

	admin := s.engine.Group("/v1/admin", authRequired)
	{
		admin.GET("/stats", handlers.Stats.Overview)
	}

	// Token arrives as a query parameter; the handler authenticates itself.
	s.engine.GET("/v1/ws", handlers.WS.Connect)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
