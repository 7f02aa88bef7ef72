package main

import (
	"context"
	"log"

	"livepoll/config"
	"livepoll/internal/events"
	"livepoll/internal/handler"
	"livepoll/internal/redis"
	"livepoll/internal/repository"
	"livepoll/internal/server"
	"livepoll/internal/services"
	"livepoll/internal/websocket"
	"livepoll/pkg/database"
	"livepoll/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(loggerMode(cfg.AppMode))
	logger.SetGlobalLogger(l)

	// Database
	database.Connect(cfg)
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		seedCfg := database.DefaultSeedConfig()
		seedCfg.AdminEmail = cfg.AdminEmail
		seedCfg.AdminPassword = cfg.AdminPassword
		if _, err := database.SeedMinimal(seedCfg); err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
	}

	// Redis
	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	redisClient := redis.GetClient()

	publisher := redis.NewPublisher(redisClient)
	subscriber := redis.NewSubscriber(redisClient)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())
	cache := redis.NewCacheStore(redisClient, redis.DefaultCacheConfig())
	presence := redis.NewPresenceStore(redisClient, 0)

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	pollRepo := repository.NewPollRepository(database.DB)
	voteRepo := repository.NewVoteRepository(database.DB)

	// Services
	authService := services.NewAuthService(userRepo, cfg)
	pollService := services.NewPollService(pollRepo, voteRepo, publisher)
	voteService := services.NewVoteService(pollRepo, voteRepo, publisher)
	statsService := services.NewStatsService(pollRepo, voteRepo)

	// WebSocket hub and redis bridge
	hub := websocket.NewHub()
	authorizer := websocket.NewChannelAuthorizer(pollRepo)
	bridge := websocket.NewRedisBridge(subscriber, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	go func() {
		channels := []string{events.ChannelPolls, events.ChannelPrefixPoll + "*"}
		if err := bridge.Run(ctx, channels); err != nil && ctx.Err() == nil {
			l.Errorf("redis bridge stopped: %s", err)
		}
	}()

	// HTTP
	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:  handler.NewAuthHandler(authService, cache),
		Poll:  handler.NewPollHandler(pollService),
		Vote:  handler.NewVoteHandler(voteService, pollService, presence),
		Stats: handler.NewStatsHandler(statsService),
		WS:    websocket.NewHandler(authService, hub, authorizer, presence),
	}, &server.Deps{
		AuthService: authService,
		Cache:       cache,
		Limiter:     limiter,
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

func loggerMode(appMode string) string {
	if appMode == server.ReleaseMode {
		return logger.ProductionMode
	}
	return logger.DevelopmentMode
}
