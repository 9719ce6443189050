package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"moonai-trainer/internal/config"
	"moonai-trainer/internal/db"
	"moonai-trainer/internal/elevenlabs"
	apihttp "moonai-trainer/internal/http"
	"moonai-trainer/internal/llm"
	"moonai-trainer/internal/repository"
	"moonai-trainer/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	sessionRepo := repository.NewPgTrainingSessionRepository(pool)

	// Clientes remotos construidos una vez e inyectados; sin singletons globales.
	llmClient := llm.NewHTTPClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	voiceClient := elevenlabs.NewHTTPClient(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, logger)

	if cfg.ElevenLabsAgentID == "" {
		logger.Warn("elevenlabs agent id not configured; session creation will fail")
	}

	promptSvc := service.NewPromptService(cfg.SystemPromptFile, logger)
	gateway := service.NewConversationGateway(voiceClient, cfg.ElevenLabsAgentID, logger)
	analysisSvc := service.NewAnalysisService(llmClient, logger)
	sessionSvc := service.NewSessionService(logger, sessionRepo, gateway, analysisSvc, promptSvc, cfg.ElevenLabsVoiceID)
	userSvc := service.NewUserService(logger, userRepo)

	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.AuthSecretKey,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	sessionHandler := apihttp.NewSessionHandler(logger, sessionSvc)
	promptHandler := apihttp.NewPromptHandler(logger, promptSvc, gateway)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, sessionHandler, promptHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
