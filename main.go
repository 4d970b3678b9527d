package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/aimoney/aimoney-api/config"
	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/middleware"
	"github.com/aimoney/aimoney-api/models"
	"github.com/aimoney/aimoney-api/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Init(cfg.GoEnv, cfg.LogLevel)
	defer logger.Sync()
	log := logger.L()

	log.Info("Starting AI MONEY API server...", zap.String("env", cfg.GoEnv))

	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migration completed successfully")

	shutdownTracing, err := middleware.InitTracing(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	ctx := context.Background()

	chatModel, err := services.NewGeminiChatModel(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, services.LectureAssistantPrompt)
	if err != nil {
		if !errors.Is(err, services.ErrChatNotConfigured) {
			log.Fatal("Failed to initialize chat model", zap.Error(err))
		}
		log.Warn("GEMINI_API_KEY not set, chat is disabled")
	}

	sink, producer, err := newTranscriptSink(cfg)
	if err != nil {
		log.Fatal("Failed to initialize transcript sink", zap.Error(err))
	}
	transcripts := services.NewTranscriptDispatcher(sink, services.DefaultDispatcherOptions)

	deps := routerDeps{
		cfg:         cfg,
		db:          db,
		tokens:      services.NewTokenService(cfg.JWTSecret, cfg.SessionIssuer, cfg.SessionAudience, cfg.SessionTTL),
		gateway:     services.NewTossGateway(cfg.TossSecretKey, cfg.TossBaseURL),
		transcripts: transcripts,
		sheet:       services.NewSheetClient(cfg.SheetWebhookURL),
	}
	// a nil *GeminiChatModel must stay a nil interface
	if chatModel != nil {
		deps.chat = chatModel
	}

	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize S3 service", zap.Error(err))
		}
		deps.images = services.NewS3ImageService(s3Service)
		log.Info("Image uploads stored in S3", zap.String("bucket", cfg.AWSS3Bucket))
	} else {
		local := services.NewLocalImageService(filepath.Clean(cfg.UploadDir), cfg.PublicURL+"/api/v1/uploads")
		deps.images = local
		deps.localImages = local
		log.Info("Image uploads stored on local disk", zap.String("dir", cfg.UploadDir))
	}

	router := setupRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// drain transcripts after the last request finished
	if err := transcripts.Close(shutdownCtx); err != nil {
		log.Warn("Transcript queue not fully drained", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}

	log.Info("Server exited")
}

// newTranscriptSink picks Kafka, then the chat log webhook, then plain logging.
// The producer is returned so main can close it.
func newTranscriptSink(cfg *config.Config) (services.TranscriptSink, sarama.SyncProducer, error) {
	switch {
	case len(cfg.KafkaBrokers) > 0:
		producer, err := services.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, nil, err
		}
		return services.NewKafkaTranscriptSink(producer, cfg.KafkaTranscriptTopic), producer, nil
	case cfg.ChatLogWebhookURL != "":
		return services.NewSheetTranscriptSink(services.NewSheetClient(cfg.ChatLogWebhookURL)), nil, nil
	default:
		logger.L().Warn("No transcript sink configured, chat transcripts are only logged")
		return services.LogTranscriptSink{}, nil, nil
	}
}
