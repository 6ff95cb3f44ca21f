package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/prepwise/config"
	"github.com/yoockh/prepwise/internal/api/handlers"
	"github.com/yoockh/prepwise/internal/api/middleware"
	"github.com/yoockh/prepwise/internal/api/routes"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/logger"
	"github.com/yoockh/prepwise/internal/prompts"
	"github.com/yoockh/prepwise/internal/providers/llm"
	"github.com/yoockh/prepwise/internal/providers/stt"
	mongorepo "github.com/yoockh/prepwise/internal/repositories/mongo"
	pgrepo "github.com/yoockh/prepwise/internal/repositories/postgres"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/storage"
	"github.com/yoockh/prepwise/internal/workers"
)

func main() {
	cfg := config.Load()
	l := logger.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init PostgreSQL
	if err := config.InitPostgres(cfg.PostgresURI, l); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if cfg.AutoMigrate {
		if err := config.Migrate(config.PostgresDB); err != nil {
			log.Fatalf("migration error: %v", err)
		}
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(cfg.RedisAddr); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// Init MongoDB
	if err := config.InitMongo(cfg.MongoURI); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(cfg.MongoDB); err != nil {
		l.WithError(err).Warn("mongo index setup failed")
	}
	l.Info("MongoDB connected")

	gcsClient, err := storage.NewGCSClient(ctx, cfg.Storage.CredentialsFile)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}
	defer gcsClient.Close()
	resumes := storage.NewGCSBucket(gcsClient, cfg.Storage.ResumeBucket)
	voices := storage.NewGCSBucket(gcsClient, cfg.Storage.VoiceBucket)

	provider := newLLM(ctx, cfg.LLM, cfg.Storage.CredentialsFile)
	defer provider.Close()

	transcriber := newSTT(ctx, cfg, l)
	if transcriber != nil {
		defer transcriber.Close()
	}

	ps, err := prompts.Default()
	if err != nil {
		log.Fatalf("prompt catalogue error: %v", err)
	}

	// repositories
	sessionRepo := pgrepo.NewSessionRepo(config.PostgresDB)
	questionRepo := pgrepo.NewQuestionRepo(config.PostgresDB)
	answerRepo := pgrepo.NewAnswerRepo(config.PostgresDB)
	reportRepo := pgrepo.NewReportRepo(config.PostgresDB)
	eventRepo := mongorepo.NewEventRepo(config.MongoClient.Database(cfg.MongoDB), cfg.EventTTL)

	rdb := config.RedisClient
	redisCache := cache.NewRedisCache(rdb).WithPrefix(cfg.CachePrefix)
	locker := cache.NewRedisLocker(rdb)
	events := services.NewEventRecorder(workers.NewRedisEventQueue(rdb, workers.DefaultEventStream), l)
	genCfg := services.GenerationConfig{CacheTTL: cfg.CacheTTL, LockTTL: cfg.LockTTL}

	// services
	sessionSvc := services.NewSessionService(sessionRepo, events)
	resumeSvc := services.NewResumeService(sessionRepo, resumes, provider, ps, events, l)
	questionSvc := services.NewQuestionService(sessionRepo, questionRepo, provider, ps, redisCache, locker, events, l, genCfg)
	answerSvc := services.NewAnswerService(sessionRepo, questionRepo, answerRepo, voices, transcriber, cfg.STT.Language, events, l)
	reportSvc := services.NewReportService(sessionRepo, questionRepo, answerRepo, reportRepo, provider, ps, redisCache, locker, events, l, genCfg)

	pool := &workers.EventWorkerPool{
		Redis:      rdb,
		Events:     eventRepo,
		Publisher:  cache.NewRedisPublisher(rdb),
		NumWorkers: 2,
		Logger:     l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("event worker error: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l))
	routes.RegisterRoutes(r, routes.Deps{
		Session:  handlers.NewSessionHandler(sessionSvc, questionSvc, answerSvc),
		Resume:   handlers.NewResumeHandler(resumeSvc, cfg.MaxResumeBytes),
		Question: handlers.NewQuestionHandler(questionSvc),
		Answer:   handlers.NewAnswerHandler(answerSvc),
		Report:   handlers.NewReportHandler(reportSvc),
		WS: handlers.NewWSHandler(sessionSvc, eventRepo, func(ctx context.Context, channel string) <-chan []byte {
			return cache.Subscribe(ctx, rdb, channel)
		}, l),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	waitErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = config.CloseMongo(closeCtx)
	_ = config.CloseRedis()
	_ = config.ClosePostgres()

	if waitErr != nil {
		l.WithError(waitErr).Error("server stopped with error")
		os.Exit(1)
	}
	l.Info("server stopped")
}

func newLLM(ctx context.Context, c config.LLMConfig, credentialsFile string) llm.Provider {
	switch c.Backend {
	case "gemini":
		if c.GeminiAPIKey == "" {
			log.Fatalf("GEMINI_API_KEY is not set")
		}
		p, err := llm.NewGeminiAPI(ctx, c.GeminiAPIKey, c.Model)
		if err != nil {
			log.Fatalf("Gemini init error: %v", err)
		}
		return p
	case "vertex":
		if c.VertexProject == "" {
			log.Fatalf("VERTEX_PROJECT_ID is not set")
		}
		p, err := llm.NewVertexGemini(ctx, c.VertexProject, c.VertexLocation, c.Model, credentialsFile)
		if err != nil {
			log.Fatalf("Vertex init error: %v", err)
		}
		return p
	case "gateway":
		if c.GatewayAPIKey == "" {
			log.Fatalf("AI_GATEWAY_API_KEY is not set")
		}
		return llm.NewGateway(c.GatewayURL, c.GatewayAPIKey, c.Model)
	default:
		log.Fatalf("unknown LLM_BACKEND %q", c.Backend)
		return nil
	}
}

// newSTT returns nil when transcription is disabled.
func newSTT(ctx context.Context, cfg *config.Config, l *logrus.Logger) stt.Provider {
	switch cfg.STT.Backend {
	case "google":
		p, err := stt.NewGoogleSpeech(ctx, cfg.Storage.CredentialsFile)
		if err != nil {
			log.Fatalf("Speech init error: %v", err)
		}
		return p
	case "gateway":
		if cfg.LLM.GatewayAPIKey == "" {
			l.Warn("AI_GATEWAY_API_KEY is not set, voice answers will not be transcribed")
			return nil
		}
		return stt.NewWhisperGateway(cfg.LLM.GatewayURL, cfg.LLM.GatewayAPIKey, "")
	case "none", "":
		return nil
	default:
		log.Fatalf("unknown STT_BACKEND %q", cfg.STT.Backend)
		return nil
	}
}
