package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stencild/stencild/handlers"
	"github.com/stencild/stencild/internal/archive"
	"github.com/stencild/stencild/internal/config"
	"github.com/stencild/stencild/internal/database"
	"github.com/stencild/stencild/internal/seed"
	"github.com/stencild/stencild/internal/storage"
	"github.com/stencild/stencild/internal/templates"
	"github.com/stencild/stencild/internal/tokens"
	"github.com/stencild/stencild/internal/users"
	"github.com/stencild/stencild/pkg/logger"
	"github.com/stencild/stencild/pkg/metrics"
	"github.com/stencild/stencild/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v seed=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Seed.Enabled)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the revocation store and rate limiter can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Token revocation store: shared via Redis when available, otherwise
	// process-local (logouts then only bind the instance that handled them).
	var revocations tokens.RevocationStore
	if redisClient != nil {
		revocations = tokens.NewRedisRevocations(redisClient)
	} else {
		logger.Warnf("using in-memory token revocation store; logout will not propagate across instances")
		revocations = tokens.NewMemoryRevocations()
	}
	tokensSvc := tokens.NewService(cfg.JWT, revocations)

	// MongoDB-backed repositories. Without MongoDB the service falls back to
	// in-memory storage.
	var mongoClient *mongo.Client
	var usersSvc *users.Service
	var tplSvc *templates.Service
	var archiveStore *archive.Store
	if cfg.MongoDB.URI != "" {
		client, err := database.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Warnf("%v", err)
		} else {
			mongoClient = client
		}
	}
	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(ctx) }()
		db := mongoClient.Database(cfg.MongoDB.Database)
		usersSvc = users.NewService(users.NewMongoRepository(db.Collection("users")))
		tplSvc = templates.NewService(templates.NewMongoRepository(db.Collection("templates")))
		archiveStore = archive.NewStore(db.Collection("renders"))
	} else {
		logger.Warnf("MongoDB unavailable; using in-memory repositories")
		usersSvc = users.NewService(users.NewMemoryRepository())
		tplSvc = templates.NewService(templates.NewMemoryRepository())
	}

	// Object storage for archived render output (optional)
	var renderStore *storage.RenderStore
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		rs, err := storage.NewRenderStore(mcfg)
		if err != nil {
			logger.Warnf("render storage unavailable: %v", err)
		} else {
			renderStore = rs
			logger.Infof("render storage ready (bucket %s)", mcfg.Bucket)
		}
	}

	if cfg.Seed.Enabled {
		if err := seed.Run(ctx, cfg.Seed, usersSvc, tplSvc); err != nil {
			logger.Errorf("seeding failed: %v", err)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the configured dependencies are reachable
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongo"] = mongoClient != nil
		if cfg.MongoDB.URI != "" && mongoClient == nil {
			ready = false
		}
		deps["redis"] = redisClient != nil
		if cfg.Redis.Host != "" && redisClient == nil {
			ready = false
		}

		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	api := r.Group("/api", middleware.Authenticate(tokensSvc, usersSvc))
	handlers.NewAuthHandler(usersSvc, tokensSvc).Register(api)
	handlers.NewTemplatesHandler(tplSvc, renderStore, archiveStore).Register(api)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting stencild on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
