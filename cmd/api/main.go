package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"kasa-pos/internal/cart"
	"kasa-pos/internal/chat"
	"kasa-pos/internal/event"
	"kasa-pos/internal/handler"
	"kasa-pos/internal/metrics"
	"kasa-pos/internal/middleware"
	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/service"
	"kasa-pos/internal/ws"
	"kasa-pos/pkg/config"
	"kasa-pos/pkg/database"
	"kasa-pos/pkg/jwt"
	"kasa-pos/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.LoadEnv()

	zlog := logger.New(logger.Config{
		IsDevelopment: cfg.Server.AppEnv != "production",
		Encoding:      cfg.Logger.Encoding,
		Level:         cfg.Logger.Level,
		FileEnable:    cfg.Logger.FileEnable,
		Filename:      cfg.Logger.Filename,
	})
	defer zlog.Sync()

	loc := cfg.Store.Location()
	zlog.Info("Starting kasa-pos", zap.String("env", cfg.Server.AppEnv), zap.String("store_tz", loc.String()))

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Postgres, zlog)
	if err != nil {
		zlog.Fatal("Database unavailable", zap.Error(err))
	}
	if err := db.AutoMigrate(model.Tables...); err != nil {
		zlog.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// 3. Realtime fan-out: websocket hub, optionally mirrored to kafka
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := ws.NewHub(zlog.Named("ws"))
	go wsHub.Run(ctx)

	publishers := []event.Publisher{wsHub, event.Log(zlog.Named("event"))}
	var kafkaPub *event.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub = event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog.Named("kafka"))
		publishers = append(publishers, kafkaPub)
	}
	events := event.Fanout(publishers...)

	// 4. Cart store: redis when configured, process memory otherwise
	carts := cart.NewMemoryStore()
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zlog.Warn("Redis unreachable, keeping carts in memory", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			redisClient.Close()
			redisClient = nil
		} else {
			carts = cart.NewRedisStore(redisClient, cfg.Redis.CartTTL)
			zlog.Info("Carts stored in redis", zap.String("addr", cfg.Redis.Addr))
		}
		pingCancel()
	}

	// 5. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 6. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	thresholdRepo := repository.NewThresholdRepo(db)
	userRepo := repository.NewUserRepo(db)

	signer := jwt.NewSigner(cfg.JWT.SecretKey, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	authService := service.NewAuthService(userRepo, signer, zlog)
	catalogService := service.NewCatalogService(productRepo, db, events, zlog)
	thresholdService := service.NewThresholdService(thresholdRepo, events, zlog)
	salesService := service.NewSalesService(productRepo, saleRepo, carts, db, events, m, zlog)
	stockService := service.NewStockService(productRepo, thresholdRepo)
	dashService := service.NewDashboardService(saleRepo, loc, cfg.Store.TopN)
	chatClient := chat.NewClient(cfg.Chat.WebhookURL, cfg.Chat.APIKey, cfg.Chat.Timeout, loc)
	assistantService := service.NewAssistantService(chatClient, m, zlog)
	userService := service.NewUserService(userRepo, zlog)

	if created, err := authService.EnsureAdmin(ctx, cfg.JWT.AdminUsername, cfg.JWT.AdminPassword); err != nil {
		zlog.Warn("Failed to seed admin user", zap.Error(err))
	} else if created {
		zlog.Info("Admin user created", zap.String("username", cfg.JWT.AdminUsername))
	}

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Products:  handler.NewProductHandler(catalogService),
		Threshold: handler.NewThresholdHandler(thresholdService),
		Sales:     handler.NewSalesHandler(salesService, dashService),
		Stock:     handler.NewStockHandler(stockService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Assistant: handler.NewAssistantHandler(assistantService),
		Users:     handler.NewUserHandler(userService),
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Kasa POS v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	requireAuth := middleware.RequireAuth(authService)
	handler.RegisterRoutes(app, handlers, requireAuth)

	// WebSocket Route (token via ?token= on the handshake)
	app.Use("/ws", requireAuth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zlog.Panic("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			zlog.Warn("Kafka writer close failed", zap.Error(err))
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zlog.Info("Server exited")
}
