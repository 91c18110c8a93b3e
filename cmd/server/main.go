package main

import (
	"context"
	"fmt"
	"log"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/api"
	"github.com/qs3c/insta_check_server/internal/api/handler"
	"github.com/qs3c/insta_check_server/internal/database"
	"github.com/qs3c/insta_check_server/internal/pipeline"
	"github.com/qs3c/insta_check_server/internal/pkg/ai"
	"github.com/qs3c/insta_check_server/internal/pkg/cron"
	"github.com/qs3c/insta_check_server/internal/pkg/email"
	"github.com/qs3c/insta_check_server/internal/pkg/oauth"
	"github.com/qs3c/insta_check_server/internal/pkg/oss"
	"github.com/qs3c/insta_check_server/internal/pkg/payment"
	"github.com/qs3c/insta_check_server/internal/pkg/pubsub"
	"github.com/qs3c/insta_check_server/internal/pkg/queue"
	"github.com/qs3c/insta_check_server/internal/pkg/scraper"
	"github.com/qs3c/insta_check_server/internal/pkg/snapshot"
	"github.com/qs3c/insta_check_server/internal/pkg/ws"
	"github.com/qs3c/insta_check_server/internal/repository"
	"github.com/qs3c/insta_check_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化 Queue 和 WebSocket Hub
	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
	wsHub := ws.NewHub()

	// Redis 进度消息转发到 WebSocket
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.ProgressMessage) {
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to push progress to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil {
			log.Printf("Progress subscriber stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	resultRepo := repository.NewResultRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	quotaService := service.NewQuotaService(userRepo, cfg)
	analysisService := service.NewAnalysisService(
		requestRepo, resultRepo, userRepo, quotaService, jobQueue, snapshotUploader(ossClient, cfg), cfg,
	)
	paymentService := service.NewPaymentService(
		paymentRepo, userRepo, analysisService, payment.NewClient(&cfg.Payment), cfg,
	)

	// 接口驱动模式下直接推进分析步骤
	processor := pipeline.NewProcessor(
		requestRepo, resultRepo, userRepo,
		scraper.NewClient(&cfg.Scraper),
		ai.NewClient(&cfg.AI),
		email.NewService(&cfg.Email),
		pubsub.NewPublisher(rdb),
		cfg,
	)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService, oauth.NewStateStore(rdb))
	userHandler := handler.NewUserHandler(authService, quotaService)
	analysisHandler := handler.NewAnalysisHandler(analysisService, processor)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 后台定时任务
	cronService := cron.NewService(requestRepo, paymentRepo, 0, 0)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		analysisHandler,
		paymentHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// snapshotUploader OSS 未配置时退回本地磁盘存储
func snapshotUploader(client *oss.Client, cfg *config.Config) service.SnapshotUploader {
	if client != nil {
		return client
	}
	if cfg.Analysis.SnapshotDir != "" {
		return snapshot.NewLocalStore(cfg.Analysis.SnapshotDir, cfg.Server.BaseURL)
	}
	return nil
}
