package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/database"
	"github.com/qs3c/insta_check_server/internal/pipeline"
	"github.com/qs3c/insta_check_server/internal/pkg/ai"
	"github.com/qs3c/insta_check_server/internal/pkg/email"
	"github.com/qs3c/insta_check_server/internal/pkg/pubsub"
	"github.com/qs3c/insta_check_server/internal/pkg/queue"
	"github.com/qs3c/insta_check_server/internal/pkg/scraper"
	"github.com/qs3c/insta_check_server/internal/repository"
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

	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)

	// 创建步骤驱动器
	processor := pipeline.NewProcessor(
		repository.NewRequestRepository(db),
		repository.NewResultRepository(db),
		repository.NewUserRepository(db),
		scraper.NewClient(&cfg.Scraper),
		ai.NewClient(&cfg.AI),
		email.NewService(&cfg.Email),
		pubsub.NewPublisher(rdb),
		cfg,
	)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	maxWorkers := cfg.Queue.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	log.Printf("Worker started, max workers: %d", maxWorkers)

	for i := 0; i < maxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					msg, err := jobQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop job: %v", workerID, err)
						continue
					}

					if msg == nil {
						continue // 超时，继续等待
					}

					log.Printf("Worker %d: processing request %d (@%s)", workerID, msg.RequestID, msg.TargetHandle)
					runToCompletion(ctx, processor, workerID, msg.RequestID)
				}
			}
		}(i)
	}

	<-ctx.Done()
	log.Println("Worker shutdown complete")
}

// runToCompletion 反复推进步骤直到任务终态或出错
func runToCompletion(ctx context.Context, processor *pipeline.Processor, workerID int, requestID int64) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := processor.RunStep(ctx, requestID)
		if err != nil {
			log.Printf("Worker %d: request %d step failed: %v", workerID, requestID, err)
			return
		}
		if result.Done {
			log.Printf("Worker %d: request %d finished at %s", workerID, requestID, result.Step)
			return
		}
	}
}
