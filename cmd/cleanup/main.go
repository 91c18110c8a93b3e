package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/repository"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, don't actually modify records")
	staleMinutes  = flag.Int("stale-minutes", 30, "Minutes after which a processing request counts as stuck")
	pendingHours  = flag.Int("pending-hours", 24, "Hours to keep unpaid pending records")
	sweepStale    = flag.Bool("sweep-stale", true, "Mark stuck processing requests as failed")
	purgePending  = flag.Bool("purge-pending", true, "Delete expired unpaid pending records")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *sweepStale {
		log.Printf("Sweeping processing requests stuck for more than %d minutes...", *staleMinutes)
		sweepStaleRequests(db, *staleMinutes, *dryRun)
	}

	if *purgePending {
		log.Printf("Purging unpaid pending records older than %d hours...", *pendingHours)
		purgeExpiredPending(db, *pendingHours, *dryRun)
	}

	if *dryRun {
		log.Println("DRY RUN MODE - no records were modified")
		log.Println("Run with -dry-run=false to apply changes")
	} else {
		log.Println("Cleanup completed")
	}
}

// sweepStaleRequests 把卡死的 processing 任务标记为失败
func sweepStaleRequests(db *gorm.DB, staleMinutes int, dryRun bool) {
	requestRepo := repository.NewRequestRepository(db)
	before := time.Now().Add(-time.Duration(staleMinutes) * time.Minute)

	stale, err := requestRepo.ListStaleProcessing(before)
	if err != nil {
		log.Printf("Failed to list stale requests: %v", err)
		return
	}

	for _, request := range stale {
		log.Printf("  - request %d (@%s, stuck at %s since %s)",
			request.ID, request.TargetHandle, request.CurrentStage,
			request.UpdatedAt.Format(time.RFC3339))

		if dryRun {
			continue
		}
		err := requestRepo.UpdateFields(request.ID, map[string]interface{}{
			"status":        "failed",
			"current_stage": "failed",
			"error_message": "分析超时，请重新发起",
		})
		if err != nil {
			log.Printf("    failed to mark request %d: %v", request.ID, err)
		}
	}
	log.Printf("Found %d stuck requests", len(stale))
}

// purgeExpiredPending 删除超期未支付的分析意向
func purgeExpiredPending(db *gorm.DB, pendingHours int, dryRun bool) {
	before := time.Now().Add(-time.Duration(pendingHours) * time.Hour)

	if dryRun {
		var count int64
		db.Model(&model.PendingAnalysis{}).
			Where("status = ? AND created_at < ?", "awaiting_payment", before).
			Count(&count)
		log.Printf("Found %d expired pending records", count)
		return
	}

	deleted, err := repository.NewPaymentRepository(db).DeleteExpiredPending(before)
	if err != nil {
		log.Printf("Failed to delete pending records: %v", err)
		return
	}
	log.Printf("Deleted %d expired pending records", deleted)
}

// connectDB 连接数据库
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
