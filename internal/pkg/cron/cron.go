package cron

import (
	"log"
	"time"

	"github.com/qs3c/insta_check_server/internal/repository"
)

const (
	defaultStaleTimeout   = 30 * time.Minute
	defaultPendingTimeout = 24 * time.Hour
)

// Service 后台定时任务：卡死任务回收 + 超期未支付记录清理
type Service struct {
	requestRepo    *repository.RequestRepository
	paymentRepo    *repository.PaymentRepository
	staleTimeout   time.Duration
	pendingTimeout time.Duration
	stopChan       chan struct{}
}

func NewService(
	requestRepo *repository.RequestRepository,
	paymentRepo *repository.PaymentRepository,
	staleTimeout time.Duration,
	pendingTimeout time.Duration,
) *Service {
	if staleTimeout <= 0 {
		staleTimeout = defaultStaleTimeout
	}
	if pendingTimeout <= 0 {
		pendingTimeout = defaultPendingTimeout
	}
	return &Service{
		requestRepo:    requestRepo,
		paymentRepo:    paymentRepo,
		staleTimeout:   staleTimeout,
		pendingTimeout: pendingTimeout,
		stopChan:       make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runStaleSweep()
	go s.runPendingCleanup()
	log.Println("Cron service started (stale sweep + pending cleanup)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runStaleSweep 每 5 分钟回收一次卡死的任务
func (s *Service) runStaleSweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.SweepStale()
		}
	}
}

// SweepStale 把长时间没有推进的 processing 任务标记为失败
func (s *Service) SweepStale() int {
	if s.requestRepo == nil {
		return 0
	}

	before := time.Now().Add(-s.staleTimeout)
	stale, err := s.requestRepo.ListStaleProcessing(before)
	if err != nil {
		log.Printf("Stale sweep: failed to list requests: %v", err)
		return 0
	}

	swept := 0
	for _, request := range stale {
		err := s.requestRepo.UpdateFields(request.ID, map[string]interface{}{
			"status":        "failed",
			"current_stage": "failed",
			"error_message": "分析超时，请重新发起",
		})
		if err != nil {
			log.Printf("Stale sweep: failed to mark request %d: %v", request.ID, err)
			continue
		}
		log.Printf("Stale sweep: request %d marked failed (stuck at %s)", request.ID, request.CurrentStage)
		swept++
	}
	return swept
}

// runPendingCleanup 每小时清理一次超期未支付记录
func (s *Service) runPendingCleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.CleanupPending()
		}
	}
}

// CleanupPending 删除超期未支付的分析意向
func (s *Service) CleanupPending() int64 {
	if s.paymentRepo == nil {
		return 0
	}

	before := time.Now().Add(-s.pendingTimeout)
	deleted, err := s.paymentRepo.DeleteExpiredPending(before)
	if err != nil {
		log.Printf("Pending cleanup: failed to delete records: %v", err)
		return 0
	}
	if deleted > 0 {
		log.Printf("Pending cleanup: removed %d expired records", deleted)
	}
	return deleted
}
