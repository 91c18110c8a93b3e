package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/pkg/ai"
	"github.com/qs3c/insta_check_server/internal/pkg/pubsub"
	"github.com/qs3c/insta_check_server/internal/pkg/scraper"
	"github.com/qs3c/insta_check_server/internal/repository"
)

// ScraperClient 抓取服务的访问接口
type ScraperClient interface {
	GetProfile(ctx context.Context, handle string) (*scraper.Profile, error)
	GetFollowers(ctx context.Context, handle string, limit int) ([]scraper.Account, error)
	GetFollowing(ctx context.Context, handle string, limit int) ([]scraper.Account, error)
	GetProfilesBatch(ctx context.Context, handles []string) ([]scraper.Profile, error)
}

// AIClient 分类服务的访问接口
type AIClient interface {
	AnalyzeAccount(ctx context.Context, input *ai.Input) (*ai.Result, error)
}

// Notifier 完成通知，发送失败不影响任务
type Notifier interface {
	SendAnalysisComplete(to, targetHandle, resultURL string) error
}

// ProgressPublisher 进度推送
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// CollectStats collect 阶段的汇总统计
type CollectStats struct {
	TotalFollowers int `json:"total_followers"`
	MutualFollows  int `json:"mutual_follows"`
	PublicCount    int `json:"public_count"`
	PrivateCount   int `json:"private_count"`
}

// BatchProgress 批处理阶段的进度
type BatchProgress struct {
	BatchIndex   int `json:"batch_index"`
	TotalBatches int `json:"total_batches"`
	Progress     int `json:"progress"`
}

// StepResult 一次阶段调用的返回
type StepResult struct {
	Step          string         `json:"step"`
	Done          bool           `json:"done"`
	Stats         *CollectStats  `json:"stats,omitempty"`
	BatchProgress *BatchProgress `json:"batch_progress,omitempty"`
}

// Processor 阶段驱动器。每次 RunStep 都是独立的 读取-执行-落库 循环，
// 进程内不保存任务状态，可以被接口调用和 worker 同时安全驱动。
type Processor struct {
	requestRepo *repository.RequestRepository
	resultRepo  *repository.ResultRepository
	userRepo    *repository.UserRepository
	scraper     ScraperClient
	ai          AIClient
	notifier    Notifier
	publisher   ProgressPublisher
	cfg         *config.Config
}

func NewProcessor(
	requestRepo *repository.RequestRepository,
	resultRepo *repository.ResultRepository,
	userRepo *repository.UserRepository,
	scraperClient ScraperClient,
	aiClient AIClient,
	notifier Notifier,
	publisher ProgressPublisher,
	cfg *config.Config,
) *Processor {
	return &Processor{
		requestRepo: requestRepo,
		resultRepo:  resultRepo,
		userRepo:    userRepo,
		scraper:     scraperClient,
		ai:          aiClient,
		notifier:    notifier,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// RunStep 推进任务一个阶段（批处理阶段推进一个批次）。
// 终态任务直接返回 done=true，不做任何写入。
func (p *Processor) RunStep(ctx context.Context, requestID int64) (*StepResult, error) {
	request, err := p.requestRepo.GetByIDWithUser(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}

	// 终态守卫
	if request.Status == "completed" || request.Status == "failed" {
		return &StepResult{Step: request.CurrentStage, Done: true}, nil
	}

	// 旧阶段名在加载时迁移，下一次落库时持久化
	request.CurrentStage = MigrateLegacyStage(request.CurrentStage)

	version := request.LockVersion

	var result *StepResult
	switch request.CurrentStage {
	case StagePending, StageCollect:
		result, err = p.handleCollect(ctx, request, version)
	case StageProfiles:
		result, err = p.handleProfiles(ctx, request, version)
	case StageAnalyze:
		result, err = p.handleAnalyze(ctx, request, version)
	case StageFinalize:
		result, err = p.handleFinalize(ctx, request, version)
	default:
		err = fmt.Errorf("unknown stage: %s", request.CurrentStage)
	}

	if err != nil {
		// 并发冲突不算任务失败，另一个调用已经推进了状态
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, err
		}
		p.markFailed(ctx, request, err)
		return nil, err
	}

	return result, nil
}

// commit 按乐观锁提交阶段写入
func (p *Processor) commit(request *model.AnalysisRequest, version int64) error {
	return p.requestRepo.UpdateStageCAS(request, version)
}

// markFailed 处理器层面的兜底：任何阶段异常都把任务置为失败
func (p *Processor) markFailed(ctx context.Context, request *model.AnalysisRequest, cause error) {
	log.Printf("Request %d failed at stage %s: %v", request.ID, request.CurrentStage, cause)

	fields := map[string]interface{}{
		"status":        "failed",
		"current_stage": StageFailed,
		"error_message": cause.Error(),
	}
	if err := p.requestRepo.UpdateFields(request.ID, fields); err != nil {
		log.Printf("Request %d: failed to persist failure: %v", request.ID, err)
	}

	p.publishProgress(ctx, request, "failed", StageFailed, 0, "", cause.Error())
}

// publishProgress 进度推送，尽力而为
func (p *Processor) publishProgress(ctx context.Context, request *model.AnalysisRequest, status, stage string, progress int, message, errMsg string) {
	if p.publisher == nil {
		return
	}
	err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		UserID:    request.UserID,
		RequestID: request.ID,
		Status:    status,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Error:     errMsg,
	})
	if err != nil {
		log.Printf("Request %d: failed to publish progress: %v", request.ID, err)
	}
}

// notifyCompletion 完成通知，失败只记日志
func (p *Processor) notifyCompletion(request *model.AnalysisRequest) {
	if p.notifier == nil || request.User == nil || request.User.Email == nil {
		return
	}
	resultURL := fmt.Sprintf("%s/analyses/%d/result", p.cfg.Server.BaseURL, request.ID)
	if err := p.notifier.SendAnalysisComplete(*request.User.Email, request.TargetHandle, resultURL); err != nil {
		log.Printf("Request %d: failed to send completion email: %v", request.ID, err)
	}
}

func nowPtr() *time.Time {
	now := time.Now()
	return &now
}
