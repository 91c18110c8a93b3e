package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/pkg/queue"
	"github.com/qs3c/insta_check_server/internal/repository"
)

var (
	ErrInvalidHandle      = errors.New("账号格式不正确")
	ErrRequestNotFound    = errors.New("分析任务不存在")
	ErrRequestPermission  = errors.New("无权操作此分析任务")
	ErrRequestNotComplete = errors.New("分析尚未完成，无法分享")
	ErrShareNotFound      = errors.New("分享链接不存在或已失效")
)

// Instagram 账号规则：小写字母、数字、点、下划线
var handlePattern = regexp.MustCompile(`^[a-z0-9._]+$`)

// JobEnqueuer 任务入队接口
type JobEnqueuer interface {
	Push(ctx context.Context, msg *queue.JobMessage) error
}

// SnapshotUploader 分享快照上传接口
type SnapshotUploader interface {
	UploadSnapshot(requestID int64, data []byte) (string, error)
}

type AnalysisService struct {
	requestRepo  *repository.RequestRepository
	resultRepo   *repository.ResultRepository
	userRepo     *repository.UserRepository
	quotaService *QuotaService
	jobQueue     JobEnqueuer
	snapshots    SnapshotUploader
	cfg          *config.Config
}

func NewAnalysisService(
	requestRepo *repository.RequestRepository,
	resultRepo *repository.ResultRepository,
	userRepo *repository.UserRepository,
	quotaService *QuotaService,
	jobQueue JobEnqueuer,
	snapshots SnapshotUploader,
	cfg *config.Config,
) *AnalysisService {
	return &AnalysisService{
		requestRepo:  requestRepo,
		resultRepo:   resultRepo,
		userRepo:     userRepo,
		quotaService: quotaService,
		jobQueue:     jobQueue,
		snapshots:    snapshots,
		cfg:          cfg,
	}
}

// NormalizeHandle 归一化目标账号：去 @、去空白、转小写
func NormalizeHandle(handle string) (string, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if normalized == "" || len(normalized) > 30 || !handlePattern.MatchString(normalized) {
		return "", ErrInvalidHandle
	}
	return normalized, nil
}

// Start 创建分析任务并入队
func (s *AnalysisService) Start(ctx context.Context, userID int64, req *dto.CreateAnalysisRequest) (*dto.CreateAnalysisResponse, error) {
	handle, err := NormalizeHandle(req.TargetHandle)
	if err != nil {
		return nil, err
	}

	hasQuota, err := s.quotaService.CheckQuota(userID)
	if err != nil {
		return nil, err
	}
	if !hasQuota {
		return nil, ErrQuotaExceeded
	}

	planType := req.PlanType
	if planType == "" {
		planType = "basic"
	}

	request := &model.AnalysisRequest{
		UserID:       userID,
		TargetHandle: handle,
		TargetGender: req.TargetGender,
		PlanType:     planType,
		Status:       "pending",
		CurrentStage: "pending",
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	if err := s.quotaService.UseQuota(userID); err != nil {
		return nil, err
	}

	s.enqueue(ctx, request)

	return &dto.CreateAnalysisResponse{
		RequestID: request.ID,
		Status:    request.Status,
	}, nil
}

// StartFromPending 支付完成后把待支付记录转成正式任务（不检查免费额度）
func (s *AnalysisService) StartFromPending(ctx context.Context, pending *model.PendingAnalysis) (*model.AnalysisRequest, error) {
	request := &model.AnalysisRequest{
		UserID:       pending.UserID,
		TargetHandle: pending.TargetHandle,
		TargetGender: pending.TargetGender,
		PlanType:     pending.PlanType,
		Status:       "pending",
		CurrentStage: "pending",
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	s.enqueue(ctx, request)
	return request, nil
}

// enqueue 入队尽力而为：队列不可用时任务仍可由接口驱动推进
func (s *AnalysisService) enqueue(ctx context.Context, request *model.AnalysisRequest) {
	if s.jobQueue == nil {
		return
	}
	err := s.jobQueue.Push(ctx, &queue.JobMessage{
		RequestID:    request.ID,
		UserID:       request.UserID,
		TargetHandle: request.TargetHandle,
		PlanType:     request.PlanType,
	})
	if err != nil {
		log.Printf("Request %d: failed to enqueue: %v", request.ID, err)
	}
}

// List 用户的分析列表
func (s *AnalysisService) List(userID int64, page, pageSize int, status string) ([]*dto.AnalysisListItem, int64, error) {
	requests, total, err := s.requestRepo.ListByUserID(userID, page, pageSize, status)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.AnalysisListItem, 0, len(requests))
	for _, r := range requests {
		item := &dto.AnalysisListItem{
			RequestID:    r.ID,
			TargetHandle: r.TargetHandle,
			TargetGender: r.TargetGender,
			PlanType:     r.PlanType,
			Status:       r.Status,
			Progress:     r.Progress,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		}
		if r.CompletedAt != nil {
			item.CompletedAt = r.CompletedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// GetStatus 状态投影
func (s *AnalysisService) GetStatus(userID, requestID int64) (*dto.StatusResponse, error) {
	request, err := s.getOwned(userID, requestID)
	if err != nil {
		return nil, err
	}
	return buildStatus(request), nil
}

func buildStatus(request *model.AnalysisRequest) *dto.StatusResponse {
	status := &dto.StatusResponse{
		RequestID:     request.ID,
		Status:        request.Status,
		CurrentStage:  request.CurrentStage,
		Progress:      request.Progress,
		ProgressLabel: request.ProgressLabel,
		ErrorMessage:  request.ErrorMessage,
		CreatedAt:     request.CreatedAt.Format(time.RFC3339),
	}
	if request.CompletedAt != nil {
		status.CompletedAt = request.CompletedAt.Format(time.RFC3339)
	} else if request.Status == "pending" || request.Status == "processing" {
		status.EstimatedCompletion = request.CreatedAt.Add(5 * time.Minute).Format(time.RFC3339)
	}
	return status
}

// GetResult 结果载荷。未完成时返回状态进度而不是错误。
func (s *AnalysisService) GetResult(userID, requestID int64) (*dto.ResultResponse, error) {
	request, err := s.getOwned(userID, requestID)
	if err != nil {
		return nil, err
	}
	return s.buildResult(request)
}

func (s *AnalysisService) buildResult(request *model.AnalysisRequest) (*dto.ResultResponse, error) {
	if request.Status != "completed" {
		return &dto.ResultResponse{
			Completed: false,
			Status:    buildStatus(request),
		}, nil
	}

	results, err := s.resultRepo.ListByRequestID(request.ID)
	if err != nil {
		return nil, err
	}
	privates, err := s.resultRepo.ListPrivateAccounts(request.ID)
	if err != nil {
		return nil, err
	}

	stats := request.GenderStats
	return &dto.ResultResponse{
		Completed:       true,
		RequestID:       request.ID,
		TargetHandle:    request.TargetHandle,
		TargetGender:    request.TargetGender,
		TotalFollowers:  request.TotalFollowers,
		MutualFollows:   request.MutualFollows,
		GenderStats:     &stats,
		Results:         results,
		PrivateAccounts: privates,
	}, nil
}

// Delete 删除任务及结果
func (s *AnalysisService) Delete(userID, requestID int64) error {
	if _, err := s.getOwned(userID, requestID); err != nil {
		return err
	}
	return s.requestRepo.Delete(requestID)
}

// Share 生成分享链接，快照上传失败不影响分享
func (s *AnalysisService) Share(userID, requestID int64) (*dto.ShareResponse, error) {
	request, err := s.getOwned(userID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != "completed" {
		return nil, ErrRequestNotComplete
	}

	if request.ShareToken == nil {
		token, err := generateRandomCode(32)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		request.ShareToken = &token
		request.SharedAt = &now

		if s.snapshots != nil {
			if result, err := s.buildResult(request); err == nil {
				if data, err := json.Marshal(result); err == nil {
					url, err := s.snapshots.UploadSnapshot(request.ID, data)
					if err != nil {
						log.Printf("Request %d: failed to upload share snapshot: %v", request.ID, err)
					} else {
						request.SnapshotURL = url
					}
				}
			}
		}

		if err := s.requestRepo.Update(request); err != nil {
			return nil, err
		}
	}

	return &dto.ShareResponse{
		ShareToken: *request.ShareToken,
		ShareURL:   fmt.Sprintf("%s/share/%s", s.cfg.Server.BaseURL, *request.ShareToken),
	}, nil
}

// GetShared 按分享 token 读取报告，无需登录
func (s *AnalysisService) GetShared(token string) (*dto.ResultResponse, error) {
	request, err := s.requestRepo.GetByShareToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	return s.buildResult(request)
}

func (s *AnalysisService) getOwned(userID, requestID int64) (*model.AnalysisRequest, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.UserID != userID {
		return nil, ErrRequestPermission
	}
	return request, nil
}
