package service

import (
	"errors"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/repository"
)

var (
	ErrQuotaExceeded = errors.New("免费分析次数已用完")
)

type QuotaService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
}

func NewQuotaService(userRepo *repository.UserRepository, cfg *config.Config) *QuotaService {
	return &QuotaService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// FreeLimit 免费分析次数，未配置按 1 次
func (s *QuotaService) FreeLimit() int {
	if s.cfg.Analysis.FreeLimit > 0 {
		return s.cfg.Analysis.FreeLimit
	}
	return 1
}

// CheckQuota 检查是否还能发起免费分析
func (s *QuotaService) CheckQuota(userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false, err
	}

	if user.IsUnlimited {
		return true, nil
	}
	return user.AnalysisCount < s.FreeLimit(), nil
}

// UseQuota 记一次分析
func (s *QuotaService) UseQuota(userID int64) error {
	return s.userRepo.IncrementAnalysisCount(userID)
}

// GetQuotaInfo 获取额度使用情况
func (s *QuotaService) GetQuotaInfo(userID int64) (*dto.QuotaInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	limit := s.FreeLimit()
	remaining := limit - user.AnalysisCount
	if remaining < 0 {
		remaining = 0
	}

	return &dto.QuotaInfo{
		FreeLimit:   limit,
		UsedCount:   user.AnalysisCount,
		Remaining:   remaining,
		IsPaidUser:  user.IsPaidUser,
		IsUnlimited: user.IsUnlimited,
	}, nil
}
