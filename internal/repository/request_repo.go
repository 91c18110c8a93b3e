package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/internal/model"
)

// ErrStaleVersion 乐观锁版本不匹配，说明有并发写入抢先提交
var ErrStaleVersion = errors.New("analysis request version conflict")

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(request *model.AnalysisRequest) error {
	return r.db.Create(request).Error
}

func (r *RequestRepository) GetByID(id int64) (*model.AnalysisRequest, error) {
	var request model.AnalysisRequest
	err := r.db.Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) GetByIDWithUser(id int64) (*model.AnalysisRequest, error) {
	var request model.AnalysisRequest
	err := r.db.Preload("User").Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) GetByShareToken(token string) (*model.AnalysisRequest, error) {
	var request model.AnalysisRequest
	err := r.db.Where("share_token = ?", token).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) Update(request *model.AnalysisRequest) error {
	return r.db.Save(request).Error
}

func (r *RequestRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.AnalysisRequest{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStageCAS 按乐观锁提交一次阶段写入：只有 lock_version 仍等于阶段
// 入口读到的版本时才生效，生效后版本号 +1。版本不匹配返回 ErrStaleVersion。
func (r *RequestRepository) UpdateStageCAS(request *model.AnalysisRequest, expectedVersion int64) error {
	result := r.db.Model(&model.AnalysisRequest{}).
		Where("id = ? AND lock_version = ?", request.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                request.Status,
			"current_stage":         request.CurrentStage,
			"step_data":             request.StepData,
			"progress":              request.Progress,
			"progress_label":        request.ProgressLabel,
			"total_followers":       request.TotalFollowers,
			"mutual_follows":        request.MutualFollows,
			"opposite_gender_count": request.OppositeGenderCount,
			"gender_stats":          request.GenderStats,
			"error_message":         request.ErrorMessage,
			"completed_at":          request.CompletedAt,
			"lock_version":          expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	request.LockVersion = expectedVersion + 1
	return nil
}

// Delete 删除任务及其子表记录
func (r *RequestRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&model.AnalysisResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("request_id = ?", id).Delete(&model.PrivateAccount{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.AnalysisRequest{}, id).Error
	})
}

// ListByUserID 获取用户的分析列表
func (r *RequestRepository) ListByUserID(userID int64, page, pageSize int, status string) ([]*model.AnalysisRequest, int64, error) {
	var requests []*model.AnalysisRequest
	var total int64

	query := r.db.Model(&model.AnalysisRequest{}).Where("user_id = ?", userID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// CountActiveByUserID 用户进行中的任务数
func (r *RequestRepository) CountActiveByUserID(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.AnalysisRequest{}).
		Where("user_id = ? AND status IN ?", userID, []string{"pending", "processing"}).
		Count(&count).Error
	return count, err
}

// ListStaleProcessing 获取卡住的处理中任务（cleanup 用）
func (r *RequestRepository) ListStaleProcessing(before time.Time) ([]*model.AnalysisRequest, error) {
	var requests []*model.AnalysisRequest
	err := r.db.Where("status = ? AND updated_at < ?", "processing", before).
		Find(&requests).Error
	return requests, err
}
