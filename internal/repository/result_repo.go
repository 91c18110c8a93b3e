package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/internal/model"
)

type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ReplaceForRequest 先清掉该任务的旧结果再批量写入，finalize 重试不会产生重复行
func (r *ResultRepository) ReplaceForRequest(requestID int64, results []*model.AnalysisResult) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", requestID).Delete(&model.AnalysisResult{}).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		return tx.Create(results).Error
	})
}

// ListByRequestID 按名次升序返回结果
func (r *ResultRepository) ListByRequestID(requestID int64) ([]*model.AnalysisResult, error) {
	var results []*model.AnalysisResult
	err := r.db.Where("request_id = ?", requestID).Order("`rank` ASC").Find(&results).Error
	return results, err
}

func (r *ResultRepository) CountByRequestID(requestID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.AnalysisResult{}).Where("request_id = ?", requestID).Count(&count).Error
	return count, err
}

// CreatePrivateAccounts 写入私密互关账号记录
func (r *ResultRepository) CreatePrivateAccounts(accounts []*model.PrivateAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	return r.db.Create(accounts).Error
}

// ListPrivateAccounts 获取任务的私密账号列表
func (r *ResultRepository) ListPrivateAccounts(requestID int64) ([]*model.PrivateAccount, error) {
	var accounts []*model.PrivateAccount
	err := r.db.Where("request_id = ?", requestID).Find(&accounts).Error
	return accounts, err
}

// DeletePrivateAccounts 清掉任务的私密账号记录（collect 重试前调用）
func (r *ResultRepository) DeletePrivateAccounts(requestID int64) error {
	return r.db.Where("request_id = ?", requestID).Delete(&model.PrivateAccount{}).Error
}
