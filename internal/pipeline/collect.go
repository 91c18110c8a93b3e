package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/pkg/scraper"
)

var (
	errTargetPrivate = errors.New("目标账号是私密账号，无法分析")
)

// handleCollect 收集阶段：抓目标资料和关注关系，算出互关列表，
// 按隐私拆分后把公开账号（上限 350）写进工作区，推进到 profiles。
func (p *Processor) handleCollect(ctx context.Context, request *model.AnalysisRequest, version int64) (*StepResult, error) {
	limit := p.cfg.ScrapeLimit(request.PlanType)

	profile, err := p.scraper.GetProfile(ctx, request.TargetHandle)
	if err != nil {
		// 账号不存在属于业务性失败，原样透出
		return nil, err
	}
	if profile.IsPrivate {
		return nil, errTargetPrivate
	}

	followers, err := p.scraper.GetFollowers(ctx, request.TargetHandle, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch followers: %w", err)
	}
	following, err := p.scraper.GetFollowing(ctx, request.TargetHandle, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch following: %w", err)
	}

	mutual := scraper.ExtractMutualFollows(followers, following)
	public, private := scraper.ClassifyByPrivacy(mutual)

	// 私密账号落库；重试时先清旧记录防止重复
	if err := p.resultRepo.DeletePrivateAccounts(request.ID); err != nil {
		return nil, fmt.Errorf("failed to reset private accounts: %w", err)
	}
	privateRows := make([]*model.PrivateAccount, 0, len(private))
	for _, a := range private {
		privateRows = append(privateRows, &model.PrivateAccount{
			RequestID:    request.ID,
			Handle:       a.Username,
			FullName:     a.FullName,
			ProfileImage: a.ProfilePicURL,
		})
	}
	if err := p.resultRepo.CreatePrivateAccounts(privateRows); err != nil {
		return nil, fmt.Errorf("failed to save private accounts: %w", err)
	}

	if len(public) > MaxPublicAccounts {
		public = public[:MaxPublicAccounts]
	}

	mutualHandles := make([]string, 0, len(mutual))
	for _, a := range mutual {
		mutualHandles = append(mutualHandles, a.Username)
	}
	publicRefs := make([]model.AccountRef, 0, len(public))
	for _, a := range public {
		publicRefs = append(publicRefs, model.AccountRef{
			Username:      a.Username,
			ProfilePicURL: a.ProfilePicURL,
			IsPrivate:     false,
		})
	}

	request.StepData.MutualFollows = mutualHandles
	request.StepData.PublicAccounts = publicRefs
	request.StepData.AccountsWithPosts = nil
	request.StepData.ProfileBatchIndex = 0
	request.TotalFollowers = profile.FollowerCount
	request.MutualFollows = len(mutual)
	request.Status = "processing"
	request.CurrentStage = StageProfiles

	sp := ProgressFor(StageCollect)
	request.Progress = sp.Max
	request.ProgressLabel = ProgressFor(StageProfiles).Label

	if err := p.commit(request, version); err != nil {
		return nil, err
	}

	p.publishProgress(ctx, request, "processing", StageCollect, request.Progress, request.ProgressLabel, "")

	return &StepResult{
		Step: StageCollect,
		Done: false,
		Stats: &CollectStats{
			TotalFollowers: profile.FollowerCount,
			MutualFollows:  len(mutual),
			PublicCount:    len(public),
			PrivateCount:   len(private),
		},
	}, nil
}
