package pipeline

import (
	"context"
	"fmt"

	"github.com/qs3c/insta_check_server/internal/model"
)

// handleProfiles 资料阶段：每次调用抓一个批次的完整资料（带近期帖子），
// 游标落库后返回，批次跑完转入 analyze 并重置其游标和累积结果。
func (p *Processor) handleProfiles(ctx context.Context, request *model.AnalysisRequest, version int64) (*StepResult, error) {
	accounts := request.StepData.PublicAccounts
	total := totalBatchCount(len(accounts), ProfileBatchSize)
	index := request.StepData.ProfileBatchIndex

	if index >= total {
		request.CurrentStage = StageAnalyze
		request.StepData.AnalyzeBatchIndex = 0
		request.StepData.CombinedResults = make(map[string]model.CombinedResult)
		sp := ProgressFor(StageProfiles)
		request.Progress = sp.Max
		request.ProgressLabel = ProgressFor(StageAnalyze).Label

		if err := p.commit(request, version); err != nil {
			return nil, err
		}
		p.publishProgress(ctx, request, "processing", StageProfiles, request.Progress, request.ProgressLabel, "")

		return &StepResult{
			Step: StageProfiles,
			Done: false,
			BatchProgress: &BatchProgress{
				BatchIndex:   total,
				TotalBatches: total,
				Progress:     request.Progress,
			},
		}, nil
	}

	start := index * ProfileBatchSize
	end := start + ProfileBatchSize
	if end > len(accounts) {
		end = len(accounts)
	}

	handles := make([]string, 0, end-start)
	for _, a := range accounts[start:end] {
		handles = append(handles, a.Username)
	}

	profiles, err := p.scraper.GetProfilesBatch(ctx, handles)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile batch: %w", err)
	}

	for _, profile := range profiles {
		posts := make([]model.PostInfo, 0, len(profile.LatestPosts))
		for _, post := range profile.LatestPosts {
			posts = append(posts, model.PostInfo{
				ImageURL:       post.ImageURL,
				TaggedUsers:    post.TaggedUsers,
				MentionedUsers: post.MentionedUsers,
			})
		}
		request.StepData.AccountsWithPosts = append(request.StepData.AccountsWithPosts, model.AccountWithPosts{
			Profile: model.ProfileInfo{
				Username:      profile.Username,
				FullName:      profile.FullName,
				Bio:           profile.Bio,
				ProfilePicURL: profile.ProfilePicURL,
				IsPrivate:     profile.IsPrivate,
			},
			RecentPosts: posts,
		})
	}

	request.StepData.ProfileBatchIndex = index + 1
	request.Progress = CalculateBatchProgress(StageProfiles, index+1, total)
	request.ProgressLabel = fmt.Sprintf("正在获取账号资料（%d/%d）", index+1, total)

	if err := p.commit(request, version); err != nil {
		return nil, err
	}
	p.publishProgress(ctx, request, "processing", StageProfiles, request.Progress, request.ProgressLabel, "")

	return &StepResult{
		Step: StageProfiles,
		Done: false,
		BatchProgress: &BatchProgress{
			BatchIndex:   index + 1,
			TotalBatches: total,
			Progress:     request.Progress,
		},
	}, nil
}
