package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/pkg/ai"
)

// neutralResult AI 调用失败时的兜底结果，单个账号失败不影响整批
func neutralResult() model.CombinedResult {
	return model.CombinedResult{
		Gender:           "unknown",
		GenderConfidence: 0,
	}
}

// handleAnalyze 分析阶段：批内按 5 个一组并行调用 AI 分类。
// 所有批次完成后统计性别分布并转入 finalize。
func (p *Processor) handleAnalyze(ctx context.Context, request *model.AnalysisRequest, version int64) (*StepResult, error) {
	accounts := request.StepData.AccountsWithPosts
	total := totalBatchCount(len(accounts), BatchSize)
	index := request.StepData.AnalyzeBatchIndex

	if index >= total {
		stats := model.GenderStats{}
		opposite := 0
		for _, result := range request.StepData.CombinedResults {
			switch result.Gender {
			case "male":
				stats.Male++
			case "female":
				stats.Female++
			default:
				stats.Unknown++
			}
			if result.Gender == request.TargetGender {
				opposite++
			}
		}

		request.GenderStats = stats
		request.OppositeGenderCount = opposite
		request.CurrentStage = StageFinalize
		sp := ProgressFor(StageAnalyze)
		request.Progress = sp.Max
		request.ProgressLabel = ProgressFor(StageFinalize).Label

		if err := p.commit(request, version); err != nil {
			return nil, err
		}
		p.publishProgress(ctx, request, "processing", StageAnalyze, request.Progress, request.ProgressLabel, "")

		return &StepResult{
			Step: StageAnalyze,
			Done: false,
			BatchProgress: &BatchProgress{
				BatchIndex:   total,
				TotalBatches: total,
				Progress:     request.Progress,
			},
		}, nil
	}

	start := index * BatchSize
	end := start + BatchSize
	if end > len(accounts) {
		end = len(accounts)
	}
	batch := accounts[start:end]

	if request.StepData.CombinedResults == nil {
		request.StepData.CombinedResults = make(map[string]model.CombinedResult)
	}

	// 5 个一组并行调用，限制对外并发
	for subStart := 0; subStart < len(batch); subStart += AISubBatchSize {
		subEnd := subStart + AISubBatchSize
		if subEnd > len(batch) {
			subEnd = len(batch)
		}
		sub := batch[subStart:subEnd]

		results := make([]model.CombinedResult, len(sub))
		var wg sync.WaitGroup
		for i, account := range sub {
			wg.Add(1)
			go func(i int, account model.AccountWithPosts) {
				defer wg.Done()
				results[i] = p.classifyAccount(ctx, request.TargetGender, account)
			}(i, account)
		}
		wg.Wait()

		for i, account := range sub {
			request.StepData.CombinedResults[account.Profile.Username] = results[i]
		}
	}

	request.StepData.AnalyzeBatchIndex = index + 1
	request.Progress = CalculateBatchProgress(StageAnalyze, index+1, total)
	request.ProgressLabel = fmt.Sprintf("正在进行 AI 分析（%d/%d）", index+1, total)

	if err := p.commit(request, version); err != nil {
		return nil, err
	}
	p.publishProgress(ctx, request, "processing", StageAnalyze, request.Progress, request.ProgressLabel, "")

	return &StepResult{
		Step: StageAnalyze,
		Done: false,
		BatchProgress: &BatchProgress{
			BatchIndex:   index + 1,
			TotalBatches: total,
			Progress:     request.Progress,
		},
	}, nil
}

// classifyAccount 单账号分类，失败降级为 unknown
func (p *Processor) classifyAccount(ctx context.Context, targetGender string, account model.AccountWithPosts) model.CombinedResult {
	imageURLs := make([]string, 0, len(account.RecentPosts))
	for _, post := range account.RecentPosts {
		if post.ImageURL != "" {
			imageURLs = append(imageURLs, post.ImageURL)
		}
	}

	result, err := p.ai.AnalyzeAccount(ctx, &ai.Input{
		Username:      account.Profile.Username,
		FullName:      account.Profile.FullName,
		Bio:           account.Profile.Bio,
		ProfilePicURL: account.Profile.ProfilePicURL,
		PostImageURLs: imageURLs,
		TargetGender:  targetGender,
	})
	if err != nil {
		log.Printf("AI classification failed for %s: %v", account.Profile.Username, err)
		return neutralResult()
	}

	return model.CombinedResult{
		Gender:               result.Gender,
		GenderConfidence:     result.GenderConfidence,
		PhotogenicGrade:      result.PhotogenicGrade,
		PhotogenicConfidence: result.PhotogenicConfidence,
		SkinVisibility:       result.SkinVisibility,
		ExposureConfidence:   result.ExposureConfidence,
		OwnerIdentified:      result.OwnerIdentified,
	}
}
