package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/qs3c/insta_check_server/internal/model"
)

type scoredAccount struct {
	account      model.AccountWithPosts
	result       model.CombinedResult
	genderStatus string
	tagged       bool
	score        int
}

// handleFinalize 汇总阶段：解析分类结果（兼容旧版三表结构），算分排序，
// 落库结果行后把任务置为完成，并尽力通知用户。
func (p *Processor) handleFinalize(ctx context.Context, request *model.AnalysisRequest, version int64) (*StepResult, error) {
	retained := make([]scoredAccount, 0, len(request.StepData.AccountsWithPosts))

	for _, account := range request.StepData.AccountsWithPosts {
		result, ok := resolveResult(&request.StepData, account.Profile.Username)
		if !ok {
			continue
		}

		status, include := ClassifyGenderStatus(result.Gender, result.GenderConfidence, request.TargetGender)
		if !include {
			continue
		}

		tagged := scanPostsForHandle(account.RecentPosts, request.TargetHandle)
		exposure := result.SkinVisibility
		if exposure == "" {
			exposure = "low"
		}

		retained = append(retained, scoredAccount{
			account:      account,
			result:       result,
			genderStatus: status,
			tagged:       tagged,
			score:        TotalScore(result.PhotogenicGrade, exposure, tagged),
		})
	}

	// 分数相同保持累积顺序
	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].score > retained[j].score
	})

	n := len(retained)
	rows := make([]*model.AnalysisResult, 0, n)
	for i, sa := range retained {
		rank := i + 1
		exposure := sa.result.SkinVisibility
		if exposure == "" {
			exposure = "low"
		}
		rows = append(rows, &model.AnalysisResult{
			RequestID:           request.ID,
			Rank:                rank,
			SuspectHandle:       sa.account.Profile.Username,
			SuspectFullName:     sa.account.Profile.FullName,
			SuspectProfileImage: sa.account.Profile.ProfilePicURL,
			Bio:                 sa.account.Profile.Bio,
			RiskScore:           sa.score,
			RiskGrade:           RiskGradeForRank(rank, n),
			PhotogenicGrade:     sa.result.PhotogenicGrade,
			ExposureLevel:       exposure,
			IsTagged:            sa.tagged,
			GenderConfidence:    sa.result.GenderConfidence,
			GenderStatus:        sa.genderStatus,
			IsUnlocked:          true,
		})
	}

	if err := p.resultRepo.ReplaceForRequest(request.ID, rows); err != nil {
		return nil, fmt.Errorf("failed to save results: %w", err)
	}

	request.Status = "completed"
	request.CurrentStage = StageCompleted
	request.Progress = 100
	request.ProgressLabel = ProgressFor(StageCompleted).Label
	request.CompletedAt = nowPtr()

	if err := p.commit(request, version); err != nil {
		return nil, err
	}

	p.publishProgress(ctx, request, "completed", StageCompleted, 100, request.ProgressLabel, "")
	p.notifyCompletion(request)

	return &StepResult{Step: StageFinalize, Done: true}, nil
}

// resolveResult 读取账号的分类结果，合并结果优先，缺失时回落到旧版三表结构
func resolveResult(data *model.StepData, username string) (model.CombinedResult, bool) {
	if result, ok := data.CombinedResults[username]; ok {
		return result, true
	}

	gender, ok := data.GenderResults[username]
	if !ok {
		return model.CombinedResult{}, false
	}

	merged := model.CombinedResult{
		Gender:           gender.Gender,
		GenderConfidence: gender.Confidence,
	}
	if photogenic, ok := data.PhotogenicResults[username]; ok {
		merged.PhotogenicGrade = photogenic.PhotogenicGrade
		merged.PhotogenicConfidence = photogenic.Confidence
	}
	if exposure, ok := data.ExposureResults[username]; ok {
		merged.SkinVisibility = exposure.SkinVisibility
		merged.ExposureConfidence = exposure.Confidence
	}
	return merged, true
}

// scanPostsForHandle 扫描近期帖子的标记与提及，判断目标账号是否出现过
func scanPostsForHandle(posts []model.PostInfo, targetHandle string) bool {
	target := strings.ToLower(targetHandle)
	for _, post := range posts {
		for _, u := range post.TaggedUsers {
			if strings.ToLower(u) == target {
				return true
			}
		}
		for _, u := range post.MentionedUsers {
			if strings.ToLower(u) == target {
				return true
			}
		}
	}
	return false
}
