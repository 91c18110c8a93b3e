package pipeline

// 阶段常量，analysis_requests.current_stage 的取值
const (
	StagePending   = "pending"
	StageCollect   = "collect"
	StageProfiles  = "profiles"
	StageAnalyze   = "analyze"
	StageFinalize  = "finalize"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

const (
	// ProfileBatchSize profiles 阶段每次调用抓取的账号数
	ProfileBatchSize = 30
	// BatchSize analyze 阶段每次调用处理的账号数
	BatchSize = 50
	// AISubBatchSize analyze 批内并行的 AI 调用上限
	AISubBatchSize = 5
	// MaxPublicAccounts 进入分析的公开账号上限
	MaxPublicAccounts = 350
)

// StageProgress 阶段的进度区间与展示文案
type StageProgress struct {
	Min   int
	Max   int
	Label string
}

var stageProgressTable = map[string]StageProgress{
	StagePending:   {0, 0, "等待开始"},
	StageCollect:   {5, 30, "正在收集互关列表"},
	StageProfiles:  {30, 50, "正在获取账号资料"},
	StageAnalyze:   {50, 90, "正在进行 AI 分析"},
	StageFinalize:  {90, 100, "正在生成报告"},
	StageCompleted: {100, 100, "分析完成"},
	StageFailed:    {0, 0, "分析失败"},
}

// ProgressFor 查询阶段进度区间，未知阶段返回零值
func ProgressFor(stage string) StageProgress {
	return stageProgressTable[stage]
}

// 历史版本中 analyze 拆成两个阶段，旧任务加载时统一迁移
var legacyStageAliases = map[string]string{
	"gender":   StageAnalyze,
	"features": StageAnalyze,
}

// MigrateLegacyStage 把旧阶段名映射到当前阶段名
func MigrateLegacyStage(stage string) string {
	if migrated, ok := legacyStageAliases[stage]; ok {
		return migrated
	}
	return stage
}

var nextStageTable = map[string]string{
	StagePending:  StageCollect,
	StageCollect:  StageProfiles,
	StageProfiles: StageAnalyze,
	StageAnalyze:  StageFinalize,
	StageFinalize: StageCompleted,
}

// NextStage 线性状态机的下一个阶段，终态返回自身
func NextStage(stage string) string {
	if next, ok := nextStageTable[stage]; ok {
		return next
	}
	return stage
}

// CalculateBatchProgress 在阶段进度区间内按批次线性插值。
// batchIndex == totalBatches 时恰好到达区间上限，结果不会越界。
func CalculateBatchProgress(stage string, batchIndex, totalBatches int) int {
	sp := stageProgressTable[stage]
	if totalBatches <= 0 {
		return sp.Max
	}
	if batchIndex < 0 {
		batchIndex = 0
	}
	if batchIndex > totalBatches {
		batchIndex = totalBatches
	}
	return sp.Min + (sp.Max-sp.Min)*batchIndex/totalBatches
}

// totalBatchCount 批次总数 = ceil(总数 / 批大小)
func totalBatchCount(itemCount, batchSize int) int {
	if itemCount <= 0 {
		return 0
	}
	return (itemCount + batchSize - 1) / batchSize
}
