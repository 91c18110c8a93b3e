package pipeline

import "math"

// 评分查表：外貌等级 1-5 对应分值
var photogenicScores = map[int]int{
	1: 20,
	2: 40,
	3: 60,
	4: 80,
	5: 100,
}

// 露出程度分值
var exposureScores = map[string]int{
	"low":  0,
	"high": 40,
}

// TagBonus 目标账号出现在对方帖子标记/提及中的加分
const TagBonus = 30

// 性别判定置信度阈值
const (
	confirmedThreshold = 0.8
	suspectedThreshold = 0.5
)

// 性别判定状态
const (
	GenderConfirmed = "confirmed"
	GenderSuspected = "suspected"
)

// 风险档位
const (
	RiskHighRisk = "high_risk"
	RiskCaution  = "caution"
	RiskNormal   = "normal"
)

// PhotogenicScore 外貌等级分值，等级越界按最低档处理
func PhotogenicScore(grade int) int {
	if score, ok := photogenicScores[grade]; ok {
		return score
	}
	return photogenicScores[1]
}

// ExposureScore 露出程度分值，未知取 low
func ExposureScore(level string) int {
	return exposureScores[level]
}

// TotalScore 风险总分 = 外貌分 + 露出分 + 标记加分，最高 170
func TotalScore(photogenicGrade int, exposureLevel string, tagged bool) int {
	score := PhotogenicScore(photogenicGrade) + ExposureScore(exposureLevel)
	if tagged {
		score += TagBonus
	}
	return score
}

// ClassifyGenderStatus 按置信度阈值判定性别状态。
// 非目标性别一律排除，与置信度无关。
func ClassifyGenderStatus(gender string, confidence float64, targetGender string) (status string, include bool) {
	if gender != targetGender {
		return "", false
	}
	switch {
	case confidence >= confirmedThreshold:
		return GenderConfirmed, true
	case confidence >= suspectedThreshold:
		return GenderSuspected, true
	default:
		return "", false
	}
}

// RiskGradeCounts 风险档位名额：前 ceil(min(10, 10%·N)) 为 high_risk，
// 其后 ceil(20%·剩余) 为 caution，其余 normal。
func RiskGradeCounts(n int) (highRisk, caution int) {
	if n <= 0 {
		return 0, 0
	}
	highRisk = int(math.Ceil(math.Min(10, 0.1*float64(n))))
	caution = int(math.Ceil(0.2 * float64(n-highRisk)))
	return highRisk, caution
}

// RiskGradeForRank 按名次返回风险档位，rank 从 1 开始
func RiskGradeForRank(rank, n int) string {
	highRisk, caution := RiskGradeCounts(n)
	switch {
	case rank <= highRisk:
		return RiskHighRisk
	case rank <= highRisk+caution:
		return RiskCaution
	default:
		return RiskNormal
	}
}
