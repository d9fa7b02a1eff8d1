package matcher

import (
	"math"

	"resume-match-go/internal/types"
)

// CombineScores 按配置权重融合硬匹配与语义匹配得分。
// 两个子得分都在[0,1]且权重和为1，融合结果天然在[0,1]，仍做一次钳制吸收浮点误差。
func CombineScores(hardScore, semanticScore, hardWeight, semanticWeight float64) float64 {
	combined := hardScore*hardWeight + semanticScore*semanticWeight
	return math.Max(0, math.Min(1, combined))
}

// ScorePercentage 将[0,1]得分转换为保留两位小数的百分比
func ScorePercentage(combined float64) float64 {
	return math.Round(combined*100*100) / 100
}

// ClassifySuitability 按阈值分级，边界值归入更高档位
func ClassifySuitability(combined, highThreshold, mediumThreshold float64) types.Suitability {
	switch {
	case combined >= highThreshold:
		return types.SuitabilityHigh
	case combined >= mediumThreshold:
		return types.SuitabilityMedium
	default:
		return types.SuitabilityLow
	}
}
