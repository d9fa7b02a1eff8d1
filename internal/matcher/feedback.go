package matcher

import (
	"fmt"
	"strings"

	"resume-match-go/internal/types"
)

// 反馈生成阈值。与分级阈值无关，是建议触发线。
const (
	lowSemanticThreshold = 0.5
	lowHardThreshold     = 0.4
	maxSuggestedSkills   = 5
)

// GenerateFeedback 从评分结果生成确定性反馈。
// 建议按固定顺序级联：缺失技能 → 缺失认证 → 语义弱 → 硬匹配弱，
// 同样的输入永远产生同样的建议列表。
func GenerateFeedback(hard *types.HardMatchResult, semantic *types.SemanticMatchResult) *types.Feedback {
	feedback := &types.Feedback{
		MissingSkills:         []string{},
		MissingCertifications: []string{},
		Suggestions:           []string{},
	}
	if hard != nil {
		if hard.MissingSkills != nil {
			feedback.MissingSkills = hard.MissingSkills
		}
		if hard.MissingCerts != nil {
			feedback.MissingCertifications = hard.MissingCerts
		}
	}

	if len(feedback.MissingSkills) > 0 {
		shown := feedback.MissingSkills
		if len(shown) > maxSuggestedSkills {
			shown = shown[:maxSuggestedSkills]
		}
		feedback.Suggestions = append(feedback.Suggestions,
			fmt.Sprintf("Consider adding these technical skills to your resume: %s", strings.Join(shown, ", ")))
	}

	if len(feedback.MissingCertifications) > 0 {
		feedback.Suggestions = append(feedback.Suggestions,
			fmt.Sprintf("Consider obtaining these certifications: %s", strings.Join(feedback.MissingCertifications, ", ")))
	}

	if semantic != nil && semantic.Score < lowSemanticThreshold {
		feedback.Suggestions = append(feedback.Suggestions,
			"Consider rephrasing your experience descriptions to better align with the job requirements",
			"Add more specific examples and quantifiable achievements related to the job")
	}

	if hard != nil && hard.Score < lowHardThreshold {
		feedback.Suggestions = append(feedback.Suggestions,
			"Focus on acquiring the key technical skills mentioned in the job description",
			"Include relevant projects that demonstrate your skills in the required technologies")
	}

	return feedback
}
