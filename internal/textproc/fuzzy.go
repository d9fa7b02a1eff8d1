package textproc

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"resume-match-go/internal/types"
)

// DefaultFuzzyThreshold 模糊匹配默认阈值 (0-100 分制)
const DefaultFuzzyThreshold = 75

// FuzzyMatchSkills 在候选人技能与岗位技能之间做模糊匹配。
// 相似度使用词序无关的 token_sort_ratio（分词、排序后比较），
// 因此 "machine learning" 与 "learning machine" 视为同一技能。
//
// 每个岗位技能至多保留一个得分最高的匹配（best-of，而非所有过阈值项），
// 得分并列时取候选人技能集中先出现的那个。低于阈值的岗位技能不会出现在结果里。
func FuzzyMatchSkills(candidateSkills, jobSkills []string, threshold int) map[string]types.FuzzyMatch {
	matches := make(map[string]types.FuzzyMatch)
	if len(candidateSkills) == 0 || len(jobSkills) == 0 {
		return matches
	}

	for _, jobSkill := range jobSkills {
		bestScore := 0
		bestSkill := ""
		for _, candSkill := range candidateSkills {
			// 严格大于：并列时保留先遇到的候选技能
			if score := fuzzy.TokenSortRatio(jobSkill, candSkill); score > bestScore {
				bestScore = score
				bestSkill = candSkill
			}
		}

		if bestSkill != "" && bestScore >= threshold {
			matches[jobSkill] = types.FuzzyMatch{
				TargetTerm:  jobSkill,
				MatchedTerm: bestSkill,
				Similarity:  float64(bestScore) / 100.0,
			}
		}
	}

	return matches
}
