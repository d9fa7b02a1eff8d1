package matcher

import (
	"math"
	"sort"

	"resume-match-go/internal/textproc"
	"resume-match-go/internal/types"
)

// 硬匹配分类权重：技能最重要，关键词次之，认证最轻
const (
	skillWeight   = 0.6
	keywordWeight = 0.3
	certWeight    = 0.1
)

// HardMatchScorer 词法/结构重叠评分器。
// 纯函数式：同样的两份文本与同一份词表永远产生同样的结果。
type HardMatchScorer struct {
	extractor      *textproc.FeatureExtractor
	fuzzyThreshold int
}

// NewHardMatchScorer 创建硬匹配评分器。
// 阈值0是合法配置（任何非零相似度都算命中），只有越界值才回落到默认值。
func NewHardMatchScorer(extractor *textproc.FeatureExtractor, fuzzyThreshold int) *HardMatchScorer {
	if fuzzyThreshold < 0 || fuzzyThreshold > 100 {
		fuzzyThreshold = textproc.DefaultFuzzyThreshold
	}
	return &HardMatchScorer{
		extractor:      extractor,
		fuzzyThreshold: fuzzyThreshold,
	}
}

// Score 基于两份画像计算硬匹配得分。
//
// 技能子得分取精确匹配占比与模糊匹配占比的较大者，模糊占比打八折，
// 防止纯模糊覆盖反超同等程度的精确覆盖。模糊匹配只在未被精确命中的
// 岗位技能上进行，同一项技能不会既计入精确又计入模糊。
// 岗位侧某分类为空时该分类得分为0，不做权重重分配。
func (s *HardMatchScorer) Score(candidate, job *types.ExtractedProfile) *types.HardMatchResult {
	result := &types.HardMatchResult{
		SkillMatches:   []string{},
		KeywordMatches: []string{},
		CertMatches:    []string{},
		FuzzyMatches:   map[string]types.FuzzyMatch{},
		MissingSkills:  []string{},
		MissingCerts:   []string{},
	}
	if candidate == nil || job == nil {
		return result
	}

	candSkills := toSet(candidate.Skills)
	candKeywords := toSet(candidate.Keywords)
	candCerts := toSet(candidate.Certifications)

	// 精确交集，保持岗位侧顺序以保证输出确定性
	var unmatchedJobSkills []string
	for _, skill := range job.Skills {
		if _, ok := candSkills[skill]; ok {
			result.SkillMatches = append(result.SkillMatches, skill)
		} else {
			unmatchedJobSkills = append(unmatchedJobSkills, skill)
		}
	}
	for _, kw := range job.Keywords {
		if _, ok := candKeywords[kw]; ok {
			result.KeywordMatches = append(result.KeywordMatches, kw)
		}
	}
	for _, cert := range job.Certifications {
		if _, ok := candCerts[cert]; ok {
			result.CertMatches = append(result.CertMatches, cert)
		} else {
			result.MissingCerts = append(result.MissingCerts, cert)
		}
	}

	// 模糊匹配仅覆盖精确未命中的岗位技能
	result.FuzzyMatches = textproc.FuzzyMatchSkills(candidate.Skills, unmatchedJobSkills, s.fuzzyThreshold)

	// 缺失技能 = 既无精确也无模糊命中的岗位技能
	for _, skill := range unmatchedJobSkills {
		if _, ok := result.FuzzyMatches[skill]; !ok {
			result.MissingSkills = append(result.MissingSkills, skill)
		}
	}
	sort.Strings(result.MissingSkills)

	if len(job.Skills) > 0 {
		exactScore := float64(len(result.SkillMatches)) / float64(len(job.Skills))
		var fuzzySum float64
		for _, m := range result.FuzzyMatches {
			fuzzySum += m.Similarity
		}
		// 模糊覆盖里把精确命中也算进来，否则两种覆盖不可比
		fuzzyScore := (float64(len(result.SkillMatches)) + fuzzySum) / float64(len(job.Skills))
		result.SkillScore = math.Max(exactScore, fuzzyScore*0.8)
	}
	if len(job.Keywords) > 0 {
		result.KeywordScore = float64(len(result.KeywordMatches)) / float64(len(job.Keywords))
	}
	if len(job.Certifications) > 0 {
		result.CertScore = float64(len(result.CertMatches)) / float64(len(job.Certifications))
	}

	weighted := result.SkillScore*skillWeight + result.KeywordScore*keywordWeight + result.CertScore*certWeight
	result.Score = math.Min(1.0, weighted)
	result.Computed = true
	return result
}

// ScoreTexts 从原始文本直接计算硬匹配得分
func (s *HardMatchScorer) ScoreTexts(candidateText, jobText string) *types.HardMatchResult {
	if s.extractor == nil {
		return &types.HardMatchResult{
			SkillMatches:   []string{},
			KeywordMatches: []string{},
			CertMatches:    []string{},
			FuzzyMatches:   map[string]types.FuzzyMatch{},
			MissingSkills:  []string{},
			MissingCerts:   []string{},
		}
	}
	return s.Score(s.extractor.ExtractProfile(candidateText), s.extractor.ExtractProfile(jobText))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
