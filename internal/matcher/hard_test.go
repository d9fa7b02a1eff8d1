package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/matcher"
	"resume-match-go/internal/textproc"
	"resume-match-go/internal/types"
)

func newHardScorer() *matcher.HardMatchScorer {
	return matcher.NewHardMatchScorer(textproc.NewFeatureExtractor(), textproc.DefaultFuzzyThreshold)
}

func TestHardMatchExactSkillRatio(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{
		Skills:         []string{"python", "aws", "docker"},
		Keywords:       []string{},
		Certifications: []string{},
	}
	candidate := &types.ExtractedProfile{
		Skills:         []string{"python", "azure"},
		Keywords:       []string{},
		Certifications: []string{},
	}

	result := scorer.Score(candidate, job)
	require.True(t, result.Computed)

	assert.Equal(t, []string{"python"}, result.SkillMatches, "只有python精确命中")
	assert.InDelta(t, 1.0/3.0, result.SkillScore, 1e-9, "技能子得分应为命中数/岗位技能数")
	assert.ElementsMatch(t, []string{"aws", "docker"}, result.MissingSkills, "未命中的岗位技能应记为缺失")
	assert.InDelta(t, result.SkillScore*0.6, result.Score, 1e-9, "岗位无关键词无认证时总分只来自技能项")
}

func TestHardMatchFuzzyDiscount(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{Skills: []string{"machine learning"}}
	candidate := &types.ExtractedProfile{Skills: []string{"learning machine"}}

	result := scorer.Score(candidate, job)

	assert.Empty(t, result.SkillMatches, "词序颠倒不构成精确命中")
	require.Contains(t, result.FuzzyMatches, "machine learning", "应通过模糊匹配命中")
	assert.Empty(t, result.MissingSkills, "模糊命中的技能不算缺失")

	// 精确占比0，模糊覆盖1.0，打八折
	assert.InDelta(t, 0.8, result.SkillScore, 1e-9, "纯模糊覆盖应打八折")
}

func TestHardMatchExactBeatsDiscountedFuzzy(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{Skills: []string{"go", "python"}}
	candidate := &types.ExtractedProfile{Skills: []string{"go", "python"}}

	result := scorer.Score(candidate, job)
	assert.InDelta(t, 1.0, result.SkillScore, 1e-9, "全部精确命中时应取精确占比而不是打折后的模糊覆盖")
	assert.InDelta(t, 0.6, result.Score, 1e-9)
}

func TestHardMatchNoFuzzyForExactMatches(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{Skills: []string{"python"}}
	candidate := &types.ExtractedProfile{Skills: []string{"python"}}

	result := scorer.Score(candidate, job)
	assert.NotContains(t, result.FuzzyMatches, "python", "已精确命中的技能不应再出现在模糊结果里")
}

func TestHardMatchEmptyJobCategories(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{}
	candidate := &types.ExtractedProfile{
		Skills:   []string{"python", "go"},
		Keywords: []string{"backend"},
	}

	result := scorer.Score(candidate, job)
	assert.Equal(t, 0.0, result.Score, "岗位侧全空时各分类得分为0")
	assert.Equal(t, 0.0, result.SkillScore)
	assert.True(t, result.Computed)
}

func TestHardMatchCategoryWeights(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{
		Skills:         []string{"go"},
		Keywords:       []string{"backend"},
		Certifications: []string{"aws certified developer"},
	}
	candidate := &types.ExtractedProfile{
		Skills:         []string{"go"},
		Keywords:       []string{"backend"},
		Certifications: []string{"aws certified developer"},
	}

	result := scorer.Score(candidate, job)
	assert.InDelta(t, 1.0, result.Score, 1e-9, "三个分类全满时加权和为1 (0.6+0.3+0.1)")
	assert.Equal(t, []string{"aws certified developer"}, result.CertMatches)
	assert.Empty(t, result.MissingCerts)
}

func TestHardMatchMissingCertifications(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{
		Certifications: []string{"cissp", "pmp"},
	}
	candidate := &types.ExtractedProfile{
		Certifications: []string{"pmp"},
	}

	result := scorer.Score(candidate, job)
	assert.Equal(t, []string{"pmp"}, result.CertMatches)
	assert.Equal(t, []string{"cissp"}, result.MissingCerts)
	assert.InDelta(t, 0.5, result.CertScore, 1e-9)
}

func TestHardMatchNilProfiles(t *testing.T) {
	scorer := newHardScorer()

	result := scorer.Score(nil, nil)
	require.NotNil(t, result)
	assert.Equal(t, 0.0, result.Score)
	assert.False(t, result.Computed, "画像缺失时结果应标记为未计算")
	assert.NotNil(t, result.SkillMatches, "降级结果的集合应是非nil空切片")
}

func TestHardMatchScoreTexts(t *testing.T) {
	scorer := newHardScorer()

	result := scorer.ScoreTexts(
		"Backend developer skilled in Go and Docker.",
		"We need a Go engineer familiar with Docker and Kubernetes.",
	)
	require.True(t, result.Computed)
	assert.Contains(t, result.SkillMatches, "go")
	assert.Contains(t, result.SkillMatches, "docker")
	assert.Contains(t, result.MissingSkills, "kubernetes")
	assert.Greater(t, result.Score, 0.0)
}

func TestHardMatchDeterministic(t *testing.T) {
	scorer := newHardScorer()

	job := &types.ExtractedProfile{
		Skills:   []string{"python", "aws", "docker", "kubernetes"},
		Keywords: []string{"backend", "cloud"},
	}
	candidate := &types.ExtractedProfile{
		Skills:   []string{"python", "docker"},
		Keywords: []string{"cloud"},
	}

	a := scorer.Score(candidate, job)
	b := scorer.Score(candidate, job)
	assert.Equal(t, a, b, "同样输入应产生完全一致的结果")
}

// TestHardMatchZeroThresholdHonored 阈值0是合法配置，不应被默认值覆盖
func TestHardMatchZeroThresholdHonored(t *testing.T) {
	job := &types.ExtractedProfile{Skills: []string{"javascript"}}
	candidate := &types.ExtractedProfile{Skills: []string{"java"}}

	// javascript/java 的相似度远低于默认阈值75但大于0
	loose := matcher.NewHardMatchScorer(textproc.NewFeatureExtractor(), 0)
	result := loose.Score(candidate, job)
	require.Contains(t, result.FuzzyMatches, "javascript", "阈值0时任何非零相似度都应命中")
	assert.Greater(t, result.FuzzyMatches["javascript"].Similarity, 0.0)

	strict := newHardScorer()
	result = strict.Score(candidate, job)
	assert.NotContains(t, result.FuzzyMatches, "javascript", "默认阈值下同样的配对不应命中")

	// 越界值才回落到默认阈值
	fallback := matcher.NewHardMatchScorer(textproc.NewFeatureExtractor(), -1)
	result = fallback.Score(candidate, job)
	assert.NotContains(t, result.FuzzyMatches, "javascript")
}
