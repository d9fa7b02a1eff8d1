package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate(), "默认配置必须通过校验")

	assert.InDelta(t, 0.4, cfg.Matcher.HardMatchWeight, 1e-9)
	assert.InDelta(t, 0.6, cfg.Matcher.SemanticMatchWeight, 1e-9)
	assert.Equal(t, 75, cfg.Matcher.FuzzyMatchThreshold)
	assert.Equal(t, "job_postings", cfg.Vector.JobCollection)
	assert.Equal(t, "candidates", cfg.Vector.CandidateCollection)
}

func TestValidateWeightSum(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Matcher.HardMatchWeight = 0.5
	cfg.Matcher.SemanticMatchWeight = 0.6

	err := cfg.Validate()
	require.Error(t, err, "权重和不为1应校验失败")
	assert.Contains(t, err.Error(), "配置无效")
}

func TestValidateThresholdRanges(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Matcher.FuzzyMatchThreshold = 120
	assert.Error(t, cfg.Validate(), "模糊阈值超出[0,100]应校验失败")

	cfg = config.DefaultConfig()
	cfg.Matcher.SentenceAlignThreshold = 1.5
	assert.Error(t, cfg.Validate(), "对齐阈值超出[0,1]应校验失败")

	cfg = config.DefaultConfig()
	cfg.Matcher.MediumSuitabilityThreshold = 0.8
	assert.Error(t, cfg.Validate(), "中档阈值不能高于高档阈值")

	cfg = config.DefaultConfig()
	cfg.Matcher.MaxConcurrentEvaluations = 0
	assert.Error(t, cfg.Validate(), "并发上限必须为正")

	cfg = config.DefaultConfig()
	cfg.Vector.Dimension = 0
	assert.Error(t, cfg.Validate(), "向量维度必须为正")
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
matcher:
  hard_match_weight: 0.3
  semantic_match_weight: 0.7
  fuzzy_match_threshold: 80
vector:
  type: boltdb
  dimension: 512
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.3, cfg.Matcher.HardMatchWeight, 1e-9, "文件值应覆盖默认值")
	assert.InDelta(t, 0.7, cfg.Matcher.SemanticMatchWeight, 1e-9)
	assert.Equal(t, 80, cfg.Matcher.FuzzyMatchThreshold)
	assert.Equal(t, 512, cfg.Vector.Dimension)
	// 未出现在文件里的字段保持默认
	assert.Equal(t, "job_postings", cfg.Vector.JobCollection)
}

func TestLoadConfigInvalidFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
matcher:
  hard_match_weight: 0.9
  semantic_match_weight: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := config.LoadConfig(path)
	require.Error(t, err, "非法配置文件应在加载期失败")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ALIYUN_API_KEY", "env-key-123")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliyun:\n  api_key: file-key\n"), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key-123", cfg.Aliyun.APIKey, "环境变量应覆盖文件里的密钥")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 45*time.Second, config.GetDuration("45s", time.Minute))
	assert.Equal(t, time.Minute, config.GetDuration("", time.Minute), "空串应返回默认值")
	assert.Equal(t, time.Minute, config.GetDuration("not-a-duration", time.Minute), "非法串应返回默认值")
}
