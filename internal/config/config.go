package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"resume-match-go/internal/logger"
)

// MatcherConfig 匹配引擎的可调参数。
// 权重与阈值没有原理性推导，属于配置默认值而非硬编码不变量。
type MatcherConfig struct {
	HardMatchWeight     float64 `yaml:"hard_match_weight"`     // 硬匹配权重，默认0.4
	SemanticMatchWeight float64 `yaml:"semantic_match_weight"` // 语义匹配权重，默认0.6
	// FuzzyMatchThreshold 模糊技能匹配阈值 (0-100 分制)
	FuzzyMatchThreshold int `yaml:"fuzzy_match_threshold"`
	// SentenceAlignThreshold 句子对齐保留阈值 (0-1)，统一到配置面，不再按调用点各自取默认
	SentenceAlignThreshold float64 `yaml:"sentence_align_threshold"`
	// 适配度分级阈值，边界值归入更高档位
	HighSuitabilityThreshold   float64 `yaml:"high_suitability_threshold"`
	MediumSuitabilityThreshold float64 `yaml:"medium_suitability_threshold"`
	// MaxConcurrentEvaluations 批量排序的并发上限
	MaxConcurrentEvaluations int `yaml:"max_concurrent_evaluations"`
	// EvaluationTimeout 单次配对评估中外部调用的超时，例如 "30s"
	EvaluationTimeout string `yaml:"evaluation_timeout"`
}

// EmbeddingConfig Aliyun Embedding 配置 (OpenAI兼容端点)
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
}

// AliyunConfig 阿里云模型服务配置
type AliyunConfig struct {
	APIKey    string          `yaml:"api_key"`
	APIURL    string          `yaml:"api_url"`
	Model     string          `yaml:"model"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// VectorIndexConfig 向量索引配置。type 为 "boltdb"(默认，本地持久化) 或 "qdrant"
type VectorIndexConfig struct {
	Type                string `yaml:"type"`
	Path                string `yaml:"path"` // boltdb 数据文件路径
	Endpoint            string `yaml:"endpoint"`
	APIKey              string `yaml:"api_key,omitempty"`
	JobCollection       string `yaml:"job_collection"`
	CandidateCollection string `yaml:"candidate_collection"`
	Dimension           int    `yaml:"dimension"`
	DefaultSearchLimit  int    `yaml:"default_search_limit"`
}

// RedisConfig Redis 配置（画像缓存）
type RedisConfig struct {
	Address             string `yaml:"address"`
	Password            string `yaml:"password"`
	DB                  int    `yaml:"db"`
	PoolSize            int    `yaml:"pool_size"`
	MinIdleConns        int    `yaml:"min_idle_conns"`
	DialTimeoutSeconds  int    `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	// ProfileTTLHours 画像缓存过期时间(小时)，0表示不过期
	ProfileTTLHours int `yaml:"profile_ttl_hours"`
}

// AdvisorConfig LLM建议顾问配置
type AdvisorConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ModelName      string  `yaml:"model_name"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	SuggestTimeout string  `yaml:"suggest_timeout"`
	MaxSuggestions int     `yaml:"max_suggestions"`
}

// Config 应用程序配置
type Config struct {
	Matcher MatcherConfig     `yaml:"matcher"`
	Aliyun  AliyunConfig      `yaml:"aliyun"`
	Vector  VectorIndexConfig `yaml:"vector"`
	Redis   RedisConfig       `yaml:"redis"`
	Advisor AdvisorConfig     `yaml:"advisor"`
	Logger  logger.Config     `yaml:"logger"`
}

// LoadConfig 从文件加载配置。configPath 为空时在常见位置查找，
// 找不到则回落到默认配置。
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-match", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
		}
		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
		if configPath == "" {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyEnvOverrides(cfg)

	// 配置错误必须在任何评分开始前暴露给调用方
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides 从环境变量覆盖敏感配置
func applyEnvOverrides(cfg *Config) {
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		cfg.Aliyun.APIKey = envKey
	}
	if envURL := os.Getenv("ALIYUN_API_URL"); envURL != "" {
		cfg.Aliyun.APIURL = envURL
	}
	if envModel := os.Getenv("ALIYUN_MODEL"); envModel != "" {
		cfg.Aliyun.Model = envModel
	}
}

// DefaultConfig 返回带默认值的配置
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Matcher.HardMatchWeight = 0.4
	cfg.Matcher.SemanticMatchWeight = 0.6
	cfg.Matcher.FuzzyMatchThreshold = 75
	cfg.Matcher.SentenceAlignThreshold = 0.3
	cfg.Matcher.HighSuitabilityThreshold = 0.7
	cfg.Matcher.MediumSuitabilityThreshold = 0.4
	cfg.Matcher.MaxConcurrentEvaluations = 4
	cfg.Matcher.EvaluationTimeout = "30s"

	cfg.Aliyun.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	cfg.Aliyun.Model = "qwen-turbo"
	cfg.Aliyun.Embedding.Model = "text-embedding-v3"
	cfg.Aliyun.Embedding.Dimensions = 1024
	cfg.Aliyun.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"

	cfg.Vector.Type = "boltdb"
	cfg.Vector.Path = "match_vectors.db"
	cfg.Vector.Endpoint = "http://localhost:6333"
	cfg.Vector.JobCollection = "job_postings"
	cfg.Vector.CandidateCollection = "candidates"
	cfg.Vector.Dimension = 1024
	cfg.Vector.DefaultSearchLimit = 10

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 2
	cfg.Redis.DialTimeoutSeconds = 5
	cfg.Redis.ReadTimeoutSeconds = 3
	cfg.Redis.WriteTimeoutSeconds = 3
	cfg.Redis.ProfileTTLHours = 24 * 7

	cfg.Advisor.ModelName = "qwen-turbo"
	cfg.Advisor.Temperature = 0.5
	cfg.Advisor.MaxTokens = 800
	cfg.Advisor.SuggestTimeout = "60s"
	cfg.Advisor.MaxSuggestions = 5

	cfg.Logger.Level = "info"
	cfg.Logger.Format = "pretty"
	cfg.Logger.TimeFormat = "2006-01-02 15:04:05"
	cfg.Logger.ReportCaller = true

	return cfg
}

// Validate 校验配置的合法性，非法配置在构造期即失败
func (c *Config) Validate() error {
	m := c.Matcher
	if math.Abs(m.HardMatchWeight+m.SemanticMatchWeight-1.0) > 1e-9 {
		return fmt.Errorf("配置无效: hard_match_weight(%v) + semantic_match_weight(%v) 必须等于1",
			m.HardMatchWeight, m.SemanticMatchWeight)
	}
	if m.HardMatchWeight < 0 || m.SemanticMatchWeight < 0 {
		return fmt.Errorf("配置无效: 匹配权重不能为负数")
	}
	if m.FuzzyMatchThreshold < 0 || m.FuzzyMatchThreshold > 100 {
		return fmt.Errorf("配置无效: fuzzy_match_threshold(%d) 必须在[0,100]范围内", m.FuzzyMatchThreshold)
	}
	if m.SentenceAlignThreshold < 0 || m.SentenceAlignThreshold > 1 {
		return fmt.Errorf("配置无效: sentence_align_threshold(%v) 必须在[0,1]范围内", m.SentenceAlignThreshold)
	}
	if m.HighSuitabilityThreshold <= 0 || m.HighSuitabilityThreshold >= 1 ||
		m.MediumSuitabilityThreshold <= 0 || m.MediumSuitabilityThreshold >= 1 {
		return fmt.Errorf("配置无效: 适配度阈值必须在(0,1)范围内")
	}
	if m.MediumSuitabilityThreshold >= m.HighSuitabilityThreshold {
		return fmt.Errorf("配置无效: medium_suitability_threshold(%v) 必须小于 high_suitability_threshold(%v)",
			m.MediumSuitabilityThreshold, m.HighSuitabilityThreshold)
	}
	if m.MaxConcurrentEvaluations < 1 {
		return fmt.Errorf("配置无效: max_concurrent_evaluations 必须大于0")
	}
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("配置无效: vector.dimension 必须大于0")
	}
	return nil
}

// GetDuration 解析配置中的时长字符串，失败时返回默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
