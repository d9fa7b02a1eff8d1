package textproc

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"resume-match-go/internal/types"
)

// DefaultMinKeywordLength 关键词最小长度
const DefaultMinKeywordLength = 2

// FeatureExtractor 从文档文本中提取结构化特征（技能/关键词/认证）。
// 纯函数式组件，无副作用；空输入返回空集合而不是错误。
type FeatureExtractor struct {
	vocab            *SkillVocabulary
	certifications   []string
	analyzer         TextAnalyzer
	minKeywordLength int
}

// ExtractorOption 特征提取器选项
type ExtractorOption func(*FeatureExtractor)

// WithSkillVocabulary 替换技能词表
func WithSkillVocabulary(vocab *SkillVocabulary) ExtractorOption {
	return func(e *FeatureExtractor) {
		if vocab != nil {
			e.vocab = vocab
		}
	}
}

// WithCertifications 替换认证词表
func WithCertifications(certs []string) ExtractorOption {
	return func(e *FeatureExtractor) {
		if len(certs) > 0 {
			e.certifications = certs
		}
	}
}

// WithAnalyzer 设置语言学分析器
func WithAnalyzer(analyzer TextAnalyzer) ExtractorOption {
	return func(e *FeatureExtractor) {
		if analyzer != nil {
			e.analyzer = analyzer
		}
	}
}

// WithMinKeywordLength 设置关键词最小长度
func WithMinKeywordLength(n int) ExtractorOption {
	return func(e *FeatureExtractor) {
		if n > 0 {
			e.minKeywordLength = n
		}
	}
}

// NewFeatureExtractor 创建特征提取器，默认使用内置词表和正则分析器
func NewFeatureExtractor(opts ...ExtractorOption) *FeatureExtractor {
	e := &FeatureExtractor{
		vocab:            DefaultSkillVocabulary(),
		certifications:   DefaultCertifications(),
		analyzer:         NewRegexAnalyzer(),
		minKeywordLength: DefaultMinKeywordLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyzer 返回当前分析器（语义匹配的句子切分复用同一个实现）
func (e *FeatureExtractor) Analyzer() TextAnalyzer {
	return e.analyzer
}

// ExtractSkills 按词表做大小写不敏感的子串包含匹配。
// 返回顺序为词表顺序，已去重。
func (e *FeatureExtractor) ExtractSkills(text string) []string {
	found := []string{}
	if text == "" {
		return found
	}

	// 技能词可能含 "c++"、"node.js" 这类标点，必须在未清洗的小写原文上匹配
	textLower := strings.ToLower(text)
	seen := make(map[string]struct{})
	for _, skill := range e.vocab.All() {
		if _, dup := seen[skill]; dup {
			continue
		}
		if strings.Contains(textLower, skill) {
			seen[skill] = struct{}{}
			found = append(found, skill)
		}
	}
	return found
}

// ExtractCertifications 与技能同样的子串包含策略，词表为固定认证表
func (e *FeatureExtractor) ExtractCertifications(text string) []string {
	found := []string{}
	if text == "" {
		return found
	}

	textLower := strings.ToLower(text)
	for _, cert := range e.certifications {
		if strings.Contains(textLower, cert) {
			found = append(found, cert)
		}
	}
	return found
}

// ExtractKeywords 提取显著词项集合。分析器具备语言学能力时合并其词项；
// 始终包含长度达标的原始词元作为兜底，分析器缺失时行为优雅降级而不失败。
// 返回结果已去重并按字典序排列。
func (e *FeatureExtractor) ExtractKeywords(text string) []string {
	keywords := []string{}
	if text == "" {
		return keywords
	}

	cleanText := Normalize(text)
	seen := make(map[string]struct{})

	for _, term := range e.analyzer.ExtractTerms(cleanText, e.minKeywordLength) {
		term = strings.ToLower(strings.TrimSpace(term))
		if len(term) >= e.minKeywordLength {
			seen[term] = struct{}{}
		}
	}

	for _, word := range strings.Fields(cleanText) {
		word = StripPunctuation(word)
		if len(word) >= e.minKeywordLength {
			seen[word] = struct{}{}
		}
	}

	for kw := range seen {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

// ExtractProfile 一次性提取完整画像。画像携带来源文本指纹，
// 缓存层凭指纹识别文本已变更的过期画像。
func (e *FeatureExtractor) ExtractProfile(text string) *types.ExtractedProfile {
	return &types.ExtractedProfile{
		Skills:         e.ExtractSkills(text),
		Keywords:       e.ExtractKeywords(text),
		Certifications: e.ExtractCertifications(text),
		TextHash:       Fingerprint(text),
	}
}

// Fingerprint 返回文本的稳定指纹（非加密用途）
func Fingerprint(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return strconv.FormatUint(h.Sum64(), 16)
}
