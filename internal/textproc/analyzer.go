package textproc

import (
	"regexp"
	"strings"
)

// TextAnalyzer 语言学分析能力接口。
// 能力可能存在也可能不存在（例如接入外部NLP服务时），
// 调用方在启动期选择实现，提取逻辑里不做空值判断。
type TextAnalyzer interface {
	// SplitSentences 将文本切分为句子。能力缺失时返回nil。
	SplitSentences(text string) []string

	// ExtractTerms 提取语言学显著词项（命名实体、名词短语、词元）。
	// 能力缺失时返回nil，调用方回落到原始词元。
	ExtractTerms(text string, minLength int) []string
}

var reSentenceEnd = regexp.MustCompile(`[.!?]+`)

// RegexAnalyzer 基于正则的默认分析器：具备句子切分能力，
// 不具备实体/名词短语级的词项提取能力。
type RegexAnalyzer struct{}

// NewRegexAnalyzer 创建默认分析器
func NewRegexAnalyzer() *RegexAnalyzer {
	return &RegexAnalyzer{}
}

// SplitSentences 按句末标点切分
func (a *RegexAnalyzer) SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := reSentenceEnd.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// ExtractTerms 正则分析器没有语言学词项能力
func (a *RegexAnalyzer) ExtractTerms(text string, minLength int) []string {
	return nil
}

// NoopAnalyzer 无任何语言学能力的占位实现。
// 使用它时句子级对齐为空，整体得分仍从全文embedding计算。
type NoopAnalyzer struct{}

// NewNoopAnalyzer 创建无能力分析器
func NewNoopAnalyzer() *NoopAnalyzer {
	return &NoopAnalyzer{}
}

func (a *NoopAnalyzer) SplitSentences(text string) []string              { return nil }
func (a *NoopAnalyzer) ExtractTerms(text string, minLength int) []string { return nil }

var (
	_ TextAnalyzer = (*RegexAnalyzer)(nil)
	_ TextAnalyzer = (*NoopAnalyzer)(nil)
)
