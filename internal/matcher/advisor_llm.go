package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"resume-match-go/internal/logger"
)

// SuggestionAdvisor 可选的建议增强能力。实现缺失或失败时，
// 评估结果只携带确定性建议，不影响评分。
type SuggestionAdvisor interface {
	// Suggest 针对一次配对生成改进建议
	Suggest(ctx context.Context, jobText, candidateText string, missingSkills []string) ([]string, error)
}

// llmSuggestionResponse LLM返回的建议结构
type llmSuggestionResponse struct {
	Suggestions []string `json:"suggestions"`
}

// LLMSuggestionAdvisor 基于LLM的建议顾问 (封装LLM客户端和Prompt逻辑)
type LLMSuggestionAdvisor struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	maxSuggestions int
}

// LLMSuggestionAdvisorOption LLM建议顾问的配置选项
type LLMSuggestionAdvisorOption func(*LLMSuggestionAdvisor)

// WithAdvisorPromptTemplate 设置自定义提示词模板
func WithAdvisorPromptTemplate(template string) LLMSuggestionAdvisorOption {
	return func(a *LLMSuggestionAdvisor) {
		a.promptTemplate = template
	}
}

// WithMaxSuggestions 限制返回的建议条数
func WithMaxSuggestions(n int) LLMSuggestionAdvisorOption {
	return func(a *LLMSuggestionAdvisor) {
		if n > 0 {
			a.maxSuggestions = n
		}
	}
}

var _ SuggestionAdvisor = (*LLMSuggestionAdvisor)(nil)

// NewLLMSuggestionAdvisor 创建一个新的建议顾问实例
func NewLLMSuggestionAdvisor(llmModel model.ToolCallingChatModel, options ...LLMSuggestionAdvisorOption) (*LLMSuggestionAdvisor, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("llmModel不能为空")
	}

	advisor := &LLMSuggestionAdvisor{
		llmModel:       llmModel,
		maxSuggestions: 5,
	}
	advisor.generatePromptTemplate()

	for _, opt := range options {
		opt(advisor)
	}

	return advisor, nil
}

func (a *LLMSuggestionAdvisor) generatePromptTemplate() {
	a.promptTemplate = `你是一位资深的职业发展顾问。请基于下面提供的【岗位描述】、【候选人简历】和【已识别的缺失技能】，为候选人生成有针对性的简历改进建议。

**请严格遵循以下JSON输出格式规范：**
1.  **"suggestions"**: 字符串数组 (建议3-5项)，每项是一条具体、可执行的改进建议。
2.  建议应覆盖：如何补齐缺失技能、如何重新组织简历措辞以贴合岗位语言、哪些既有经验值得突出。
3.  禁止重复罗列缺失技能清单本身，要给出行动建议。

**JSON格式细节要求：**
- 完整输出必须是一个合法的JSON对象。
- 所有字段名和字符串值都必须使用双引号。
- 禁止在JSON结构之外输出任何额外文本、解释或Markdown标记。

【岗位描述】:
"""
%s
"""

【候选人简历】:
"""
%s
"""

【已识别的缺失技能】: %s

请基于以上所有指令，输出JSON结果。`
}

// Suggest 调用LLM生成改进建议
func (a *LLMSuggestionAdvisor) Suggest(ctx context.Context, jobText, candidateText string, missingSkills []string) ([]string, error) {
	missing := "无"
	if len(missingSkills) > 0 {
		missing = strings.Join(missingSkills, ", ")
	}

	userMsg := einoschema.UserMessage(fmt.Sprintf(a.promptTemplate, jobText, candidateText, missing))
	systemMsg := einoschema.SystemMessage("你是一位专注于简历优化的职业发展顾问，擅长给出具体可执行的改进建议。")

	response, err := a.llmModel.Generate(ctx, []*einoschema.Message{systemMsg, userMsg})
	if err != nil {
		return nil, fmt.Errorf("LLM调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("LLM返回了空响应")
	}

	processedContent := strings.TrimPrefix(response.Content, "\uFEFF")
	jsonStr := extractJSONFromAdvisorResponse(processedContent)
	if jsonStr == "" {
		return nil, fmt.Errorf("无法从LLM响应中提取JSON: %.200s", processedContent)
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var parsed llmSuggestionResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("解析LLM建议JSON失败: %w, 原始内容: %.200s", err, jsonStr)
	}

	suggestions := make([]string, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		s = strings.TrimSpace(s)
		if s != "" {
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) > a.maxSuggestions {
		suggestions = suggestions[:a.maxSuggestions]
	}

	logger.Debug().Int("suggestion_count", len(suggestions)).Msg("LLM建议生成完成")
	return suggestions, nil
}

// extractJSONFromAdvisorResponse 从文本中提取首个平衡的JSON对象
func extractJSONFromAdvisorResponse(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '{' {
			level++
		} else if text[i] == '}' {
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
