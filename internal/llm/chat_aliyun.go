package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"resume-match-go/internal/config"
)

// AliyunChatModel 阿里云百炼聊天模型 (OpenAI兼容端点)。
// 实现 eino 的 model.ToolCallingChatModel 接口，供建议顾问等上层组件使用。
type AliyunChatModel struct {
	apiKey      string
	modelName   string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	tools       []*einoschema.ToolInfo
}

var _ model.ToolCallingChatModel = (*AliyunChatModel)(nil)

// AliyunChatModelOption 聊天模型选项
type AliyunChatModelOption func(*AliyunChatModel)

// WithChatHTTPTimeout 设置HTTP客户端超时
func WithChatHTTPTimeout(timeout time.Duration) AliyunChatModelOption {
	return func(m *AliyunChatModel) {
		m.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewAliyunChatModel 创建阿里云聊天模型客户端
func NewAliyunChatModel(apiKey, baseURL string, advisorCfg config.AdvisorConfig, opts ...AliyunChatModelOption) (*AliyunChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	modelName := advisorCfg.ModelName
	if modelName == "" {
		modelName = "qwen-turbo"
	}
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	}

	m := &AliyunChatModel{
		apiKey:      apiKey,
		modelName:   modelName,
		baseURL:     baseURL,
		temperature: advisorCfg.Temperature,
		maxTokens:   advisorCfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// chatMessage OpenAI兼容的消息结构
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest 请求结构 (OpenAI compatible)
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatCompletionResponse 响应结构 (OpenAI compatible)
type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate 实现 model.BaseChatModel 接口
func (m *AliyunChatModel) Generate(ctx context.Context, messages []*einoschema.Message, opts ...model.Option) (*einoschema.Message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("消息列表不能为空")
	}

	reqMessages := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		reqMessages = append(reqMessages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	reqBody := chatCompletionRequest{
		Model:       m.modelName,
		Messages:    reqMessages,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("聊天API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("解析聊天响应失败: %w, 响应体: %s", err, string(body))
	}
	if chatResp.Error != nil && chatResp.Error.Message != "" {
		return nil, fmt.Errorf("聊天API调用失败(响应内错误): 类型: %s, 错误: %s, Code: %s",
			chatResp.Error.Type, chatResp.Error.Message, chatResp.Error.Code)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("聊天API响应不包含choices, 响应: %s", string(body))
	}

	return &einoschema.Message{
		Role:    einoschema.Assistant,
		Content: chatResp.Choices[0].Message.Content,
	}, nil
}

// Stream 实现 model.BaseChatModel 接口。当前场景只需要一次性补全。
func (m *AliyunChatModel) Stream(ctx context.Context, messages []*einoschema.Message, opts ...model.Option) (*einoschema.StreamReader[*einoschema.Message], error) {
	return nil, fmt.Errorf("AliyunChatModel不支持流式输出")
}

// WithTools 实现 model.ToolCallingChatModel 接口，返回绑定了工具的新实例
func (m *AliyunChatModel) WithTools(tools []*einoschema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	clone.tools = tools
	return &clone, nil
}
