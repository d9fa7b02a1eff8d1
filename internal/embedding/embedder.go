package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"

	"resume-match-go/internal/textproc"
)

// TextEmbedder 文本向量化接口 (符合 cloudwego/eino 规范)
type TextEmbedder interface {
	// EmbedStrings 将文本转换为向量表示
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)

	// GetDimensions 返回嵌入向量的维度
	GetDimensions() int
}

// Provider 在底层embedder之上封装引擎约定：
// 输入先归一化；空白输入直接返回零向量，不调用底层模型（避免退化输入的未定义行为）。
// 模型版本与归一化文本固定时输出是确定性的。
type Provider struct {
	embedder TextEmbedder
}

// NewProvider 创建嵌入提供方
func NewProvider(embedder TextEmbedder) (*Provider, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder不能为空")
	}
	if embedder.GetDimensions() <= 0 {
		return nil, fmt.Errorf("embedder维度无效: %d", embedder.GetDimensions())
	}
	return &Provider{embedder: embedder}, nil
}

// Dimensions 返回向量维度，Provider生命周期内固定
func (p *Provider) Dimensions() int {
	return p.embedder.GetDimensions()
}

// EmbedText 将单条文本转换为向量
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float64, error) {
	clean := textproc.Normalize(text)
	if clean == "" {
		return make([]float64, p.Dimensions()), nil
	}

	vectors, err := p.embedder.EmbedStrings(ctx, []string{clean})
	if err != nil {
		return nil, fmt.Errorf("生成嵌入向量失败: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder返回了空结果")
	}
	return vectors[0], nil
}

// EmbedTexts 批量向量化，空白输入对应位置为零向量
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))

	var pending []string
	var pendingIdx []int
	for i, t := range texts {
		clean := textproc.Normalize(t)
		if clean == "" {
			vectors[i] = make([]float64, p.Dimensions())
			continue
		}
		pending = append(pending, clean)
		pendingIdx = append(pendingIdx, i)
	}

	if len(pending) > 0 {
		embedded, err := p.embedder.EmbedStrings(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("批量生成嵌入向量失败: %w", err)
		}
		if len(embedded) != len(pending) {
			return nil, fmt.Errorf("embedder返回数量不符: 期望%d, 实际%d", len(pending), len(embedded))
		}
		for j, idx := range pendingIdx {
			vectors[idx] = embedded[j]
		}
	}

	return vectors, nil
}

// CosineSimilarity 原始余弦相似度 [-1,1]。任一零向量约定为0。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarity 将余弦相似度从[-1,1]重标到[0,1]：(cos+1)/2，
// 再做钳制吸收浮点溢出。零向量对按约定返回0。
func Similarity(a, b []float64) float64 {
	if isZeroVector(a) || isZeroVector(b) {
		return 0.0
	}

	sim := (CosineSimilarity(a, b) + 1) / 2
	return math.Max(0, math.Min(1, sim))
}

func isZeroVector(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
