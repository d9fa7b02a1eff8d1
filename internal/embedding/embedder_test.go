package embedding_test

import (
	"context"
	"testing"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/embedding"
)

// stubEmbedder 确定性的测试用embedder：把文本映射为固定维度的词袋向量
type stubEmbedder struct {
	dims int
}

func (s *stubEmbedder) GetDimensions() int { return s.dims }

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v := make([]float64, s.dims)
		for j, r := range text {
			v[(j+int(r))%s.dims] += 1.0
		}
		vectors[i] = v
	}
	return vectors, nil
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, embedding.CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9, "同向向量余弦相似度应为1")
	assert.InDelta(t, -1.0, embedding.CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9, "反向向量余弦相似度应为-1")
	assert.InDelta(t, 0.0, embedding.CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9, "正交向量余弦相似度应为0")
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, embedding.CosineSimilarity([]float64{0, 0}, []float64{1, 2}), "零向量按约定返回0")
	assert.Equal(t, 0.0, embedding.CosineSimilarity([]float64{1}, []float64{1, 2}), "维度不匹配返回0")
	assert.Equal(t, 0.0, embedding.CosineSimilarity(nil, nil), "空向量返回0")
}

func TestSimilarityRescaling(t *testing.T) {
	// (cos+1)/2: 同向 -> 1, 反向 -> 0, 正交 -> 0.5
	assert.InDelta(t, 1.0, embedding.Similarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, embedding.Similarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.InDelta(t, 0.5, embedding.Similarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
}

func TestSimilarityZeroVectorConvention(t *testing.T) {
	zero := []float64{0, 0, 0}
	nonzero := []float64{1, 2, 3}
	assert.Equal(t, 0.0, embedding.Similarity(zero, nonzero), "零向量参与的相似度按约定为0，而不是重标后的0.5")
	assert.Equal(t, 0.0, embedding.Similarity(zero, zero), "两个零向量的相似度也为0")
}

func TestProviderEmptyTextYieldsZeroVector(t *testing.T) {
	provider, err := embedding.NewProvider(&stubEmbedder{dims: 8})
	require.NoError(t, err)

	vec, err := provider.EmbedText(context.Background(), "   \n  ")
	require.NoError(t, err, "空白输入不应报错")
	require.Len(t, vec, 8)
	for _, x := range vec {
		assert.Equal(t, 0.0, x, "空白输入应得到零向量")
	}
}

func TestProviderBatchPreservesPositions(t *testing.T) {
	provider, err := embedding.NewProvider(&stubEmbedder{dims: 8})
	require.NoError(t, err)

	vectors, err := provider.EmbedTexts(context.Background(), []string{"golang developer", "", "data engineer"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.NotEqual(t, make([]float64, 8), vectors[0], "非空文本应得到非零向量")
	assert.Equal(t, make([]float64, 8), vectors[1], "空文本位置应是零向量")
	assert.NotEqual(t, make([]float64, 8), vectors[2])
}

func TestProviderDeterministic(t *testing.T) {
	provider, err := embedding.NewProvider(&stubEmbedder{dims: 8})
	require.NoError(t, err)

	a, err := provider.EmbedText(context.Background(), "Site Reliability Engineer")
	require.NoError(t, err)
	b, err := provider.EmbedText(context.Background(), "site   reliability engineer")
	require.NoError(t, err)
	assert.Equal(t, a, b, "归一化后相同的文本应产生相同向量")
}

func TestNewProviderValidation(t *testing.T) {
	_, err := embedding.NewProvider(nil)
	assert.Error(t, err, "nil embedder应报错")

	_, err = embedding.NewProvider(&stubEmbedder{dims: 0})
	assert.Error(t, err, "维度为0应报错")
}
