package matcher

import (
	"context"
	"fmt"

	"resume-match-go/internal/embedding"
	"resume-match-go/internal/textproc"
	"resume-match-go/internal/types"
)

// maxAlignedJobSentences 参与句子级对齐的岗位句子上限。
// 岗位描述的核心要求几乎总在开头，限制数量也控制embedding调用量。
const maxAlignedJobSentences = 5

// SemanticMatchScorer 语义匹配评分器。整体得分来自全文embedding相似度，
// 句子级对齐只作为诊断输出，不参与评分。
type SemanticMatchScorer struct {
	provider       *embedding.Provider
	analyzer       textproc.TextAnalyzer
	alignThreshold float64
}

// NewSemanticMatchScorer 创建语义匹配评分器
func NewSemanticMatchScorer(provider *embedding.Provider, analyzer textproc.TextAnalyzer, alignThreshold float64) (*SemanticMatchScorer, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: 语义评分器需要嵌入提供方", ErrEmbedderNotInit)
	}
	if analyzer == nil {
		analyzer = textproc.NewNoopAnalyzer()
	}
	return &SemanticMatchScorer{
		provider:       provider,
		analyzer:       analyzer,
		alignThreshold: alignThreshold,
	}, nil
}

// Score 计算候选人文本与岗位文本的语义匹配。
// embedding服务不可用时返回零分降级结果（Computed=false）和错误，
// 调用方可以选择继续只用硬匹配。
func (s *SemanticMatchScorer) Score(ctx context.Context, candidateText, jobText string) (*types.SemanticMatchResult, error) {
	result := &types.SemanticMatchResult{}

	vectors, err := s.provider.EmbedTexts(ctx, []string{candidateText, jobText})
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	result.Score = embedding.Similarity(vectors[0], vectors[1])
	result.Computed = true

	// 句子级对齐是尽力而为：切分能力缺失或句子embedding失败都不影响整体得分
	alignments, alignErr := s.alignSentences(ctx, candidateText, jobText)
	if alignErr == nil {
		result.SentenceAlignments = alignments
	}

	return result, nil
}

// alignSentences 为前几个岗位句子寻找最相似的简历句子
func (s *SemanticMatchScorer) alignSentences(ctx context.Context, candidateText, jobText string) ([]types.SentenceAlignment, error) {
	jobSentences := s.analyzer.SplitSentences(jobText)
	candSentences := s.analyzer.SplitSentences(candidateText)
	if len(jobSentences) == 0 || len(candSentences) == 0 {
		return nil, nil
	}

	if len(jobSentences) > maxAlignedJobSentences {
		jobSentences = jobSentences[:maxAlignedJobSentences]
	}

	// 一次批量embedding所有句子，避免 O(n*m) 次远程调用
	all := make([]string, 0, len(jobSentences)+len(candSentences))
	all = append(all, jobSentences...)
	all = append(all, candSentences...)

	vectors, err := s.provider.EmbedTexts(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("句子embedding失败: %w", err)
	}

	jobVectors := vectors[:len(jobSentences)]
	candVectors := vectors[len(jobSentences):]

	var alignments []types.SentenceAlignment
	for i, jobSent := range jobSentences {
		bestSim := 0.0
		bestSent := ""
		for j, candSent := range candSentences {
			if sim := embedding.Similarity(jobVectors[i], candVectors[j]); sim > bestSim {
				bestSim = sim
				bestSent = candSent
			}
		}
		if bestSim > s.alignThreshold {
			alignments = append(alignments, types.SentenceAlignment{
				JobSentence:       jobSent,
				CandidateSentence: bestSent,
				Similarity:        bestSim,
			})
		}
	}
	return alignments, nil
}
