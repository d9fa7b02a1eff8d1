package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"resume-match-go/internal/config"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/textproc"
	"resume-match-go/internal/types"
)

// storedContentLimit 入库时随向量保存的文本前缀长度
const storedContentLimit = 1000

const defaultEvaluationTimeout = 30 * time.Second

// Engine 匹配引擎。对评估结果无状态：不持久化MatchResult，
// 同样的输入与配置重复评估产生同样的输出。
type Engine struct {
	cfg       config.MatcherConfig
	extractor *textproc.FeatureExtractor
	provider  *embedding.Provider

	hardScorer     *HardMatchScorer
	semanticScorer *SemanticMatchScorer

	// 可选依赖，缺失时对应能力降级
	index   storage.VectorIndex
	cache   ProfileCache
	advisor SuggestionAdvisor

	jobCollection       string
	candidateCollection string
	defaultSearchLimit  int

	evalTimeout time.Duration
}

// ProfileCache 画像缓存能力。Redis实现见 storage.ProfileCache。
// 未命中返回 storage.ErrProfileNotCached。
type ProfileCache interface {
	GetProfile(ctx context.Context, documentID string) (*types.ExtractedProfile, error)
	PutProfile(ctx context.Context, documentID string, profile *types.ExtractedProfile) error
	InvalidateProfile(ctx context.Context, documentID string) error
}

// EngineOption 引擎构造选项
type EngineOption func(*Engine)

// WithVectorIndex 接入向量索引，启用相似文档检索与入库
func WithVectorIndex(index storage.VectorIndex, jobCollection, candidateCollection string) EngineOption {
	return func(e *Engine) {
		e.index = index
		if jobCollection != "" {
			e.jobCollection = jobCollection
		}
		if candidateCollection != "" {
			e.candidateCollection = candidateCollection
		}
	}
}

// WithProfileCache 接入画像缓存
func WithProfileCache(cache ProfileCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithAdvisor 接入LLM建议顾问
func WithAdvisor(advisor SuggestionAdvisor) EngineOption {
	return func(e *Engine) {
		e.advisor = advisor
	}
}

// WithExtractor 替换特征提取器（自定义词表时使用）
func WithExtractor(extractor *textproc.FeatureExtractor) EngineOption {
	return func(e *Engine) {
		if extractor != nil {
			e.extractor = extractor
		}
	}
}

// WithDefaultSearchLimit 设置相似检索的默认返回数量
func WithDefaultSearchLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.defaultSearchLimit = n
		}
	}
}

// NewEngine 创建匹配引擎
func NewEngine(cfg config.MatcherConfig, provider *embedding.Provider, opts ...EngineOption) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: 引擎需要嵌入提供方", ErrEmbedderNotInit)
	}

	e := &Engine{
		cfg:                 cfg,
		extractor:           textproc.NewFeatureExtractor(),
		provider:            provider,
		jobCollection:       "job_postings",
		candidateCollection: "candidates",
		defaultSearchLimit:  10,
		evalTimeout:         config.GetDuration(cfg.EvaluationTimeout, defaultEvaluationTimeout),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.hardScorer = NewHardMatchScorer(e.extractor, cfg.FuzzyMatchThreshold)

	semanticScorer, err := NewSemanticMatchScorer(provider, e.extractor.Analyzer(), cfg.SentenceAlignThreshold)
	if err != nil {
		return nil, err
	}
	e.semanticScorer = semanticScorer

	return e, nil
}

// profileFor 获取文档画像，优先走缓存。缓存读写失败不阻断评估。
// 命中的画像必须与当前文本指纹一致：同一文档ID重新入库了新文本后，
// 旧画像视为未命中，重新抽取并覆盖缓存。
func (e *Engine) profileFor(ctx context.Context, documentID, text string) *types.ExtractedProfile {
	if e.cache != nil && documentID != "" {
		if profile, err := e.cache.GetProfile(ctx, documentID); err == nil {
			if profile.TextHash == textproc.Fingerprint(text) {
				return profile
			}
		} else if !errors.Is(err, storage.ErrProfileNotCached) {
			logger.Warn().Err(err).Str("document_id", documentID).Msg("读取画像缓存失败，回落到重新抽取")
		}
	}

	profile := e.extractor.ExtractProfile(text)

	if e.cache != nil && documentID != "" {
		if err := e.cache.PutProfile(ctx, documentID, profile); err != nil {
			logger.Warn().Err(err).Str("document_id", documentID).Msg("写入画像缓存失败")
		}
	}
	return profile
}

// EvaluateMatch 对一个 (岗位, 候选人) 配对做完整评估。
//
// 语义子系统不可用时不返回错误：语义得分降级为0 (SemanticMatchComputed=false)，
// 融合仍照常进行，消费方通过可用性标记区分"确实低分"与"未能计算"。
// LLM建议同样是尽力而为，失败只损失AISuggestions字段。
func (e *Engine) EvaluateMatch(ctx context.Context, job, candidate types.Document) (*types.MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.evalTimeout)
	defer cancel()

	jobProfile := e.profileFor(ctx, job.ID, job.RawText)
	candProfile := e.profileFor(ctx, candidate.ID, candidate.RawText)

	hard := e.hardScorer.Score(candProfile, jobProfile)

	semantic, err := e.semanticScorer.Score(ctx, candidate.RawText, job.RawText)
	if err != nil {
		logger.Warn().Err(err).
			Str("job_id", job.ID).
			Str("candidate_id", candidate.ID).
			Msg("语义匹配降级为零分")
	}

	combined := CombineScores(hard.Score, semantic.Score, e.cfg.HardMatchWeight, e.cfg.SemanticMatchWeight)
	feedback := GenerateFeedback(hard, semantic)

	result := &types.MatchResult{
		JobID:       job.ID,
		CandidateID: candidate.ID,

		HardMatchScore:     hard.Score,
		SemanticMatchScore: semantic.Score,
		CombinedScore:      combined,
		ScorePercentage:    ScorePercentage(combined),
		Suitability:        ClassifySuitability(combined, e.cfg.HighSuitabilityThreshold, e.cfg.MediumSuitabilityThreshold),

		SkillMatches:          hard.SkillMatches,
		KeywordMatches:        hard.KeywordMatches,
		CertificationMatches:  hard.CertMatches,
		FuzzySkillMatches:     hard.FuzzyMatches,
		MissingSkills:         feedback.MissingSkills,
		MissingCertifications: feedback.MissingCertifications,

		ImprovementSuggestions: feedback.Suggestions,
		SentenceAlignments:     semantic.SentenceAlignments,

		HardMatchComputed:     hard.Computed,
		SemanticMatchComputed: semantic.Computed,
	}

	if e.advisor != nil {
		suggestions, advErr := e.advisor.Suggest(ctx, job.RawText, candidate.RawText, feedback.MissingSkills)
		if advErr != nil {
			logger.Warn().Err(advErr).
				Str("job_id", job.ID).
				Str("candidate_id", candidate.ID).
				Msg("LLM建议生成失败")
		} else {
			result.AISuggestions = suggestions
		}
	}

	return result, nil
}

// rankedItem 批量评估的中间结果，order记录输入位次用于稳定平局裁决
type rankedItem struct {
	result *types.MatchResult
	order  int
}

// RankCandidates 将多份候选人文档与同一岗位评估并按融合得分降序排序。
// 单份文档失败不影响其余文档（跳过并记录日志），得分并列时保持输入顺序。
func (e *Engine) RankCandidates(ctx context.Context, job types.Document, candidates []types.CandidateDocument) ([]*types.MatchResult, error) {
	if len(candidates) == 0 {
		return []*types.MatchResult{}, nil
	}

	workers := e.cfg.MaxConcurrentEvaluations
	if workers <= 0 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var (
		mu     sync.Mutex
		ranked []rankedItem
		wg     sync.WaitGroup
		sem    = make(chan struct{}, workers)
	)

	for i, cand := range candidates {
		wg.Add(1)
		go func(order int, cand types.CandidateDocument) {
			defer wg.Done()
			// 单份文档的panic不允许拖垮整个批次
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Interface("panic", r).
						Str("candidate_id", cand.ID).
						Msg("批量评估中单份文档panic，跳过")
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()

			doc := types.Document{
				ID:       cand.ID,
				Role:     types.RoleCandidate,
				RawText:  cand.Text,
				Metadata: cand.Metadata,
			}
			result, err := e.EvaluateMatch(ctx, job, doc)
			if err != nil {
				logger.Error().Err(err).
					Str("job_id", job.ID).
					Str("candidate_id", cand.ID).
					Msg("批量评估中单份文档失败，跳过")
				return
			}
			result.Metadata = cand.Metadata

			mu.Lock()
			ranked = append(ranked, rankedItem{result: result, order: order})
			mu.Unlock()
		}(i, cand)
	}
	wg.Wait()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].result.CombinedScore != ranked[j].result.CombinedScore {
			return ranked[i].result.CombinedScore > ranked[j].result.CombinedScore
		}
		return ranked[i].order < ranked[j].order
	})

	results := make([]*types.MatchResult, len(ranked))
	for i, item := range ranked {
		results[i] = item.result
	}
	return results, nil
}

// collectionFor 按文档角色选择集合
func (e *Engine) collectionFor(role types.DocumentRole) (string, error) {
	switch role {
	case types.RoleJobPosting:
		return e.jobCollection, nil
	case types.RoleCandidate:
		return e.candidateCollection, nil
	default:
		return "", fmt.Errorf("未知的文档角色: %s", role)
	}
}

// IngestDocument 将文档向量化并写入索引（幂等）。
// 元数据里随向量保存文本前缀，检索结果无需回源即可预览内容。
func (e *Engine) IngestDocument(ctx context.Context, doc types.Document) error {
	if e.index == nil {
		return ErrIndexNotConfigured
	}
	if doc.ID == "" {
		return NewIngestError(doc.ID, "文档ID不能为空")
	}
	if doc.RawText == "" {
		return fmt.Errorf("%w: 文档 %s", ErrEmptyDocument, doc.ID)
	}

	collection, err := e.collectionFor(doc.Role)
	if err != nil {
		return NewIngestError(doc.ID, err.Error())
	}

	// 画像顺带预热缓存
	e.profileFor(ctx, doc.ID, doc.RawText)

	vector, err := e.provider.EmbedText(ctx, doc.RawText)
	if err != nil {
		return NewEmbeddingError("", doc.ID, err.Error())
	}

	content := doc.RawText
	if len(content) > storedContentLimit {
		cut := storedContentLimit
		// 不在多字节字符中间截断，避免存入非法UTF-8
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	metadata := map[string]string{
		"content": content,
		"role":    string(doc.Role),
	}
	for k, v := range doc.Metadata {
		metadata[k] = v
	}

	if err := e.index.Upsert(ctx, collection, doc.ID, vector, metadata); err != nil {
		return NewIngestError(doc.ID, err.Error())
	}

	logger.Info().
		Str("document_id", doc.ID).
		Str("collection", collection).
		Msg("文档已入库")
	return nil
}

// DeleteDocument 从索引中删除文档，并清掉对应的画像缓存
func (e *Engine) DeleteDocument(ctx context.Context, documentID string, role types.DocumentRole) error {
	if e.index == nil {
		return ErrIndexNotConfigured
	}
	collection, err := e.collectionFor(role)
	if err != nil {
		return err
	}
	if err := e.index.Delete(ctx, collection, documentID); err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.InvalidateProfile(ctx, documentID); err != nil {
			logger.Warn().Err(err).Str("document_id", documentID).Msg("清除画像缓存失败")
		}
	}
	return nil
}

// FindSimilarCandidates 用岗位文本在候选人集合中做向量近邻检索
func (e *Engine) FindSimilarCandidates(ctx context.Context, jobText string, limit int) ([]types.SimilarDocument, error) {
	return e.findSimilar(ctx, e.candidateCollection, jobText, limit)
}

// FindSimilarJobs 用候选人文本在岗位集合中做向量近邻检索
func (e *Engine) FindSimilarJobs(ctx context.Context, candidateText string, limit int) ([]types.SimilarDocument, error) {
	return e.findSimilar(ctx, e.jobCollection, candidateText, limit)
}

func (e *Engine) findSimilar(ctx context.Context, collection, text string, limit int) ([]types.SimilarDocument, error) {
	if e.index == nil {
		return nil, ErrIndexNotConfigured
	}
	if limit <= 0 {
		limit = e.defaultSearchLimit
	}

	vector, err := e.provider.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	entries, err := e.index.Query(ctx, collection, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	results := make([]types.SimilarDocument, 0, len(entries))
	for _, entry := range entries {
		results = append(results, types.SimilarDocument{
			DocumentID: entry.DocumentID,
			// 索引距离统一为 1-cosine，相似度按契约换算
			Similarity: 1 - entry.Distance,
			Metadata:   entry.Metadata,
		})
	}
	return results, nil
}
