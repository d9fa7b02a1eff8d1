package matcher_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/config"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
)

const stubDims = 32

// stubEmbedder 确定性词袋embedder：相同词汇的文本产生相近向量。
// failOn 非空时，包含该子串的文本触发错误；panicOn 同理触发panic。
type stubEmbedder struct {
	failOn  string
	panicOn string
}

func (s *stubEmbedder) GetDimensions() int { return stubDims }

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if s.panicOn != "" && strings.Contains(text, s.panicOn) {
			panic("stub embedder panic: " + s.panicOn)
		}
		if s.failOn != "" && strings.Contains(text, s.failOn) {
			return nil, fmt.Errorf("stub embedder故意失败: %s", s.failOn)
		}
		v := make([]float64, stubDims)
		for _, word := range strings.Fields(text) {
			h := 0
			for _, r := range word {
				h = h*31 + int(r)
			}
			if h < 0 {
				h = -h
			}
			v[h%stubDims] += 1.0
		}
		vectors[i] = v
	}
	return vectors, nil
}

func testMatcherConfig() config.MatcherConfig {
	return config.DefaultConfig().Matcher
}

func newTestEngine(t *testing.T, stub *stubEmbedder, opts ...matcher.EngineOption) *matcher.Engine {
	t.Helper()
	provider, err := embedding.NewProvider(stub)
	require.NoError(t, err)
	engine, err := matcher.NewEngine(testMatcherConfig(), provider, opts...)
	require.NoError(t, err)
	return engine
}

func TestEvaluateMatchScenario(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})

	job := types.Document{
		ID:      "job-1",
		Role:    types.RoleJobPosting,
		RawText: "Looking for a Python developer with AWS and Docker experience.",
	}
	candidate := types.Document{
		ID:      "cand-1",
		Role:    types.RoleCandidate,
		RawText: "Python developer with Azure background.",
	}

	result, err := engine.EvaluateMatch(context.Background(), job, candidate)
	require.NoError(t, err)

	assert.True(t, result.HardMatchComputed)
	assert.True(t, result.SemanticMatchComputed)
	assert.Contains(t, result.SkillMatches, "python")
	assert.Contains(t, result.MissingSkills, "aws")
	assert.Contains(t, result.MissingSkills, "docker")
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, "cand-1", result.CandidateID)

	assert.GreaterOrEqual(t, result.CombinedScore, 0.0)
	assert.LessOrEqual(t, result.CombinedScore, 1.0, "融合得分必须在[0,1]")
	assert.InDelta(t, result.CombinedScore*100, result.ScorePercentage, 0.01)
	assert.NotEmpty(t, result.Suitability)
}

func TestEvaluateMatchSelfDominance(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})
	ctx := context.Background()

	jobText := "Senior Go engineer building distributed systems with Kubernetes and PostgreSQL."
	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: jobText}

	identical := types.Document{ID: "cand-same", Role: types.RoleCandidate, RawText: jobText}
	unrelated := types.Document{ID: "cand-other", Role: types.RoleCandidate, RawText: "Pastry chef specializing in wedding cakes and desserts."}

	same, err := engine.EvaluateMatch(ctx, job, identical)
	require.NoError(t, err)
	other, err := engine.EvaluateMatch(ctx, job, unrelated)
	require.NoError(t, err)

	assert.Greater(t, same.CombinedScore, other.CombinedScore, "与岗位文本完全一致的候选人应显著胜出")
	assert.InDelta(t, 1.0, same.SemanticMatchScore, 1e-9, "相同文本的语义相似度应为1")
}

func TestEvaluateMatchSemanticDegradation(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{failOn: "python"})

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Need a python developer"}
	candidate := types.Document{ID: "cand-1", Role: types.RoleCandidate, RawText: "python expert"}

	result, err := engine.EvaluateMatch(context.Background(), job, candidate)
	require.NoError(t, err, "语义子系统失败不应让整体评估失败")

	assert.False(t, result.SemanticMatchComputed, "降级结果应标记语义未计算")
	assert.Equal(t, 0.0, result.SemanticMatchScore)
	assert.True(t, result.HardMatchComputed, "硬匹配不依赖embedding，应照常计算")
	assert.Contains(t, result.SkillMatches, "python")
	assert.Greater(t, result.HardMatchScore, 0.0)
}

func TestEvaluateMatchEmptyDocuments(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: ""}
	candidate := types.Document{ID: "cand-1", Role: types.RoleCandidate, RawText: ""}

	result, err := engine.EvaluateMatch(context.Background(), job, candidate)
	require.NoError(t, err, "空文档应正常评估而不是报错")

	assert.Equal(t, 0.0, result.HardMatchScore)
	assert.Equal(t, 0.0, result.SemanticMatchScore, "空文本走零向量，相似度按约定为0")
	assert.Equal(t, types.SuitabilityLow, result.Suitability)
}

func TestRankCandidatesOrdering(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})

	job := types.Document{
		ID:      "job-1",
		Role:    types.RoleJobPosting,
		RawText: "Looking for a Python developer with AWS and Docker experience.",
	}
	candidates := []types.CandidateDocument{
		{ID: "weak", Text: "Graphic designer working with Figma."},
		{ID: "strong", Text: "Python developer with AWS and Docker experience."},
		{ID: "medium", Text: "Python developer."},
	}

	results, err := engine.RankCandidates(context.Background(), job, candidates)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "strong", results[0].CandidateID, "应按融合得分降序排列")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].CombinedScore, results[i].CombinedScore)
	}
}

func TestRankCandidatesStableTieBreak(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Erlang wizard wanted."}
	// 两份完全相同的简历得分必然并列
	candidates := []types.CandidateDocument{
		{ID: "first", Text: "Baker with sourdough expertise."},
		{ID: "second", Text: "Baker with sourdough expertise."},
	}

	results, err := engine.RankCandidates(context.Background(), job, candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].CandidateID, "得分并列时应保持输入顺序")
	assert.Equal(t, "second", results[1].CandidateID)
}

func TestRankCandidatesIsolatesFailures(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{panicOn: "unparseable"})

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Go developer wanted."}
	candidates := []types.CandidateDocument{
		{ID: "ok-1", Text: "Go developer with five years experience."},
		{ID: "broken", Text: "unparseable garbage payload"},
		{ID: "ok-2", Text: "Junior go programmer."},
	}

	results, err := engine.RankCandidates(context.Background(), job, candidates)
	require.NoError(t, err, "单份文档失败不应让整个批次失败")
	require.Len(t, results, 2, "失败的文档应被跳过")

	ids := []string{results[0].CandidateID, results[1].CandidateID}
	assert.NotContains(t, ids, "broken")
}

func TestRankCandidatesEmptyInput(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})
	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "anything"}

	results, err := engine.RankCandidates(context.Background(), job, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results, "空输入应返回空切片而不是nil")
}

func TestIngestAndFindSimilar(t *testing.T) {
	idx, err := storage.NewBoltVectorIndex(t.TempDir()+"/vec.db", stubDims, "job_postings", "candidates")
	require.NoError(t, err)
	defer idx.Close()

	engine := newTestEngine(t, &stubEmbedder{}, matcher.WithVectorIndex(idx, "job_postings", "candidates"))
	ctx := context.Background()

	docs := []types.Document{
		{ID: "cand-go", Role: types.RoleCandidate, RawText: "Go developer building backend services."},
		{ID: "cand-chef", Role: types.RoleCandidate, RawText: "Chef preparing italian cuisine."},
	}
	for _, doc := range docs {
		require.NoError(t, engine.IngestDocument(ctx, doc))
	}

	results, err := engine.FindSimilarCandidates(ctx, "Go developer building backend services.", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "cand-go", results[0].DocumentID, "文本一致的文档应排第一")
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity, "相似度应非增排列")
	assert.NotEmpty(t, results[0].Metadata["content"], "结果应携带入库时保存的文本前缀")
}

func TestIngestStoresTruncatedContent(t *testing.T) {
	idx, err := storage.NewBoltVectorIndex(t.TempDir()+"/vec.db", stubDims, "job_postings", "candidates")
	require.NoError(t, err)
	defer idx.Close()

	engine := newTestEngine(t, &stubEmbedder{}, matcher.WithVectorIndex(idx, "job_postings", "candidates"))
	ctx := context.Background()

	long := strings.Repeat("golang backend systems ", 100)
	require.Greater(t, len(long), 1000)
	require.NoError(t, engine.IngestDocument(ctx, types.Document{ID: "cand-long", Role: types.RoleCandidate, RawText: long}))

	results, err := engine.FindSimilarCandidates(ctx, long, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Metadata["content"], 1000, "入库只保存前1000字符的文本前缀")
}

func TestIngestValidation(t *testing.T) {
	idx, err := storage.NewBoltVectorIndex(t.TempDir()+"/vec.db", stubDims, "job_postings", "candidates")
	require.NoError(t, err)
	defer idx.Close()

	engine := newTestEngine(t, &stubEmbedder{}, matcher.WithVectorIndex(idx, "job_postings", "candidates"))
	ctx := context.Background()

	err = engine.IngestDocument(ctx, types.Document{ID: "", Role: types.RoleCandidate, RawText: "text"})
	assert.Error(t, err, "空文档ID应报错")

	err = engine.IngestDocument(ctx, types.Document{ID: "x", Role: types.RoleCandidate, RawText: ""})
	assert.ErrorIs(t, err, matcher.ErrEmptyDocument, "空文本入库应报错")

	err = engine.IngestDocument(ctx, types.Document{ID: "x", Role: "UNKNOWN", RawText: "text"})
	assert.Error(t, err, "未知角色应报错")
}

func TestFindSimilarWithoutIndex(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{})

	_, err := engine.FindSimilarCandidates(context.Background(), "any text", 5)
	assert.ErrorIs(t, err, matcher.ErrIndexNotConfigured, "未配置索引时检索应返回专用错误")

	err = engine.IngestDocument(context.Background(), types.Document{ID: "x", Role: types.RoleCandidate, RawText: "text"})
	assert.ErrorIs(t, err, matcher.ErrIndexNotConfigured)
}

// memProfileCache 进程内画像缓存，替代Redis用于缓存语义测试
type memProfileCache struct {
	mu       sync.Mutex
	profiles map[string]*types.ExtractedProfile
	puts     int
}

func newMemProfileCache() *memProfileCache {
	return &memProfileCache{profiles: make(map[string]*types.ExtractedProfile)}
}

func (c *memProfileCache) GetProfile(ctx context.Context, documentID string) (*types.ExtractedProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if profile, ok := c.profiles[documentID]; ok {
		return profile, nil
	}
	return nil, storage.ErrProfileNotCached
}

func (c *memProfileCache) PutProfile(ctx context.Context, documentID string, profile *types.ExtractedProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[documentID] = profile
	c.puts++
	return nil
}

func (c *memProfileCache) InvalidateProfile(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, documentID)
	return nil
}

// TestEvaluateMatchRecomputesProfileOnTextChange 同一文档ID换了文本后，
// 缓存的旧画像必须作废重算，不能把旧技能评给新文本
func TestEvaluateMatchRecomputesProfileOnTextChange(t *testing.T) {
	cache := newMemProfileCache()
	engine := newTestEngine(t, &stubEmbedder{}, matcher.WithProfileCache(cache))
	ctx := context.Background()

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Looking for a Python developer."}
	candidate := types.Document{ID: "cand-1", Role: types.RoleCandidate, RawText: "Python developer with five years experience."}

	first, err := engine.EvaluateMatch(ctx, job, candidate)
	require.NoError(t, err)
	assert.Contains(t, first.SkillMatches, "python")

	candidate.RawText = "Java and Spring engineer."
	second, err := engine.EvaluateMatch(ctx, job, candidate)
	require.NoError(t, err)
	assert.NotContains(t, second.SkillMatches, "python", "文本变更后不应沿用缓存的旧画像")
	assert.Contains(t, second.MissingSkills, "python")
}

// TestProfileCacheHitAndRefresh 文本未变时命中缓存不重写；文本变了才覆盖
func TestProfileCacheHitAndRefresh(t *testing.T) {
	cache := newMemProfileCache()
	engine := newTestEngine(t, &stubEmbedder{}, matcher.WithProfileCache(cache))
	ctx := context.Background()

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Go developer wanted."}
	candidate := types.Document{ID: "cand-1", Role: types.RoleCandidate, RawText: "Go developer."}

	_, err := engine.EvaluateMatch(ctx, job, candidate)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.puts, "首次评估应写入岗位与候选人两份画像")

	_, err = engine.EvaluateMatch(ctx, job, candidate)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.puts, "文本未变时应命中缓存，不重复写入")

	candidate.RawText = "Rust developer."
	_, err = engine.EvaluateMatch(ctx, job, candidate)
	require.NoError(t, err)
	assert.Equal(t, 3, cache.puts, "候选人文本变更后应重算并覆盖缓存")
	assert.Contains(t, cache.profiles["cand-1"].Skills, "rust")
}

// TestIngestRefreshesCachedProfile 重新入库新文本后，缓存画像必须同步刷新
func TestIngestRefreshesCachedProfile(t *testing.T) {
	idx, err := storage.NewBoltVectorIndex(t.TempDir()+"/vec.db", stubDims, "job_postings", "candidates")
	require.NoError(t, err)
	defer idx.Close()

	cache := newMemProfileCache()
	engine := newTestEngine(t, &stubEmbedder{},
		matcher.WithVectorIndex(idx, "job_postings", "candidates"),
		matcher.WithProfileCache(cache))
	ctx := context.Background()

	require.NoError(t, engine.IngestDocument(ctx, types.Document{
		ID: "cand-1", Role: types.RoleCandidate, RawText: "Python developer.",
	}))
	assert.Contains(t, cache.profiles["cand-1"].Skills, "python")

	require.NoError(t, engine.IngestDocument(ctx, types.Document{
		ID: "cand-1", Role: types.RoleCandidate, RawText: "Java developer.",
	}))
	assert.Contains(t, cache.profiles["cand-1"].Skills, "java")
	assert.NotContains(t, cache.profiles["cand-1"].Skills, "python", "入库新文本后旧画像不应残留")
}

// TestIngestTruncatesOnRuneBoundary 中文文本截断不能把多字节字符切成两半
func TestIngestTruncatesOnRuneBoundary(t *testing.T) {
	idx, err := storage.NewBoltVectorIndex(t.TempDir()+"/vec.db", stubDims, "job_postings", "candidates")
	require.NoError(t, err)
	defer idx.Close()

	engine := newTestEngine(t, &stubEmbedder{}, matcher.WithVectorIndex(idx, "job_postings", "candidates"))
	ctx := context.Background()

	long := strings.Repeat("资深后端工程师，负责高并发分布式服务。", 30)
	require.Greater(t, len(long), 1000)
	require.NoError(t, engine.IngestDocument(ctx, types.Document{ID: "cand-cn", Role: types.RoleCandidate, RawText: long}))

	results, err := engine.FindSimilarCandidates(ctx, long, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	content := results[0].Metadata["content"]
	assert.LessOrEqual(t, len(content), 1000)
	assert.True(t, utf8.ValidString(content), "截断后的文本前缀必须是合法UTF-8")
	assert.True(t, strings.HasPrefix(long, content), "前缀应与原文逐字符一致")
}

// fixedAdvisor 返回固定建议的测试顾问
type fixedAdvisor struct {
	suggestions []string
	err         error
}

func (f *fixedAdvisor) Suggest(ctx context.Context, jobText, candidateText string, missingSkills []string) ([]string, error) {
	return f.suggestions, f.err
}

func TestEvaluateMatchWithAdvisor(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{},
		matcher.WithAdvisor(&fixedAdvisor{suggestions: []string{"突出分布式系统项目经验"}}))

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Go developer"}
	candidate := types.Document{ID: "cand-1", Role: types.RoleCandidate, RawText: "Java developer"}

	result, err := engine.EvaluateMatch(context.Background(), job, candidate)
	require.NoError(t, err)
	assert.Equal(t, []string{"突出分布式系统项目经验"}, result.AISuggestions)
	assert.NotEqual(t, result.ImprovementSuggestions, result.AISuggestions, "LLM建议与确定性建议应分开存放")
}

func TestEvaluateMatchAdvisorFailureIsNonFatal(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{},
		matcher.WithAdvisor(&fixedAdvisor{err: fmt.Errorf("llm不可用")}))

	job := types.Document{ID: "job-1", Role: types.RoleJobPosting, RawText: "Go developer"}
	candidate := types.Document{ID: "cand-1", Role: types.RoleCandidate, RawText: "Go developer"}

	result, err := engine.EvaluateMatch(context.Background(), job, candidate)
	require.NoError(t, err, "顾问失败不应影响评估")
	assert.Empty(t, result.AISuggestions)
	assert.True(t, result.HardMatchComputed)
}
