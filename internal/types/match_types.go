package types

// DocumentRole 表示文档在匹配流程中的角色
type DocumentRole string

const (
	// RoleJobPosting 岗位描述文档
	RoleJobPosting DocumentRole = "JOB_POSTING"
	// RoleCandidate 候选人简历文档
	RoleCandidate DocumentRole = "CANDIDATE"
)

// Suitability 匹配适配度等级
type Suitability string

const (
	// SuitabilityHigh 高匹配度 (combined >= high threshold)
	SuitabilityHigh Suitability = "High"
	// SuitabilityMedium 中等匹配度
	SuitabilityMedium Suitability = "Medium"
	// SuitabilityLow 低匹配度
	SuitabilityLow Suitability = "Low"
)

// Document 一份已提取纯文本的文档。文本由外部解析服务提供，引擎不负责二进制格式解析。
// 一旦构建完成即视为不可变；ID由调用方分配。
type Document struct {
	ID             string            `json:"id"`
	Role           DocumentRole      `json:"role"`
	RawText        string            `json:"raw_text"`
	NormalizedText string            `json:"normalized_text,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ExtractedProfile 从文档文本中提取的结构化特征。
// 各集合内部无重复且已做大小写归一化。skills/certs 按词表顺序排列，
// keywords 按字典序排列，保证下游模糊匹配的平局裁决是确定性的。
type ExtractedProfile struct {
	Skills         []string `json:"skills"`
	Keywords       []string `json:"keywords"`
	Certifications []string `json:"certifications"`

	// TextHash 来源文本指纹。缓存的画像凭它判定是否仍对应当前文本，
	// 文本变更后指纹失配，画像按未命中处理并重算。
	TextHash string `json:"text_hash,omitempty"`
}

// FuzzyMatch 一次模糊技能匹配结果（瞬态，不持久化）
type FuzzyMatch struct {
	// TargetTerm 岗位要求的技能词
	TargetTerm string `json:"target_term"`
	// MatchedTerm 简历中匹配到的技能词
	MatchedTerm string `json:"matched_term"`
	// Similarity 归一化相似度 [0,1]
	Similarity float64 `json:"similarity"`
}

// HardMatchResult 硬匹配（词法/结构重叠）评分结果
type HardMatchResult struct {
	Score float64 `json:"hard_match_score"`

	SkillMatches   []string              `json:"skill_matches"`
	KeywordMatches []string              `json:"keyword_matches"`
	CertMatches    []string              `json:"cert_matches"`
	FuzzyMatches   map[string]FuzzyMatch `json:"fuzzy_skill_matches"`
	MissingSkills  []string              `json:"missing_skills"`
	MissingCerts   []string              `json:"missing_certs"`

	// 分类子得分（原始实现同样输出这些，便于调参与排查）
	SkillScore   float64 `json:"skill_score"`
	KeywordScore float64 `json:"keyword_score"`
	CertScore    float64 `json:"cert_score"`

	// Computed 标记该子得分是真实计算出来的还是因提取失败而降级为零值
	Computed bool `json:"computed"`
}

// SentenceAlignment 岗位句子与简历句子的最佳对齐（诊断输出，不参与评分）
type SentenceAlignment struct {
	JobSentence       string  `json:"job_sentence"`
	CandidateSentence string  `json:"candidate_sentence"`
	Similarity        float64 `json:"similarity"`
}

// SemanticMatchResult 语义匹配评分结果
type SemanticMatchResult struct {
	Score float64 `json:"semantic_match_score"`

	// SentenceAlignments 句子级对齐，句子切分能力缺失时为空
	SentenceAlignments []SentenceAlignment `json:"sentence_alignments,omitempty"`

	// Computed 标记该子得分是否成功计算（embedding服务不可用时为false，得分降级为0）
	Computed bool `json:"computed"`
}

// Feedback 规则级反馈输出
type Feedback struct {
	MissingSkills         []string `json:"missing_skills"`
	MissingCertifications []string `json:"missing_certifications"`
	// Suggestions 确定性规则产生的改进建议，顺序固定
	Suggestions []string `json:"improvement_suggestions"`
}

// MatchResult 一次 (岗位, 候选人) 配对评估的完整输出。
// 引擎对它无状态：是否持久化、是否幂等重算由调用方决定。
type MatchResult struct {
	JobID       string `json:"job_id,omitempty"`
	CandidateID string `json:"candidate_id,omitempty"`

	HardMatchScore     float64     `json:"hard_match_score"`
	SemanticMatchScore float64     `json:"semantic_match_score"`
	CombinedScore      float64     `json:"combined_score"`
	ScorePercentage    float64     `json:"score_percentage"`
	Suitability        Suitability `json:"suitability"`

	SkillMatches          []string              `json:"skill_matches"`
	KeywordMatches        []string              `json:"keyword_matches"`
	CertificationMatches  []string              `json:"certification_matches"`
	FuzzySkillMatches     map[string]FuzzyMatch `json:"fuzzy_skill_matches"`
	MissingSkills         []string              `json:"missing_skills"`
	MissingCertifications []string              `json:"missing_certifications"`

	ImprovementSuggestions []string `json:"improvement_suggestions"`
	// AISuggestions 可选的LLM增强建议，与确定性建议严格分开
	AISuggestions []string `json:"ai_suggestions,omitempty"`

	SentenceAlignments []SentenceAlignment `json:"sentence_alignments,omitempty"`

	// 可用性标记：消费方据此区分"确实低分"与"未能计算"
	HardMatchComputed     bool `json:"hard_match_computed"`
	SemanticMatchComputed bool `json:"semantic_match_computed"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// CandidateDocument 批量排序的输入项
type CandidateDocument struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SimilarDocument 向量近邻查询的一条结果
type SimilarDocument struct {
	DocumentID string            `json:"document_id"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
