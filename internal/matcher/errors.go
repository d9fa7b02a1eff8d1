package matcher

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrEmbedderNotInit    = errors.New("嵌入器未初始化")
	ErrExtractorNotInit   = errors.New("特征提取器未初始化")
	ErrEmbeddingFailed    = errors.New("生成嵌入向量失败")
	ErrIndexNotConfigured = errors.New("向量索引未配置")
	ErrEmptyDocument      = errors.New("文档文本为空")
	ErrIngestFailed       = errors.New("文档入库失败")
)

// MatchError 包含配对上下文的自定义错误
type MatchError struct {
	JobID       string
	CandidateID string
	Op          string
	BaseErr     error
	Detail      string
}

func (e *MatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 岗位:%s, 候选人:%s): %s", e.BaseErr, e.Op, e.JobID, e.CandidateID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 岗位:%s, 候选人:%s)", e.BaseErr, e.Op, e.JobID, e.CandidateID)
}

func (e *MatchError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *MatchError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewEmbeddingError 嵌入失败错误
func NewEmbeddingError(jobID, candidateID, detail string) error {
	return &MatchError{
		JobID:       jobID,
		CandidateID: candidateID,
		Op:          "embed",
		BaseErr:     ErrEmbeddingFailed,
		Detail:      detail,
	}
}

// NewIngestError 入库失败错误
func NewIngestError(documentID, detail string) error {
	return &MatchError{
		CandidateID: documentID,
		Op:          "ingest",
		BaseErr:     ErrIngestFailed,
		Detail:      detail,
	}
}
