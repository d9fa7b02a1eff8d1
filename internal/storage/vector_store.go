package storage

import (
	"context"
	"errors"
)

// ErrIndexUnavailable 向量索引不可达。依赖索引的操作（相似检索）因此失败，
// 但不影响不经过索引的配对embedding相似度评分。
var ErrIndexUnavailable = errors.New("向量索引不可用")

// VectorEntry 近邻查询的一条结果。
// Distance 是索引的原生距离（0为最近，单调非减）；相似度换算为 similarity = 1 - distance，
// 调用方不得把 Distance 直接当作相似度使用。
type VectorEntry struct {
	DocumentID string
	Distance   float64
	Metadata   map[string]string
}

// VectorIndex 向量索引接口。两个逻辑集合：岗位描述与候选人。
// Upsert 幂等：同一 documentID 重复写入会替换旧的向量与元数据，不产生重复条目。
// 实现必须对每个集合串行化写入，同时允许并发读取。
type VectorIndex interface {
	// Upsert 写入或替换一个文档的向量
	Upsert(ctx context.Context, collection string, documentID string, vector []float64, metadata map[string]string) error

	// Query 返回与查询向量最近的至多k个条目，按距离非降序排列
	Query(ctx context.Context, collection string, vector []float64, k int) ([]VectorEntry, error)

	// Delete 按文档ID删除
	Delete(ctx context.Context, collection string, documentID string) error

	// Close 释放底层资源
	Close() error
}
