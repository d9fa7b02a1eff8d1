package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"resume-match-go/internal/embedding"
)

// BoltVectorIndex 基于BoltDB的本地持久化向量索引。
// 暴力余弦检索，规模可控时足够；集合对应各自的bucket。
// 写入用互斥锁串行化，读取共享锁并发进行。
type BoltVectorIndex struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	// 内存镜像，检索不走磁盘
	collections map[string]map[string]boltEntry
}

type boltEntry struct {
	vector   []float64
	metadata map[string]string
}

type storedVector struct {
	Vector   []float64         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

var _ VectorIndex = (*BoltVectorIndex)(nil)

// NewBoltVectorIndex 打开(或创建)本地索引文件并预创建集合bucket
func NewBoltVectorIndex(path string, dimension int, collections ...string) (*BoltVectorIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("向量维度无效: %d", dimension)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开索引文件失败: %v", ErrIndexUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, c := range collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(c)); err != nil {
				return fmt.Errorf("创建集合 %s 失败: %w", c, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	idx := &BoltVectorIndex{
		db:          db,
		dimension:   dimension,
		collections: make(map[string]map[string]boltEntry),
	}

	if err := idx.loadAll(collections); err != nil {
		db.Close()
		return nil, fmt.Errorf("加载已有向量失败: %w", err)
	}

	return idx, nil
}

// loadAll 将已持久化的向量载入内存镜像
func (s *BoltVectorIndex) loadAll(collections []string) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		for _, c := range collections {
			b := tx.Bucket([]byte(c))
			if b == nil {
				continue
			}
			entries := make(map[string]boltEntry)
			err := b.ForEach(func(k, v []byte) error {
				var stored storedVector
				if err := json.Unmarshal(v, &stored); err != nil {
					return nil // 跳过损坏条目
				}
				entries[string(k)] = boltEntry{vector: stored.Vector, metadata: stored.Metadata}
				return nil
			})
			if err != nil {
				return err
			}
			s.collections[c] = entries
		}
		return nil
	})
}

// Upsert 写入或替换一个文档的向量（幂等）
func (s *BoltVectorIndex) Upsert(ctx context.Context, collection string, documentID string, vector []float64, metadata map[string]string) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("向量维度不匹配: 期望%d, 实际%d", s.dimension, len(vector))
	}
	if documentID == "" {
		return fmt.Errorf("documentID不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		data, err := json.Marshal(storedVector{Vector: vector, Metadata: metadata})
		if err != nil {
			return err
		}
		return b.Put([]byte(documentID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: 写入向量失败: %v", ErrIndexUnavailable, err)
	}

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]boltEntry)
	}
	s.collections[collection][documentID] = boltEntry{vector: vector, metadata: metadata}
	return nil
}

// Query 暴力余弦检索，返回距离非降序的前k个条目。
// 距离定义为 1 - cosine，自身查询的距离为0。
func (s *BoltVectorIndex) Query(ctx context.Context, collection string, vector []float64, k int) ([]VectorEntry, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("查询向量维度不匹配: 期望%d, 实际%d", s.dimension, len(vector))
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.collections[collection]
	if len(entries) == 0 {
		return nil, nil
	}

	results := make([]VectorEntry, 0, len(entries))
	for id, entry := range entries {
		dist := 1 - embedding.CosineSimilarity(vector, entry.vector)
		results = append(results, VectorEntry{
			DocumentID: id,
			Distance:   dist,
			Metadata:   entry.metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Delete 按文档ID删除
func (s *BoltVectorIndex) Delete(ctx context.Context, collection string, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(documentID))
	})
	if err != nil {
		return fmt.Errorf("%w: 删除向量失败: %v", ErrIndexUnavailable, err)
	}

	delete(s.collections[collection], documentID)
	return nil
}

// Count 返回集合内向量数
func (s *BoltVectorIndex) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// Close 关闭底层数据库
func (s *BoltVectorIndex) Close() error {
	return s.db.Close()
}
