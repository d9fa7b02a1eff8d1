package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/config"
)

// 定义Qdrant的专用tracer
var qdrantTracer = otel.Tracer("resume-match-go/storage/qdrant")

// QdrantPointIDNamespace 基于documentID生成确定性点ID的命名空间，
// 保证同一文档重复写入替换同一个点而不是产生重复点。
var QdrantPointIDNamespace = uuid.Must(uuid.FromString("9b1f6c70-40f2-4d7b-9a1e-6cf2a34d58b3"))

// QdrantIndex 通过Qdrant REST接口实现VectorIndex。
// 距离度量为Cosine；Qdrant返回的score是余弦相似度，
// 对外统一转换为 distance = 1 - score 以满足VectorIndex契约。
type QdrantIndex struct {
	endpoint       string
	apiKey         string
	vectorSize     int
	distanceMetric string
	httpClient     *http.Client
}

var _ VectorIndex = (*QdrantIndex)(nil)

// QdrantOption Qdrant构造选项
type QdrantOption func(*QdrantIndex)

// WithDistanceMetric 设置距离度量
func WithDistanceMetric(metric string) QdrantOption {
	return func(q *QdrantIndex) {
		q.distanceMetric = metric
	}
}

// WithQdrantHTTPTimeout 设置HTTP客户端超时
func WithQdrantHTTPTimeout(timeout time.Duration) QdrantOption {
	return func(q *QdrantIndex) {
		q.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewQdrantIndex 创建Qdrant客户端并确保所需集合存在
func NewQdrantIndex(cfg *config.VectorIndexConfig, opts ...QdrantOption) (*QdrantIndex, error) {
	if cfg == nil {
		return nil, fmt.Errorf("qdrant配置不能为空")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:6333"
	}
	vectorSize := cfg.Dimension
	if vectorSize <= 0 {
		vectorSize = 1024
	}

	q := &QdrantIndex{
		endpoint:       endpoint,
		apiKey:         cfg.APIKey,
		vectorSize:     vectorSize,
		distanceMetric: "Cosine",
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(q)
	}

	for _, collection := range []string{cfg.JobCollection, cfg.CandidateCollection} {
		if collection == "" {
			continue
		}
		if err := q.ensureCollectionExists(context.Background(), collection); err != nil {
			return nil, fmt.Errorf("%w: 确保集合 '%s' 存在失败: %v", ErrIndexUnavailable, collection, err)
		}
	}

	return q, nil
}

func (q *QdrantIndex) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	// 注入OpenTelemetry追踪上下文到HTTP请求
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

// ensureCollectionExists 确保向量集合存在，不存在时创建
func (q *QdrantIndex) ensureCollectionExists(ctx context.Context, collection string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.EnsureCollectionExists",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "check_collection"),
		attribute.String("db.collection", collection),
		attribute.Int("db.vector_size", q.vectorSize),
	)

	url := fmt.Sprintf("%s/collections/%s", q.endpoint, collection)
	req, err := q.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("创建检查集合请求失败: %w", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("发送检查集合请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		span.AddEvent("collection_not_found", trace.WithAttributes(
			attribute.String("action", "create_collection"),
		))
		return q.createCollection(ctx, collection)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("检查集合失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// createCollection 创建新的向量集合
func (q *QdrantIndex) createCollection(ctx context.Context, collection string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.CreateCollection",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "create_collection"),
		attribute.String("db.collection", collection),
		attribute.Int("db.vector_size", q.vectorSize),
		attribute.String("db.vector.distance", q.distanceMetric),
	)

	createReqBody := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.vectorSize,
			"distance": q.distanceMetric,
		},
		"optimizers_config": map[string]interface{}{
			"default_segment_number": 2,
		},
	}
	jsonData, err := json.Marshal(createReqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("序列化创建集合请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", q.endpoint, collection)
	req, err := q.newRequest(ctx, http.MethodPut, url, jsonData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("创建集合请求对象失败: %w", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("发送创建集合请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("创建集合失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// PointID 基于documentID生成确定性点ID (UUIDv5)，保证Upsert幂等
func PointID(documentID string) string {
	return uuid.NewV5(QdrantPointIDNamespace, "document_id:"+documentID).String()
}

// Upsert 写入或替换一个文档的向量
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, documentID string, vector []float64, metadata map[string]string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.Upsert",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "upsert"),
		attribute.String("db.collection", collection),
		attribute.String("document.id", documentID),
	)

	if documentID == "" {
		return fmt.Errorf("documentID不能为空")
	}
	if len(vector) != q.vectorSize {
		err := fmt.Errorf("向量维度不匹配: 期望%d, 实际%d", q.vectorSize, len(vector))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	payload := map[string]interface{}{
		"document_id": documentID,
	}
	for k, v := range metadata {
		payload[k] = v
	}

	upsertBody := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":      PointID(documentID),
				"vector":  vector,
				"payload": payload,
			},
		},
	}
	jsonData, err := json.Marshal(upsertBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("序列化upsert请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.endpoint, collection)
	req, err := q.newRequest(ctx, http.MethodPut, url, jsonData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("创建upsert请求失败: %w", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: 发送upsert请求失败: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("upsert失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// qdrantSearchResponse 检索响应
type qdrantSearchResponse struct {
	Result []struct {
		ID      interface{}            `json:"id"`
		Score   float64                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"result"`
}

// Query 近邻检索，按距离非降序返回至多k个条目
func (q *QdrantIndex) Query(ctx context.Context, collection string, vector []float64, k int) ([]VectorEntry, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.Query",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "search"),
		attribute.String("db.collection", collection),
		attribute.Int("search.limit", k),
	)

	if len(vector) != q.vectorSize {
		err := fmt.Errorf("查询向量维度不匹配: 期望%d, 实际%d", q.vectorSize, len(vector))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	searchBody := map[string]interface{}{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	jsonData, err := json.Marshal(searchBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("序列化检索请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", q.endpoint, collection)
	req, err := q.newRequest(ctx, http.MethodPost, url, jsonData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("创建检索请求失败: %w", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: 发送检索请求失败: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("读取检索响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("检索失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var searchResp qdrantSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("解析检索响应失败: %w", err)
	}

	results := make([]VectorEntry, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		metadata := make(map[string]string)
		docID := ""
		for key, val := range r.Payload {
			s, ok := val.(string)
			if !ok {
				continue
			}
			if key == "document_id" {
				docID = s
				continue
			}
			metadata[key] = s
		}
		// 没有document_id的点无法对外定位，跳过
		if docID == "" {
			continue
		}
		results = append(results, VectorEntry{
			DocumentID: docID,
			// Cosine度量下score即余弦相似度，转为契约要求的距离
			Distance: 1 - r.Score,
			Metadata: metadata,
		})
	}

	span.SetAttributes(attribute.Int("search.result_count", len(results)))
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// Delete 按文档ID删除对应的点
func (q *QdrantIndex) Delete(ctx context.Context, collection string, documentID string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.Delete",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "delete"),
		attribute.String("db.collection", collection),
		attribute.String("document.id", documentID),
	)

	deleteBody := map[string]interface{}{
		"points": []string{PointID(documentID)},
	}
	jsonData, err := json.Marshal(deleteBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("序列化删除请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", q.endpoint, collection)
	req, err := q.newRequest(ctx, http.MethodPost, url, jsonData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("创建删除请求失败: %w", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: 发送删除请求失败: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("删除失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Close Qdrant是远程服务，本地无需释放资源
func (q *QdrantIndex) Close() error {
	return nil
}
