package main

import (
	"fmt"
	"time"

	"resume-match-go/internal/config"
	"resume-match-go/internal/embedding"
	"resume-match-go/internal/llm"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/storage"
)

// appContext 组装好的应用依赖
type appContext struct {
	cfg    *config.Config
	engine *matcher.Engine
	index  storage.VectorIndex
	cache  *storage.ProfileCache
}

// close 释放外部资源
func (a *appContext) close() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭向量索引失败")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}

// buildApp 从配置组装完整引擎。
// needIndex 为 false 时跳过向量索引（match/rank 用不到，避免无谓的依赖要求）。
func buildApp(needIndex bool) (*appContext, error) {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger.Init(cfg.Logger)

	embedder, err := embedding.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		return nil, fmt.Errorf("创建嵌入器失败: %w", err)
	}
	provider, err := embedding.NewProvider(embedder)
	if err != nil {
		return nil, fmt.Errorf("创建嵌入提供方失败: %w", err)
	}

	app := &appContext{cfg: cfg}

	engineOpts := []matcher.EngineOption{
		matcher.WithDefaultSearchLimit(cfg.Vector.DefaultSearchLimit),
	}

	if needIndex {
		index, err := buildVectorIndex(cfg)
		if err != nil {
			return nil, err
		}
		app.index = index
		engineOpts = append(engineOpts, matcher.WithVectorIndex(index, cfg.Vector.JobCollection, cfg.Vector.CandidateCollection))
	}

	// Redis是可选加速层，连不上时降级为每次重新抽取画像
	if cfg.Redis.Address != "" {
		cache, err := storage.NewProfileCache(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("画像缓存不可用，继续无缓存运行")
		} else {
			app.cache = cache
			engineOpts = append(engineOpts, matcher.WithProfileCache(cache))
		}
	}

	// LLM建议是可选增强，初始化失败只损失AI建议
	if cfg.Advisor.Enabled {
		chatModel, err := llm.NewAliyunChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.APIURL, cfg.Advisor,
			llm.WithChatHTTPTimeout(config.GetDuration(cfg.Advisor.SuggestTimeout, 60*time.Second)))
		if err != nil {
			logger.Warn().Err(err).Msg("创建LLM聊天模型失败，跳过AI建议")
		} else {
			advisor, err := matcher.NewLLMSuggestionAdvisor(chatModel,
				matcher.WithMaxSuggestions(cfg.Advisor.MaxSuggestions))
			if err != nil {
				logger.Warn().Err(err).Msg("创建建议顾问失败，跳过AI建议")
			} else {
				engineOpts = append(engineOpts, matcher.WithAdvisor(advisor))
			}
		}
	}

	engine, err := matcher.NewEngine(cfg.Matcher, provider, engineOpts...)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("创建匹配引擎失败: %w", err)
	}
	app.engine = engine

	return app, nil
}

// buildVectorIndex 按配置类型选择索引后端
func buildVectorIndex(cfg *config.Config) (storage.VectorIndex, error) {
	switch cfg.Vector.Type {
	case "qdrant":
		index, err := storage.NewQdrantIndex(&cfg.Vector)
		if err != nil {
			return nil, fmt.Errorf("创建Qdrant索引失败: %w", err)
		}
		return index, nil
	case "", "boltdb":
		path := cfg.Vector.Path
		if path == "" {
			path = "vectors.db"
		}
		index, err := storage.NewBoltVectorIndex(path, cfg.Vector.Dimension,
			cfg.Vector.JobCollection, cfg.Vector.CandidateCollection)
		if err != nil {
			return nil, fmt.Errorf("创建BoltDB索引失败: %w", err)
		}
		return index, nil
	default:
		return nil, fmt.Errorf("未知的向量索引类型: %s", cfg.Vector.Type)
	}
}
