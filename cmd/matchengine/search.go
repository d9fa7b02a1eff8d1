package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"resume-match-go/internal/types"
)

// 定义search命令的命令行参数
var (
	searchFile  = flag.String("search-file", "", "查询文本文件路径 (必填)")
	searchIn    = flag.String("search-in", "candidates", "检索目标集合: candidates=用岗位找人, jobs=用简历找岗位")
	searchLimit = flag.Int("search-limit", 0, "返回数量，0使用配置默认值")
)

// 处理相似检索命令
func handleSearchCommand() {
	if *searchFile == "" {
		fmt.Println("错误: 必须提供 -search-file 参数。")
		flag.Usage()
		os.Exit(1)
	}

	text, err := os.ReadFile(*searchFile)
	if err != nil {
		fmt.Printf("读取查询文件失败: %v\n", err)
		os.Exit(1)
	}

	app, err := buildApp(true)
	if err != nil {
		fmt.Printf("初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	ctx := context.Background()
	var results []types.SimilarDocument

	switch *searchIn {
	case "candidates":
		results, err = app.engine.FindSimilarCandidates(ctx, string(text), *searchLimit)
	case "jobs":
		results, err = app.engine.FindSimilarJobs(ctx, string(text), *searchLimit)
	default:
		fmt.Printf("错误: 未知检索目标 '%s'，支持 candidates 或 jobs。\n", *searchIn)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("检索失败: %v\n", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Println("没有找到相似文档。")
		return
	}

	fmt.Printf("找到 %d 个相似文档:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%2d. %-24s 相似度: %.4f\n", i+1, r.DocumentID, r.Similarity)
		if preview, ok := r.Metadata["content"]; ok && preview != "" {
			if len(preview) > 120 {
				preview = preview[:120] + "..."
			}
			fmt.Printf("    %s\n", preview)
		}
	}
}
