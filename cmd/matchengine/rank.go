package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"resume-match-go/internal/types"
)

// 定义rank命令的命令行参数
var (
	rankJobFile   = flag.String("rank-job", "", "岗位描述文本文件路径 (必填)")
	rankResumeDir = flag.String("rank-dir", "", "简历目录，目录下每个.txt文件视为一份简历 (必填)")
	rankJobID     = flag.String("rank-job-id", "job-1", "岗位文档ID")
)

// 处理批量排序命令
func handleRankCommand() {
	if *rankJobFile == "" || *rankResumeDir == "" {
		fmt.Println("错误: 必须提供 -rank-job 和 -rank-dir 参数。")
		flag.Usage()
		os.Exit(1)
	}

	jobText, err := os.ReadFile(*rankJobFile)
	if err != nil {
		fmt.Printf("读取岗位描述失败: %v\n", err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(*rankResumeDir)
	if err != nil {
		fmt.Printf("读取简历目录失败: %v\n", err)
		os.Exit(1)
	}

	var candidates []types.CandidateDocument
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	// 目录遍历顺序不保证，排序后输入顺序才是确定的
	sort.Strings(names)

	for _, name := range names {
		text, err := os.ReadFile(filepath.Join(*rankResumeDir, name))
		if err != nil {
			fmt.Printf("读取简历 %s 失败: %v, 跳过\n", name, err)
			continue
		}
		candidates = append(candidates, types.CandidateDocument{
			ID:   strings.TrimSuffix(name, ".txt"),
			Text: string(text),
		})
	}

	if len(candidates) == 0 {
		fmt.Println("错误: 目录下没有可用的.txt简历文件。")
		os.Exit(1)
	}

	app, err := buildApp(false)
	if err != nil {
		fmt.Printf("初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	job := types.Document{ID: *rankJobID, Role: types.RoleJobPosting, RawText: string(jobText)}

	results, err := app.engine.RankCandidates(context.Background(), job, candidates)
	if err != nil {
		fmt.Printf("批量评估失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("共评估 %d 份简历 (输入 %d 份):\n\n", len(results), len(candidates))
	for i, r := range results {
		fmt.Printf("%2d. %-24s 综合: %6.2f%%  硬匹配: %.3f  语义: %.3f  适配度: %s\n",
			i+1, r.CandidateID, r.ScorePercentage, r.HardMatchScore, r.SemanticMatchScore, r.Suitability)
		if len(r.MissingSkills) > 0 {
			fmt.Printf("    缺失技能: %s\n", strings.Join(r.MissingSkills, ", "))
		}
	}
}
