package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"resume-match-go/internal/types"
)

// 定义match命令的命令行参数
var (
	matchJobFile    = flag.String("match-job", "", "岗位描述文本文件路径 (必填)")
	matchResumeFile = flag.String("match-resume", "", "候选人简历文本文件路径 (必填)")
	matchJobID      = flag.String("match-job-id", "job-1", "岗位文档ID")
	matchResumeID   = flag.String("match-resume-id", "candidate-1", "候选人文档ID")
)

// 处理单对评估命令
func handleMatchCommand() {
	if *matchJobFile == "" || *matchResumeFile == "" {
		fmt.Println("错误: 必须提供 -match-job 和 -match-resume 参数。")
		flag.Usage()
		os.Exit(1)
	}

	jobText, err := os.ReadFile(*matchJobFile)
	if err != nil {
		fmt.Printf("读取岗位描述失败: %v\n", err)
		os.Exit(1)
	}
	resumeText, err := os.ReadFile(*matchResumeFile)
	if err != nil {
		fmt.Printf("读取简历失败: %v\n", err)
		os.Exit(1)
	}

	app, err := buildApp(false)
	if err != nil {
		fmt.Printf("初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	job := types.Document{ID: *matchJobID, Role: types.RoleJobPosting, RawText: string(jobText)}
	candidate := types.Document{ID: *matchResumeID, Role: types.RoleCandidate, RawText: string(resumeText)}

	result, err := app.engine.EvaluateMatch(context.Background(), job, candidate)
	if err != nil {
		fmt.Printf("评估失败: %v\n", err)
		os.Exit(1)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("序列化结果失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}
