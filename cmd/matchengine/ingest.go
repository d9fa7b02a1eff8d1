package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"resume-match-go/internal/types"
)

// 定义ingest命令的命令行参数
var (
	ingestFile = flag.String("ingest-file", "", "要入库的文本文件路径 (必填)")
	ingestID   = flag.String("ingest-id", "", "文档ID (留空时自动生成UUID)")
	ingestRole = flag.String("ingest-role", "candidate", "文档角色: job 或 candidate")
)

// 处理文档入库命令
func handleIngestCommand() {
	if *ingestFile == "" {
		fmt.Println("错误: 必须提供 -ingest-file 参数。")
		flag.Usage()
		os.Exit(1)
	}
	docID := *ingestID
	if docID == "" {
		docID = uuid.New().String()
	}

	var role types.DocumentRole
	switch *ingestRole {
	case "job":
		role = types.RoleJobPosting
	case "candidate":
		role = types.RoleCandidate
	default:
		fmt.Printf("错误: 未知角色 '%s'，支持 job 或 candidate。\n", *ingestRole)
		os.Exit(1)
	}

	text, err := os.ReadFile(*ingestFile)
	if err != nil {
		fmt.Printf("读取文件失败: %v\n", err)
		os.Exit(1)
	}

	app, err := buildApp(true)
	if err != nil {
		fmt.Printf("初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	doc := types.Document{ID: docID, Role: role, RawText: string(text)}
	if err := app.engine.IngestDocument(context.Background(), doc); err != nil {
		fmt.Printf("入库失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("文档 %s 已入库 (角色: %s)\n", docID, role)
}
