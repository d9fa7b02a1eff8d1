package main

import (
	"flag"
	"fmt"
	"os"
)

// 命令行参数定义
var (
	configPath = flag.String("config", "", "配置文件路径 (留空时按默认位置查找)")
	command    = flag.String("cmd", "match", "执行的命令: match=单对评估, rank=批量排序, ingest=文档入库, search=相似检索")
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 根据命令执行不同的功能
	switch *command {
	case "match":
		handleMatchCommand()
	case "rank":
		handleRankCommand()
	case "ingest":
		handleIngestCommand()
	case "search":
		handleSearchCommand()
	default:
		fmt.Printf("错误: 未知命令 '%s'。支持的命令: match, rank, ingest, search\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}
