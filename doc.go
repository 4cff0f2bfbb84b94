// Package banditkit 是怀旧内容推荐的上下文 Bandit 决策核心。
//
// 设计要点：
// - Pipeline-first: 决策链路通过 Node 串联（Recall → Filter → Decision）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
// - 按臂原子: 臂参数的更新与持久化以臂为单位串行且原子，不同臂互不阻塞
//
// 两路外部召回（歌曲内容相似 / 电影混合矩阵分解）是黑盒协作方：
// 单路失败降级、双路失败兜底，服务路径永不因召回失败而崩溃。
package banditkit

import "github.com/rushteam/banditkit/pipeline"

// 轻量 facade：便于用户直接 import "banditkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindDecision    = pipeline.KindDecision
	KindPostProcess = pipeline.KindPostProcess
)
