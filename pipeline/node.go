package pipeline

import (
	"context"

	"github.com/rushteam/banditkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：生成候选池
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindDecision    Kind = "decision"    // 决策阶段：Bandit 打分并选出单个候选
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充标签或最终结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 candidates -> 输出 candidates”的形态，方便 Recall 生成、
// Filter 截断、Decision 收敛到单个候选等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}
