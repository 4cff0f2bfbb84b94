package recall

import (
	"context"

	"github.com/rushteam/banditkit/core"
)

// Source 表示一个外部候选召回源（歌曲内容相似 / 电影混合矩阵分解）。
// 对决策核心而言召回源是黑盒：输入请求上下文，输出带特征的候选列表。
// 你可以把它理解为“可并发 fan-out 且允许单路失败的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}
