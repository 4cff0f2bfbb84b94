package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/banditkit/core"
)

// Dim 是上下文向量的固定维度。策略版本存续期内不可变；
// 布局变更必须同时递增 core.ArmRecordVersion。
const Dim = 12

// 上下文向量布局（索引从 0 开始）：
//
//	[0]     压力水平 stress ∈ [0,1]（缺失 → 0）
//	[1..7]  情绪 one-hot：anger / fear / joy / love / neutral / sadness / surprise
//	        （无情绪读数 → 全 0）
//	[8]     内容类型指示：song=0, movie=1
//	[9]     年份偏移：(发行年份 - 窗口中心) / 半窗宽，截断到 [-1,1]（无年份 → 0）
//	[10]    流行度 ∈ [0,1]（已由召回源归一化，越界截断）
//	[11]    用户历史正反馈率 ∈ [0,1]（缺失 → 0.5 中性先验）
//
// 流派不进入上下文向量：臂按 内容类型+流派桶 划分（见 genre.go），
// disjoint 线性模型下流派信息由臂标识本身承载。
var Emotions = []string{"anger", "fear", "joy", "love", "neutral", "sadness", "surprise"}

// StatsProvider 提供用户级统计特征（如历史正反馈率）。
// 实现可以是 Feast 在线特征存储（见 feast.go），也可以是上层自带的缓存。
// 取数失败属于可降级场景：Builder 回落到中性先验，不阻断服务路径。
type StatsProvider interface {
	PositiveRate(ctx context.Context, userID string) (float64, error)
}

// Builder 把原始信号（压力/情绪/内容属性）构造成固定维度的上下文向量。
// 归一化规则确定且纯函数化：同样输入永远得到同样向量。
type Builder struct {
	// Stats 可选的用户统计提供者；nil 或取数失败时正反馈率取 0.5
	Stats StatsProvider
}

// Build 为单个候选构造上下文向量。
//
// 校验规则：
//   - 候选内容类型缺失 → INVALID_CONTEXT（必需信号，调用方 bug）
//   - 压力读数存在但越界 [0,1] → INVALID_CONTEXT
//   - 可选信号缺失 → 映射为文档化的中性值，绝不报错
func (b *Builder) Build(ctx context.Context, rctx *core.RecommendContext, cand *core.Candidate) ([]float64, error) {
	if rctx == nil {
		return nil, core.NewInvalidContext("feature: recommend context is required")
	}
	if cand == nil || cand.Type == "" {
		return nil, core.NewInvalidContext("feature: candidate content type is required")
	}
	if cand.Type != core.ContentTypeSong && cand.Type != core.ContentTypeMovie {
		return nil, core.NewInvalidContext(fmt.Sprintf("feature: unknown content type %q", cand.Type))
	}

	x := make([]float64, Dim)

	// [0] 压力水平
	if rctx.Stress != nil {
		s := *rctx.Stress
		if s < 0 || s > 1 {
			return nil, core.NewInvalidContext(fmt.Sprintf("feature: stress %v out of range [0,1]", s))
		}
		x[0] = s
	}

	// [1..7] 情绪 one-hot
	for i, e := range Emotions {
		if rctx.Emotion == e {
			x[1+i] = 1
		}
	}

	// [8] 内容类型指示
	if cand.Type == core.ContentTypeMovie {
		x[8] = 1
	}

	// [9] 年份偏移
	if year := cand.Year(); year > 0 && !rctx.Window.IsZero() {
		off := (float64(year) - rctx.Window.Center()) / rctx.Window.HalfWidth()
		x[9] = clamp(off, -1, 1)
	}

	// [10] 流行度
	if pop, ok := cand.Features["popularity"]; ok {
		x[10] = clamp(pop, 0, 1)
	}

	// [11] 用户历史正反馈率
	x[11] = b.positiveRate(ctx, rctx)

	return x, nil
}

func (b *Builder) positiveRate(ctx context.Context, rctx *core.RecommendContext) float64 {
	if rctx.PositiveRate != nil {
		return clamp(*rctx.PositiveRate, 0, 1)
	}
	if b.Stats != nil && rctx.UserID != "" {
		if rate, err := b.Stats.PositiveRate(ctx, rctx.UserID); err == nil {
			return clamp(rate, 0, 1)
		}
	}
	return 0.5 // 中性先验
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
