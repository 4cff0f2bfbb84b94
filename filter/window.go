package filter

import (
	"context"

	"github.com/rushteam/banditkit/core"
)

// WindowFilter 校验候选年份是否落在用户的怀旧年代窗口内。
//
// 窗口过滤的主责任在召回服务端（请求里已携带窗口）；此过滤器是
// 服务端过滤失效时的防御性兜底。窗口未设置或候选无年份信息时放行。
type WindowFilter struct{}

func (f *WindowFilter) Name() string { return "filter.window" }

func (f *WindowFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	cand *core.Candidate,
) (bool, error) {
	if rctx == nil || rctx.Window.IsZero() {
		return false, nil
	}
	year := cand.Year()
	if year == 0 {
		return false, nil
	}
	return !rctx.Window.Contains(year), nil
}
