package filter

import (
	"fmt"
	"sync"

	"context"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/banditkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是基于 CEL (Common Expression Language) 的候选准入规则过滤器。
// 表达式描述“准入”条件：求值为 true 的候选保留，false 的被过滤。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：candidate.score > 0.2 / candidate.features.popularity >= 0.1
//   - 类型：candidate.type == "song"
//   - 标签：label.recall_source.contains("movie")
//   - 逻辑：candidate.type == "movie" && candidate.score > 0.5
//
// 示例：
//   - `candidate.features.popularity >= 0.05` → 剔除完全无人问津的候选
//   - `!(candidate.type == "movie" && rctx.emotion == "fear")` → 情绪规避规则
type RuleFilter struct {
	expr string
	prg  cel.Program
}

// NewRuleFilter 编译表达式并创建过滤器。
// 表达式只编译一次，ShouldFilter 可被并发调用。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("filter: cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filter: compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter: program rule %q: %w", expr, err)
	}

	return &RuleFilter{expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	cand *core.Candidate,
) (bool, error) {
	out, _, err := f.prg.Eval(f.buildInput(rctx, cand))
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误；
		// 规则求值失败按保留处理，由 FilterNode 统一跳过
		return false, fmt.Errorf("filter: eval rule %q: %w", f.expr, err)
	}

	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter: rule %q must return boolean, got %T", f.expr, out.Value())
	}
	return !keep, nil
}

func (f *RuleFilter) buildInput(rctx *core.RecommendContext, cand *core.Candidate) map[string]interface{} {
	// label.recall_source 直接取 value；存在性检查用 label.key != null
	labelAccessor := make(map[string]interface{}, len(cand.Labels))
	for k, v := range cand.Labels {
		labelAccessor[k] = v.Value
	}

	candidate := map[string]interface{}{
		"type":     string(cand.Type),
		"id":       cand.ID,
		"score":    cand.Score,
		"features": cand.Features,
		"meta":     cand.Meta,
	}

	rc := map[string]interface{}{}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["emotion"] = rctx.Emotion
		rc["params"] = rctx.Params
		rc["year_start"] = rctx.Window.StartYear
		rc["year_end"] = rctx.Window.EndYear
	}

	return map[string]interface{}{
		"candidate": candidate,
		"label":     labelAccessor,
		"rctx":      rc,
	}
}
