package bandit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/banditkit/core"
)

// Epsilon 是分数平手判定的浮点容差。
const Epsilon = 1e-9

// Policy 是 LinUCB 上下文 Bandit 策略（disjoint 线性模型，每臂一套参数）。
// 参考 Li et al., "A Contextual-Bandit Approach to Personalized News
// Article Recommendation", Algorithm 1。
//
// 职责：
//   - 打分：score = θ·x + α·sqrt(xᵀA⁻¹x)
//   - 选择：全臂最大分，平手规则确定可复现（见 Select）
//   - 更新：观测奖励后对被选臂做秩一更新并持久化
//   - 冷启动：臂在首次遇到时惰性创建（优先从 PolicyStore 恢复）
//
// 并发：更新按臂串行（臂内互斥锁），且落盘顺序与更新顺序一致；
// 不同臂的打分/更新互不阻塞；PolicyStore 的单臂写入原子，
// 取消调用不会留下半写状态。
type Policy struct {
	alpha  float64
	lambda float64
	dim    int

	store core.PolicyStore // 可为 nil（纯内存运行）

	mu   sync.RWMutex
	arms map[string]*arm

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option 配置 Policy。
type Option func(*Policy)

// WithAlpha 设置探索系数 α（α>0，越大越偏向探索不足的臂）。
func WithAlpha(alpha float64) Option {
	return func(p *Policy) { p.alpha = alpha }
}

// WithLambda 设置岭正则系数 λ（A 的初始对角值）。
func WithLambda(lambda float64) Option {
	return func(p *Policy) { p.lambda = lambda }
}

// WithPolicyStore 设置臂参数持久化后端。
func WithPolicyStore(store core.PolicyStore) Option {
	return func(p *Policy) { p.store = store }
}

// WithSeed 设置臂内随机决胜的随机源种子（测试下可复现）。
func WithSeed(seed int64) Option {
	return func(p *Policy) { p.rng = rand.New(rand.NewSource(seed)) }
}

// NewPolicy 创建 LinUCB 策略。dim 是上下文向量维度，策略版本内不可变。
func NewPolicy(dim int, opts ...Option) (*Policy, error) {
	if dim <= 0 {
		return nil, core.NewInvalidContext(fmt.Sprintf("bandit: invalid dimension %d", dim))
	}
	p := &Policy{
		alpha:  1.0,
		lambda: 1.0,
		dim:    dim,
		arms:   make(map[string]*arm),
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.alpha <= 0 {
		return nil, core.NewInvalidContext(fmt.Sprintf("bandit: alpha must be > 0, got %v", p.alpha))
	}
	if p.lambda <= 0 {
		return nil, core.NewInvalidContext(fmt.Sprintf("bandit: lambda must be > 0, got %v", p.lambda))
	}
	return p, nil
}

// Dim 返回策略的上下文维度。
func (p *Policy) Dim() int { return p.dim }

// Input 是一条待打分的（候选, 臂, 上下文向量）组合。
// 上下文向量包含候选自身的内容特征，因此同臂的不同候选各有各的 x。
type Input struct {
	Candidate *core.Candidate
	ArmID     string
	Context   []float64
}

// Decision 是选择结果：被选候选及其决策现场（归因反馈时需要）。
type Decision struct {
	Candidate *core.Candidate
	ArmID     string
	Context   []float64
	Predicted float64 // θ·x
	Width     float64 // α·sqrt(xᵀA⁻¹x)
	Score     float64 // Predicted + Width
}

// Select 在候选池上做 UCB 选择。
//
// 规则：
//  1. 臂内：每个候选用自己的上下文打分，取臂内最大分；
//     平手（Epsilon 内）时先验分高者胜，仍平手则用可设种子的随机源均匀选取
//  2. 臂间：最大分胜；平手时更新次数少者胜（偏向探索）；
//     仍平手则取稳定输入序中先出现的臂（确定可复现）
//
// 打分只读臂参数，绝不改写。
func (p *Policy) Select(ctx context.Context, inputs []Input) (*Decision, error) {
	if len(inputs) == 0 {
		return nil, core.ErrCandidatesUnavailable
	}

	type armGroup struct {
		best    []*Decision // 臂内最大分的并列集合（Epsilon 内）
		top     float64
		updates int64
	}
	groups := make(map[string]*armGroup)
	armOrder := make([]string, 0, len(inputs))

	for _, in := range inputs {
		if in.Candidate == nil || in.ArmID == "" {
			return nil, core.NewInvalidContext("bandit: input requires candidate and arm id")
		}
		if len(in.Context) != p.dim {
			return nil, core.NewInvalidContext(
				fmt.Sprintf("bandit: context dim %d does not match policy dim %d", len(in.Context), p.dim))
		}

		ar, err := p.getArm(ctx, in.ArmID)
		if err != nil {
			return nil, err
		}

		x := mat.NewVecDense(p.dim, in.Context)
		pred, width, err := ar.score(x, p.alpha)
		if err != nil {
			return nil, err
		}

		d := &Decision{
			Candidate: in.Candidate,
			ArmID:     in.ArmID,
			Context:   in.Context,
			Predicted: pred,
			Width:     width,
			Score:     pred + width,
		}

		g, ok := groups[in.ArmID]
		if !ok {
			g = &armGroup{updates: ar.updateCount()}
			groups[in.ArmID] = g
			armOrder = append(armOrder, in.ArmID)
			g.best = []*Decision{d}
			g.top = d.Score
			continue
		}
		switch {
		case d.Score > g.top+Epsilon:
			g.best = []*Decision{d}
			g.top = d.Score
		case math.Abs(d.Score-g.top) <= Epsilon:
			g.best = append(g.best, d)
		}
	}

	// 臂间决胜：分数 → 更新次数 → 稳定输入序
	var winner *armGroup
	for _, armID := range armOrder {
		g := groups[armID]
		if winner == nil {
			winner = g
			continue
		}
		switch {
		case g.top > winner.top+Epsilon:
			winner = g
		case math.Abs(g.top-winner.top) <= Epsilon && g.updates < winner.updates:
			winner = g
		}
	}

	return p.pickWithinArm(winner.best), nil
}

// pickWithinArm 对臂内并列候选做决胜：先验分高者胜，仍并列则均匀随机。
func (p *Policy) pickWithinArm(best []*Decision) *Decision {
	if len(best) == 1 {
		return best[0]
	}

	topPrior := math.Inf(-1)
	for _, d := range best {
		if d.Candidate.Score > topPrior {
			topPrior = d.Candidate.Score
		}
	}
	ties := best[:0:0]
	for _, d := range best {
		if math.Abs(d.Candidate.Score-topPrior) <= Epsilon {
			ties = append(ties, d)
		}
	}
	if len(ties) == 1 {
		return ties[0]
	}

	p.rngMu.Lock()
	idx := p.rng.Intn(len(ties))
	p.rngMu.Unlock()
	return ties[idx]
}

// Update 对被选臂应用观测奖励的秩一更新，并持久化更新后的臂参数。
// x 必须是选择时使用的上下文向量（由已下发推荐台账回放）。
func (p *Policy) Update(ctx context.Context, armID string, x []float64, reward float64) error {
	if armID == "" {
		return core.NewInvalidContext("bandit: update requires arm id")
	}
	if len(x) != p.dim {
		return core.NewInvalidContext(
			fmt.Sprintf("bandit: update context dim %d does not match policy dim %d", len(x), p.dim))
	}

	ar, err := p.getArm(ctx, armID)
	if err != nil {
		return err
	}

	// saveMu 横跨更新与落盘：持久化顺序与更新顺序一致，
	// 并发反馈下不会出现旧快照覆盖新快照
	ar.saveMu.Lock()
	defer ar.saveMu.Unlock()

	rec := ar.update(mat.NewVecDense(p.dim, x), reward)

	if p.store != nil {
		if err := p.store.SaveArm(ctx, rec); err != nil {
			return fmt.Errorf("bandit: persist arm %s: %w", armID, err)
		}
	}
	return nil
}

// getArm 返回臂，首次遇到时惰性创建：优先从 PolicyStore 恢复，
// 记录缺失则按 λI / 0 初始化；维度漂移是致命错误（SCHEMA_MISMATCH）。
func (p *Policy) getArm(ctx context.Context, armID string) (*arm, error) {
	p.mu.RLock()
	ar, ok := p.arms[armID]
	p.mu.RUnlock()
	if ok {
		return ar, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ar, ok := p.arms[armID]; ok {
		return ar, nil
	}

	if p.store != nil {
		rec, err := p.store.LoadArm(ctx, armID)
		switch {
		case err == nil:
			if err := rec.Validate(p.dim); err != nil {
				return nil, err
			}
			ar = armFromRecord(rec)
			p.arms[armID] = ar
			return ar, nil
		case core.IsStoreNotFound(err):
			// 新臂，走默认初始化
		default:
			return nil, fmt.Errorf("bandit: load arm %s: %w", armID, err)
		}
	}

	ar = newArm(armID, p.dim, p.lambda)
	p.arms[armID] = ar
	return ar, nil
}

// UpdateCount 返回臂的累计更新次数；臂不存在返回 0。
func (p *Policy) UpdateCount(armID string) int64 {
	p.mu.RLock()
	ar, ok := p.arms[armID]
	p.mu.RUnlock()
	if !ok {
		return 0
	}
	return ar.updateCount()
}

// ExportArm 导出臂的当前参数快照（运维/测试用）；臂不存在返回 false。
func (p *Policy) ExportArm(armID string) (*core.ArmRecord, bool) {
	p.mu.RLock()
	ar, ok := p.arms[armID]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return ar.snapshot(), true
}
