package bandit

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/banditkit/core"
)

// arm 持有单个臂的岭回归状态（disjoint 线性模型）。
//
// 不变量：A 始终对称正定——初始为 λI，之后只接受 x·xᵀ 的秩一 PSD 更新，
// 因此 Cholesky 分解永远可行，θ = A⁻¹b 不需要显式求逆。
//
// 并发纪律：所有读写都在 mu 之内；打分与更新在同一臂上串行，
// 不同臂之间互不阻塞。分解结果缓存到下一次更新为止。
type arm struct {
	mu sync.Mutex

	// saveMu 串行化“秩一更新 + 落盘”整段（见 Policy.Update）：
	// 先完成的更新先落盘，旧快照不可能覆盖新快照
	saveMu sync.Mutex

	id  string
	dim int

	a       *mat.SymDense // 设计矩阵 A (d×d)
	b       *mat.VecDense // 响应向量 b (d)
	updates int64

	chol       mat.Cholesky
	factorized bool
}

// newArm 按 A = λI、b = 0 初始化新臂。
// 初始 θ = 0 且置信宽度最大，保证每个臂在预测项主导之前都会被尝试。
func newArm(id string, dim int, lambda float64) *arm {
	a := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		a.SetSym(i, i, lambda)
	}
	return &arm{
		id:  id,
		dim: dim,
		a:   a,
		b:   mat.NewVecDense(dim, nil),
	}
}

// armFromRecord 从持久化记录恢复臂状态。记录需已通过 Validate。
func armFromRecord(rec *core.ArmRecord) *arm {
	d := rec.Dim
	a := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			a.SetSym(i, j, rec.A[i*d+j])
		}
	}
	b := mat.NewVecDense(d, nil)
	for i := 0; i < d; i++ {
		b.SetVec(i, rec.B[i])
	}
	return &arm{
		id:      rec.ArmID,
		dim:     d,
		a:       a,
		b:       b,
		updates: rec.UpdateCount,
	}
}

// ensureFactorized 按需重新分解 A。调用方需持有 mu。
func (ar *arm) ensureFactorized() error {
	if ar.factorized {
		return nil
	}
	if ok := ar.chol.Factorize(ar.a); !ok {
		// A 由 λI 加 PSD 更新构成，理论上不可能走到这里
		return core.NewDomainError(core.ModuleBandit, core.ErrorCodeInternalError,
			"bandit: design matrix lost positive definiteness for arm "+ar.id)
	}
	ar.factorized = true
	return nil
}

// score 计算 UCB 分量：预测奖励 p = θ·x 与置信宽度 w = α·sqrt(xᵀA⁻¹x)。
func (ar *arm) score(x *mat.VecDense, alpha float64) (p, w float64, err error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if err := ar.ensureFactorized(); err != nil {
		return 0, 0, err
	}

	var theta mat.VecDense
	if err := ar.chol.SolveVecTo(&theta, ar.b); err != nil {
		return 0, 0, core.NewDomainError(core.ModuleBandit, core.ErrorCodeInternalError,
			"bandit: solve theta failed for arm "+ar.id+": "+err.Error())
	}
	p = mat.Dot(x, &theta)

	var v mat.VecDense
	if err := ar.chol.SolveVecTo(&v, x); err != nil {
		return 0, 0, core.NewDomainError(core.ModuleBandit, core.ErrorCodeInternalError,
			"bandit: solve confidence failed for arm "+ar.id+": "+err.Error())
	}
	w = alpha * math.Sqrt(math.Max(0, mat.Dot(x, &v)))

	return p, w, nil
}

// update 应用秩一更新：A ← A + x·xᵀ，b ← b + r·x。
// 返回更新后的持久化快照（在同一临界区内生成，保证快照完整）。
func (ar *arm) update(x *mat.VecDense, r float64) *core.ArmRecord {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	ar.a.SymRankOne(ar.a, 1, x)
	ar.b.AddScaledVec(ar.b, r, x)
	ar.updates++
	ar.factorized = false

	return ar.snapshotLocked()
}

// snapshot 导出当前状态的持久化记录。
func (ar *arm) snapshot() *core.ArmRecord {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.snapshotLocked()
}

func (ar *arm) snapshotLocked() *core.ArmRecord {
	d := ar.dim
	rec := &core.ArmRecord{
		ArmID:       ar.id,
		Dim:         d,
		A:           make([]float64, d*d),
		B:           make([]float64, d),
		UpdateCount: ar.updates,
		Version:     core.ArmRecordVersion,
	}
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			rec.A[i*d+j] = ar.a.At(i, j)
		}
		rec.B[i] = ar.b.AtVec(i)
	}
	return rec
}

// updateCount 返回累计更新次数。
func (ar *arm) updateCount() int64 {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.updates
}
