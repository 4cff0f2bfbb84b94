package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/banditkit/core"
)

// DefaultArmKeyPrefix 是臂参数记录的默认 key 前缀。
const DefaultArmKeyPrefix = "bandit:arm:"

// PolicyStore 是基于 core.Store 的臂参数持久化实现。
//
// 每臂一个 key，整条记录 JSON 编码后单次 Set 写入：两种后端
// （内存 map 赋值 / Redis SET）对单 key 都是原子的，读者要么看到
// 更新前、要么看到完整更新后的记录，绝不出现撕裂的矩阵。
type PolicyStore struct {
	store  core.Store
	prefix string
}

// NewPolicyStore 创建臂参数持久化。prefix 为空时使用 DefaultArmKeyPrefix。
func NewPolicyStore(s core.Store, prefix string) *PolicyStore {
	if prefix == "" {
		prefix = DefaultArmKeyPrefix
	}
	return &PolicyStore{store: s, prefix: prefix}
}

func (p *PolicyStore) key(armID string) string {
	return p.prefix + armID
}

// LoadArm 读取臂记录；不存在返回 core.ErrStoreNotFound。
// 版本不一致在这里直接拒绝（SCHEMA_MISMATCH），维度校验由调用方
// 结合当前特征维度完成。
func (p *PolicyStore) LoadArm(ctx context.Context, armID string) (*core.ArmRecord, error) {
	raw, err := p.store.Get(ctx, p.key(armID))
	if err != nil {
		return nil, err
	}

	var rec core.ArmRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("policy: decode arm %s: %w", armID, err)
	}
	if rec.Version != core.ArmRecordVersion {
		return nil, core.NewDomainError(core.ModulePolicy, core.ErrorCodeSchemaMismatch,
			fmt.Sprintf("policy: arm %q record version %d, expected %d", armID, rec.Version, core.ArmRecordVersion))
	}
	return &rec, nil
}

// SaveArm 写入臂记录（单 key 原子写）。
func (p *PolicyStore) SaveArm(ctx context.Context, rec *core.ArmRecord) error {
	if rec == nil || rec.ArmID == "" {
		return core.NewDomainError(core.ModulePolicy, core.ErrorCodeInternalError, "policy: arm record requires arm id")
	}
	if err := rec.Validate(rec.Dim); err != nil {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("policy: encode arm %s: %w", rec.ArmID, err)
	}
	return p.store.Set(ctx, p.key(rec.ArmID), raw)
}

func (p *PolicyStore) Close() error {
	return p.store.Close()
}

var _ core.PolicyStore = (*PolicyStore)(nil)
