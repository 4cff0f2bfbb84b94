package core

import (
	"context"
	"fmt"
)

// ArmRecordVersion 是臂参数持久化格式的当前版本号。
// 特征维度布局变更时递增，旧版本记录需要显式迁移/重置。
const ArmRecordVersion = 1

// ArmRecord 是单个臂的持久化参数：设计矩阵 A、响应向量 b、维度与更新计数。
// 矩阵按行优先展开为一维切片，便于 JSON 编码与跨后端搬运。
type ArmRecord struct {
	ArmID       string    `json:"arm_id"`
	Dim         int       `json:"dim"`
	A           []float64 `json:"a"` // 行优先，长度 dim*dim
	B           []float64 `json:"b"` // 长度 dim
	UpdateCount int64     `json:"update_count"`
	Version     int       `json:"version"`
}

// Validate 校验记录与当前特征维度的一致性。
// 维度漂移是致命错误（SCHEMA_MISMATCH）：绝不允许补零/截断后继续使用，
// 需要运维介入做重置或迁移。
func (r *ArmRecord) Validate(dim int) error {
	if r.Version != ArmRecordVersion {
		return NewDomainError(ModulePolicy, ErrorCodeSchemaMismatch,
			fmt.Sprintf("policy: arm %q record version %d, expected %d", r.ArmID, r.Version, ArmRecordVersion))
	}
	if r.Dim != dim {
		return NewDomainError(ModulePolicy, ErrorCodeSchemaMismatch,
			fmt.Sprintf("policy: arm %q persisted dim %d, current feature dim %d", r.ArmID, r.Dim, dim))
	}
	if len(r.A) != r.Dim*r.Dim || len(r.B) != r.Dim {
		return NewDomainError(ModulePolicy, ErrorCodeSchemaMismatch,
			fmt.Sprintf("policy: arm %q record shape A=%d B=%d, expected %d/%d", r.ArmID, len(r.A), len(r.B), r.Dim*r.Dim, r.Dim))
	}
	return nil
}

// PolicyStore 是臂参数的持久化接口。
//
// 契约：
//   - LoadArm 不存在时返回 ErrStoreNotFound（调用方按 λI / 0 初始化新臂）
//   - SaveArm 对单臂原子：读者要么看到更新前、要么看到完整更新后的记录，
//     绝不出现撕裂的矩阵
//   - 各臂的 Load/Save 相互独立
type PolicyStore interface {
	LoadArm(ctx context.Context, armID string) (*ArmRecord, error)
	SaveArm(ctx context.Context, rec *ArmRecord) error
	Close() error
}
