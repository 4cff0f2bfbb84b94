package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/banditkit/core"
)

// FilePolicyStore 是文件实现的臂参数持久化：每臂一个 JSON 文件。
//
// 原子性：先写同目录下的临时文件，再 rename 覆盖目标文件。
// rename 在同一文件系统内是原子操作，崩溃时读者看到的要么是旧记录、
// 要么是完整的新记录，绝不出现半写文件。
//
// 适合无外部依赖的单机部署；多副本部署请使用 Redis 后端。
type FilePolicyStore struct {
	dir string
}

// NewFilePolicyStore 创建文件后端，目录不存在时自动创建。
func NewFilePolicyStore(dir string) (*FilePolicyStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("policy: create dir %s: %w", dir, err)
	}
	return &FilePolicyStore{dir: dir}, nil
}

// path 返回臂记录的文件路径。臂标识中的 ':' 替换为 '_'，
// 避免生成不可移植的文件名。
func (f *FilePolicyStore) path(armID string) string {
	return filepath.Join(f.dir, strings.ReplaceAll(armID, ":", "_")+".json")
}

func (f *FilePolicyStore) LoadArm(ctx context.Context, armID string) (*core.ArmRecord, error) {
	raw, err := os.ReadFile(f.path(armID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrStoreNotFound
		}
		return nil, fmt.Errorf("policy: read arm %s: %w", armID, err)
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

func (f *FilePolicyStore) SaveArm(ctx context.Context, rec *core.ArmRecord) error {
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

	tmp, err := os.CreateTemp(f.dir, ".arm-*.tmp")
	if err != nil {
		return fmt.Errorf("policy: create temp for arm %s: %w", rec.ArmID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("policy: write arm %s: %w", rec.ArmID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("policy: close temp for arm %s: %w", rec.ArmID, err)
	}
	if err := os.Rename(tmpName, f.path(rec.ArmID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("policy: rename arm %s: %w", rec.ArmID, err)
	}
	return nil
}

func (f *FilePolicyStore) Close() error { return nil }

var _ core.PolicyStore = (*FilePolicyStore)(nil)
