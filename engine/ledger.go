package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rushteam/banditkit/core"
)

// DefaultLedgerKeyPrefix 是已下发推荐记录的默认 key 前缀。
const DefaultLedgerKeyPrefix = "bandit:served:"

// ServedRecord 是一条已下发推荐的最小决策现场：反馈到达时据此把奖励
// 归因到当时的（臂, 上下文）。
type ServedRecord struct {
	UserID      string           `json:"user_id"`
	ContentType core.ContentType `json:"content_type"`
	ContentID   string           `json:"content_id"`
	ArmID       string           `json:"arm_id"`
	Context     []float64        `json:"context"`
	Timestamp   int64            `json:"timestamp"` // Unix 纳秒
}

// Ledger 是已下发推荐台账：按 (用户, 内容) 维护有序集合，
// 成员按下发时间戳打分。
//
// 归因策略：始终取最近一条未消费的记录；同一 (用户, 内容) 的旧记录
// 被新推荐盖过后仍保留在集合里，直到被消费或后端 TTL 回收。
// 无记录可归因时调用方跳过更新，绝不伪造。
type Ledger struct {
	store  core.KeyValueStore
	prefix string
	now    func() time.Time
}

func NewLedger(s core.KeyValueStore, prefix string) *Ledger {
	if prefix == "" {
		prefix = DefaultLedgerKeyPrefix
	}
	return &Ledger{store: s, prefix: prefix, now: time.Now}
}

func (l *Ledger) key(userID string, ctype core.ContentType, contentID string) string {
	return l.prefix + userID + ":" + string(ctype) + ":" + contentID
}

// Record 落一条已下发推荐。
func (l *Ledger) Record(ctx context.Context, rec *ServedRecord) error {
	if rec == nil || rec.UserID == "" || rec.ContentID == "" {
		return core.NewInvalidContext("ledger: record requires user id and content id")
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = l.now().UnixNano()
	}

	member, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encode record: %w", err)
	}
	return l.store.ZAdd(ctx,
		l.key(rec.UserID, rec.ContentType, rec.ContentID),
		float64(rec.Timestamp),
		string(member),
	)
}

// Consume 取出并删除最近一条未消费的记录；无记录返回 core.ErrStoreNotFound。
func (l *Ledger) Consume(ctx context.Context, userID string, ctype core.ContentType, contentID string) (*ServedRecord, error) {
	key := l.key(userID, ctype, contentID)

	members, err := l.store.ZRange(ctx, key, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("ledger: range %s: %w", key, err)
	}
	if len(members) == 0 {
		return nil, core.ErrStoreNotFound
	}

	var rec ServedRecord
	if err := json.Unmarshal([]byte(members[0]), &rec); err != nil {
		return nil, fmt.Errorf("ledger: decode record: %w", err)
	}
	if err := l.store.ZRem(ctx, key, members[0]); err != nil {
		return nil, fmt.Errorf("ledger: consume %s: %w", key, err)
	}
	return &rec, nil
}
