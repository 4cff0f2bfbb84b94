package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/banditkit/core"
)

// DefaultZSetTTL 是有序集合的默认空闲回收时间。
// 台账记录超过保留期仍未被反馈消费即不再值得归因，
// 整个集合在清理循环中回收，避免无界累积。
const DefaultZSetTTL = 72 * time.Hour

// MemoryStore 是内存实现的 KeyValueStore，用于测试/开发/单机原型。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]*entry
	ttl     map[string]time.Time
	zsets   map[string]map[string]float64 // zset key -> member -> score
	ztouch  map[string]time.Time          // zset key -> 最后一次 ZAdd 时间
	zsetTTL time.Duration
	clean   *time.Ticker
}

type entry struct {
	value []byte
	ttl   *time.Time
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:    make(map[string]*entry),
		ttl:     make(map[string]time.Time),
		zsets:   make(map[string]map[string]float64),
		ztouch:  make(map[string]time.Time),
		zsetTTL: DefaultZSetTTL,
		clean:   time.NewTicker(10 * time.Second),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if e.ttl != nil && time.Now().After(*e.ttl) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		expire := time.Now().Add(time.Duration(ttl[0]) * time.Second)
		e.ttl = &expire
		m.ttl[key] = expire
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.ttl, key)
	return nil
}

func (m *MemoryStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	m.ztouch[key] = time.Now()
	return nil
}

// ZRange 按分数降序返回成员（0,0 即分数最高/最近的一条）。
func (m *MemoryStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset, ok := m.zsets[key]
	if !ok || len(zset) == 0 {
		return nil, nil
	}

	type pair struct {
		member string
		score  float64
	}
	pairs := make([]pair, 0, len(zset))
	for mem, s := range zset {
		pairs = append(pairs, pair{member: mem, score: s})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(pairs)) {
		stop = int64(len(pairs)) - 1
	}
	if start > stop {
		return nil, nil
	}

	result := make([]string, 0, stop-start+1)
	for i := start; i <= stop && i < int64(len(pairs)); i++ {
		result = append(result, pairs[i].member)
	}
	return result, nil
}

func (m *MemoryStore) ZRem(ctx context.Context, key string, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if zset, ok := m.zsets[key]; ok {
		delete(zset, member)
		if len(zset) == 0 {
			delete(m.zsets, key)
			delete(m.ztouch, key)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	if m.clean != nil {
		m.clean.Stop()
	}
	return nil
}

func (m *MemoryStore) cleanup() {
	for range m.clean.C {
		m.reapExpired(time.Now())
	}
}

// reapExpired 回收到期的 key：带 TTL 的普通 key，以及空闲超过
// zsetTTL 的整个有序集合（未消费的台账记录不会无界累积）。
func (m *MemoryStore) reapExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, expire := range m.ttl {
		if now.After(expire) {
			delete(m.data, k)
			delete(m.ttl, k)
		}
	}
	if m.zsetTTL <= 0 {
		return
	}
	for k, touched := range m.ztouch {
		if now.Sub(touched) > m.zsetTTL {
			delete(m.zsets, k)
			delete(m.ztouch, k)
		}
	}
}

var _ core.KeyValueStore = (*MemoryStore)(nil)
