package config

import (
	"fmt"
	"time"

	"github.com/rushteam/banditkit/bandit"
	"github.com/rushteam/banditkit/core"
	"github.com/rushteam/banditkit/engine"
	"github.com/rushteam/banditkit/feature"
	"github.com/rushteam/banditkit/filter"
	"github.com/rushteam/banditkit/recall"
	"github.com/rushteam/banditkit/store"
)

// Build 按配置装配决策引擎：存储后端 → 策略 → 召回源 → 过滤器 → Engine。
func Build(cfg *Config) (*engine.Engine, error) {
	if cfg == nil {
		cfg = Default()
	}

	armPrefix, ledgerPrefix := keyPrefixes(cfg.Store.Prefix)

	kv, policyStore, err := buildStores(cfg, armPrefix)
	if err != nil {
		return nil, err
	}

	popts := []bandit.Option{
		bandit.WithAlpha(cfg.Bandit.Alpha),
		bandit.WithLambda(cfg.Bandit.Lambda),
		bandit.WithPolicyStore(policyStore),
	}
	if cfg.Bandit.Seed != 0 {
		popts = append(popts, bandit.WithSeed(cfg.Bandit.Seed))
	}
	policy, err := bandit.NewPolicy(feature.Dim, popts...)
	if err != nil {
		return nil, err
	}

	builder := &feature.Builder{}
	if cfg.Feast.Enabled {
		stats, err := feature.NewFeastStats(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project)
		if err != nil {
			return nil, err
		}
		builder.Stats = stats
	}

	timeout := time.Duration(cfg.Recall.TimeoutMS) * time.Millisecond

	var sources []recall.Source
	if cfg.Recall.SongEndpoint != "" {
		src := recall.NewSongRecall(cfg.Recall.SongEndpoint, timeout)
		src.TopK = cfg.Recall.TopK
		sources = append(sources, src)
	}
	if cfg.Recall.MovieEndpoint != "" {
		src := recall.NewMovieRecall(cfg.Recall.MovieEndpoint, timeout)
		src.TopK = cfg.Recall.TopK
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("config: at least one recall endpoint is required")
	}

	filters := []filter.Filter{&filter.WindowFilter{}}
	for _, expr := range cfg.Rules {
		rf, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, rf)
	}

	var fallback *engine.FallbackItem
	if cfg.Fallback.ContentID != "" {
		fallback = &engine.FallbackItem{
			ContentType: core.ContentType(cfg.Fallback.ContentType),
			ContentID:   cfg.Fallback.ContentID,
		}
	}

	return engine.New(engine.Options{
		Sources: sources,
		Filters: filters,
		Decision: &bandit.DecisionNode{
			Policy:  policy,
			Builder: builder,
		},
		Ledger:        engine.NewLedger(kv, ledgerPrefix),
		Fallback:      fallback,
		RecallTimeout: timeout,
	})
}

// keyPrefixes 把命名空间前缀展开成两类 key 的完整前缀。
// 命名空间为空时沿用各自的默认前缀。
func keyPrefixes(namespace string) (arm, ledger string) {
	if namespace == "" {
		return "", ""
	}
	return namespace + store.DefaultArmKeyPrefix, namespace + engine.DefaultLedgerKeyPrefix
}

// buildStores 构造台账用 KeyValueStore 与臂参数用 PolicyStore。
// file 后端的臂参数按目录寻址、不走 key 前缀；台账回落到内存
// （台账本就允许易失）。
func buildStores(cfg *Config, armPrefix string) (core.KeyValueStore, core.PolicyStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(cfg.Store.Addr, cfg.Store.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("config: connect redis %s: %w", cfg.Store.Addr, err)
		}
		return rs, store.NewPolicyStore(rs, armPrefix), nil
	case "file":
		fs, err := store.NewFilePolicyStore(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMemoryStore(), fs, nil
	default: // memory
		ms := store.NewMemoryStore()
		return ms, store.NewPolicyStore(ms, armPrefix), nil
	}
}
