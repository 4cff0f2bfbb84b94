package engine

import (
	"context"
	"log"
	"time"

	"github.com/rushteam/banditkit/bandit"
	"github.com/rushteam/banditkit/core"
	"github.com/rushteam/banditkit/filter"
	"github.com/rushteam/banditkit/pipeline"
	"github.com/rushteam/banditkit/recall"
	"github.com/rushteam/banditkit/reward"
)

// SelectRequest 是一次推荐请求的入参。
// 怀旧窗口与情绪上下文由上层应用提供，核心不推导。
type SelectRequest struct {
	UserID string

	Window    core.NostalgicWindow
	BirthYear int // 可选，0 表示未知；用于候选缺先验分时的怀旧先验
	Stress    *float64 // [0,1]，nil 表示无读数
	Emotion   string

	SeedSongID    string
	LikedMovieIDs []string
}

// Decision 是推荐决策结果。
type Decision struct {
	ContentType core.ContentType
	ContentID   string
	ArmID       string

	// Fallback 为 true 表示候选池不可用，返回的是非个性化兜底内容；
	// 兜底不落台账、不参与策略学习
	Fallback bool
}

// FallbackItem 是候选池完全不可用时的非个性化兜底内容。
type FallbackItem struct {
	ContentType core.ContentType
	ContentID   string
}

// Engine 是决策核心的入站门面：
//
//	SelectRecommendation: 构造上下文 → 召回/过滤/决策 Pipeline → 落台账
//	RecordFeedback:       校验奖励 → 台账归因 → 臂参数更新与持久化
//
// 两个操作可被不同用户并发调用；臂级别的串行由 bandit.Policy 保证。
type Engine struct {
	pipe   *pipeline.Pipeline
	ledger *Ledger
	policy *bandit.Policy
	fall   *FallbackItem
}

// Options 是 Engine 的装配参数。
type Options struct {
	// Sources 外部召回源（歌曲/电影）
	Sources []recall.Source

	// Filters 候选准入过滤器（窗口兜底、CEL 规则等）
	Filters []filter.Filter

	// Decision 决策 Node（持有 Policy 与特征 Builder）
	Decision *bandit.DecisionNode

	// Ledger 已下发推荐台账
	Ledger *Ledger

	// Fallback 候选池不可用时的兜底内容；nil 时向调用方返回
	// CANDIDATES_UNAVAILABLE
	Fallback *FallbackItem

	// RecallTimeout 每路召回源的超时时间（0 表示只受请求 ctx 约束）
	RecallTimeout time.Duration
}

// New 装配决策引擎。
func New(opts Options) (*Engine, error) {
	if opts.Decision == nil || opts.Decision.Policy == nil || opts.Decision.Builder == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			"engine: decision node with policy and builder is required")
	}
	if opts.Ledger == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			"engine: ledger is required")
	}

	nodes := []pipeline.Node{
		&recall.Fanout{Sources: opts.Sources, Timeout: opts.RecallTimeout},
	}
	if len(opts.Filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: opts.Filters})
	}
	nodes = append(nodes, opts.Decision)

	return &Engine{
		pipe:   &pipeline.Pipeline{Nodes: nodes},
		ledger: opts.Ledger,
		policy: opts.Decision.Policy,
		fall:   opts.Fallback,
	}, nil
}

// SelectRecommendation 为用户选出一个推荐内容。
//
// 降级语义：两路召回都失败或过滤后池为空时，若配置了兜底内容则返回
// 兜底（Fallback=true），否则返回 CANDIDATES_UNAVAILABLE；
// 上下文校验错误（INVALID_CONTEXT）原样上抛，绝不静默。
func (e *Engine) SelectRecommendation(ctx context.Context, req *SelectRequest) (*Decision, error) {
	if req == nil || req.UserID == "" {
		return nil, core.NewInvalidContext("engine: user id is required")
	}

	rctx := &core.RecommendContext{
		UserID:        req.UserID,
		Window:        req.Window,
		BirthYear:     req.BirthYear,
		Stress:        req.Stress,
		Emotion:       req.Emotion,
		SeedSongID:    req.SeedSongID,
		LikedMovieIDs: req.LikedMovieIDs,
	}

	out, err := e.pipe.Run(ctx, rctx, nil)
	if err != nil {
		if core.IsCandidatesUnavailable(err) {
			return e.fallback(req.UserID, err)
		}
		return nil, err
	}
	if len(out) == 0 {
		return e.fallback(req.UserID, core.ErrCandidatesUnavailable)
	}

	chosen := out[0]
	armID, x, ok := bandit.DecisionOf(chosen)
	if !ok {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			"engine: pipeline returned candidate without decision metadata")
	}

	if err := e.ledger.Record(ctx, &ServedRecord{
		UserID:      req.UserID,
		ContentType: chosen.Type,
		ContentID:   chosen.ID,
		ArmID:       armID,
		Context:     x,
	}); err != nil {
		// 台账写失败时推荐仍可下发，只是本次决策无法归因
		log.Printf("engine: record served recommendation for user %s: %v", req.UserID, err)
	}

	return &Decision{
		ContentType: chosen.Type,
		ContentID:   chosen.ID,
		ArmID:       armID,
	}, nil
}

func (e *Engine) fallback(userID string, cause error) (*Decision, error) {
	if e.fall == nil {
		return nil, cause
	}
	log.Printf("engine: candidate pool unavailable for user %s, serving fallback", userID)
	return &Decision{
		ContentType: e.fall.ContentType,
		ContentID:   e.fall.ContentID,
		Fallback:    true,
	}, nil
}

// RecordFeedback 处理一条反馈事件。
//
// 流程：
//  1. 被动事件（view/skip/next）只观测不入奖励管道，直接 ack
//  2. 计算奖励；载荷越界 → INVALID_REWARD，拒绝更新
//  3. 台账归因：取最近一条未消费的下发记录；无记录则跳过更新（不伪造）
//  4. 对被选臂做秩一更新并持久化
func (e *Engine) RecordFeedback(ctx context.Context, ev *reward.Event) error {
	if ev == nil || ev.UserID == "" || ev.ContentID == "" {
		return core.NewInvalidContext("engine: feedback requires user id and content id")
	}

	if !ev.RewardBearing() {
		// 被动信号：记录观测即可，臂参数不动
		return nil
	}

	r, err := reward.Compute(ev)
	if err != nil {
		return err
	}

	rec, err := e.ledger.Consume(ctx, ev.UserID, ev.ContentType, ev.ContentID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			// 无可归因的下发记录（过期或重复反馈），跳过更新
			log.Printf("engine: no served record for user %s content %s, skipping update", ev.UserID, ev.ContentID)
			return nil
		}
		return err
	}

	return e.policy.Update(ctx, rec.ArmID, rec.Context, r)
}
