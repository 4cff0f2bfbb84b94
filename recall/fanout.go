package recall

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/banditkit/core"
	"github.com/rushteam/banditkit/pipeline"
	"github.com/rushteam/banditkit/pkg/utils"
)

// Fanout 是候选池适配器：并发调用各召回源，归一化合并为统一候选池。
//
// 降级语义：
//   - 单路失败/超时：丢弃该路，保留其余路的候选，打日志不打断服务
//   - 全部失败或合并后为空：返回 core.ErrCandidatesUnavailable，
//     由调用方决定回退（非个性化默认推荐）
//
// 召回源调用是本核心中唯一阻塞在网络 I/O 上的操作；Fanout 不持有任何
// 臂锁，超时由每路独立的 context 约束。
type Fanout struct {
	Sources []Source

	// Timeout 每个召回源的超时时间（0 表示只受上游 ctx 约束）
	Timeout time.Duration
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, core.ErrCandidatesUnavailable
	}

	var (
		mu    sync.Mutex
		all   []*core.Candidate
		eg, _ = errgroup.WithContext(ctx)
	)

	for _, src := range n.Sources {
		s := src
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			cands, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 单路失败只降级，不中断其他召回源
				if recallCtx.Err() == context.DeadlineExceeded {
					log.Printf("recall: source %s timed out", s.Name())
				} else {
					log.Printf("recall: source %s failed: %v", s.Name(), err)
				}
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, c := range cands {
				c.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
			}

			mu.Lock()
			all = append(all, cands...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := dedup(all)
	if len(merged) == 0 {
		return nil, core.ErrCandidatesUnavailable
	}
	return merged, nil
}

// dedup 按 (类型, ID) 去重，保留第一个出现的，后出现者的 labels 并入。
func dedup(all []*core.Candidate) []*core.Candidate {
	seen := make(map[string]*core.Candidate, len(all))
	out := make([]*core.Candidate, 0, len(all))
	for _, c := range all {
		if c == nil {
			continue
		}
		if old, ok := seen[c.Key()]; ok {
			for k, v := range c.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[c.Key()] = c
		out = append(out, c)
	}
	return out
}
