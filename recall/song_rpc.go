package recall

import (
	"context"
	"net/http"
	"time"

	"github.com/rushteam/banditkit/core"
)

// SongRecall 调用外部基于内容相似的歌曲召回服务。
//
// 请求携带种子歌曲 ID 与期望数量，年代窗口由服务端过滤
// （窗口透传，核心不自行计算）。
type SongRecall struct {
	// Endpoint 召回服务端点，例如 "http://recommender:8000/songs/similar"
	Endpoint string

	// TopK 期望返回的候选数量
	TopK int

	// Timeout 请求超时时间
	Timeout time.Duration

	// Client HTTP 客户端（可选，不设置则按 Timeout 构造默认客户端）
	Client *http.Client
}

func NewSongRecall(endpoint string, timeout time.Duration) *SongRecall {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &SongRecall{
		Endpoint: endpoint,
		TopK:     20,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (r *SongRecall) Name() string { return "recall.song" }

func (r *SongRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Endpoint == "" || rctx == nil {
		return nil, nil
	}
	// 无种子歌曲时本路为空，不算失败
	if rctx.SeedSongID == "" {
		return nil, nil
	}
	// Recall 可被并发调用，只读结构体字段，不回写
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: r.Timeout}
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	reqBody := map[string]any{
		"seed_id":    rctx.SeedSongID,
		"count":      topK,
		"year_start": rctx.Window.StartYear,
		"year_end":   rctx.Window.EndYear,
	}
	return postJSON(ctx, client, r.Endpoint, reqBody, core.ContentTypeSong)
}
