package recall

import (
	"context"
	"net/http"
	"time"

	"github.com/rushteam/banditkit/core"
)

// MovieRecall 调用外部混合矩阵分解的电影召回服务。
//
// 请求携带用户喜欢的电影 ID 集合与期望数量；模型内部（隐向量、训练）
// 归召回服务所有，这里只消费打分后的候选。
type MovieRecall struct {
	// Endpoint 召回服务端点，例如 "http://recommender:8000/movies/hybrid"
	Endpoint string

	// TopK 期望返回的候选数量
	TopK int

	// Timeout 请求超时时间
	Timeout time.Duration

	// Client HTTP 客户端（可选，不设置则按 Timeout 构造默认客户端）
	Client *http.Client
}

func NewMovieRecall(endpoint string, timeout time.Duration) *MovieRecall {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &MovieRecall{
		Endpoint: endpoint,
		TopK:     20,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (r *MovieRecall) Name() string { return "recall.movie" }

func (r *MovieRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Endpoint == "" || rctx == nil {
		return nil, nil
	}
	// 无喜欢列表时本路为空，不算失败
	if len(rctx.LikedMovieIDs) == 0 {
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
		"liked_ids": rctx.LikedMovieIDs,
		"count":     topK,
	}
	return postJSON(ctx, client, r.Endpoint, reqBody, core.ContentTypeMovie)
}
