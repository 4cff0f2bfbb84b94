package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rushteam/banditkit/core"
)

// 两路外部召回服务共用的 HTTP/JSON 形状。
// 响应契约：{"items": [{"id": "...", "score": 0.8, "features": {...}, "genre": "..."}]}
// 传输细节归召回服务所有；这里只要求该形状与有界时延。

type rpcItem struct {
	ID       string             `json:"id"`
	Score    float64            `json:"score"`
	Features map[string]float64 `json:"features"`
	Genre    string             `json:"genre"`
}

type rpcResponse struct {
	Items []rpcItem `json:"items"`
}

// postJSON 发送请求并把响应解码为统一候选表示。
func postJSON(ctx context.Context, client *http.Client, endpoint string, reqBody any, ctype core.ContentType) ([]*core.Candidate, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("recall: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("recall: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recall: call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recall: %s returned status %d", endpoint, resp.StatusCode)
	}

	var body rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("recall: decode response: %w", err)
	}

	out := make([]*core.Candidate, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ID == "" {
			continue
		}
		c := core.NewCandidate(ctype, it.ID)
		c.Score = it.Score
		for k, v := range it.Features {
			c.Features[k] = v
		}
		if it.Genre != "" {
			c.Meta["genre"] = it.Genre
		}
		out = append(out, c)
	}
	return out, nil
}
