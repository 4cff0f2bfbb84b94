package feature

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/banditkit/core"
)

// FeastStats 是基于 Feast Feature Store（官方 Go SDK，gRPC）的用户统计提供者。
//
// 用户历史正反馈率由离线作业聚合后物化到 Feast 在线存储；
// 这里只做在线取数。取数失败由 Builder 降级为中性先验，
// 所以此实现只负责“取到或报错”，不做兜底。
type FeastStats struct {
	client *feastsdk.GrpcClient

	// Project 项目名称
	Project string

	// Feature 特征引用，例如 "user_feedback_stats:positive_rate"
	Feature string

	// EntityKey 实体键名，例如 "user_id"
	EntityKey string

	// Timeout 单次取数超时
	Timeout time.Duration
}

// NewFeastStats 创建 Feast 用户统计提供者。
func NewFeastStats(host string, port int, project string) (*FeastStats, error) {
	if port == 0 {
		port = 6565 // Feast Feature Server 默认 gRPC 端口
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feature: create feast grpc client: %w", err)
	}
	return &FeastStats{
		client:    client,
		Project:   project,
		Feature:   "user_feedback_stats:positive_rate",
		EntityKey: "user_id",
		Timeout:   500 * time.Millisecond,
	}, nil
}

// PositiveRate 实现 StatsProvider 接口。
func (s *FeastStats) PositiveRate(ctx context.Context, userID string) (float64, error) {
	if s.client == nil {
		return 0, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInternalError, "feature: feast client is closed")
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: []string{s.Feature},
		Entities: []feastsdk.Row{
			{s.EntityKey: feastsdk.StrVal(userID)},
		},
		Project: s.Project,
	}

	resp, err := s.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("feature: feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return 0, core.ErrStoreNotFound
	}
	val, ok := rows[0][s.Feature]
	if !ok || val == nil {
		return 0, core.ErrStoreNotFound
	}

	switch v := val.Val.(type) {
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal, nil
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal), nil
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val), nil
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val), nil
	default:
		return 0, fmt.Errorf("feature: unexpected feast value type %T for %s", val.Val, s.Feature)
	}
}

// Close 关闭客户端连接。
func (s *FeastStats) Close() error {
	s.client = nil
	return nil
}

var _ StatsProvider = (*FeastStats)(nil)
