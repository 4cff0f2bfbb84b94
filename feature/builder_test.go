package feature

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/banditkit/core"
)

func fp(v float64) *float64 { return &v }

type stubStats struct {
	rate float64
	err  error
}

func (s *stubStats) PositiveRate(ctx context.Context, userID string) (float64, error) {
	return s.rate, s.err
}

func songCandidate(id string, year, popularity float64) *core.Candidate {
	c := core.NewCandidate(core.ContentTypeSong, id)
	if year > 0 {
		c.Features["year"] = year
	}
	c.Features["popularity"] = popularity
	return c
}

func TestBuilder_Build(t *testing.T) {
	window := core.NostalgicWindow{StartYear: 1995, EndYear: 2005}

	tests := []struct {
		name    string
		rctx    *core.RecommendContext
		cand    *core.Candidate
		stats   StatsProvider
		want    []float64
		wantErr func(error) bool
	}{
		{
			name:    "nil context rejected",
			rctx:    nil,
			cand:    songCandidate("s1", 2000, 0.5),
			wantErr: core.IsInvalidContext,
		},
		{
			name:    "missing content type rejected",
			rctx:    &core.RecommendContext{UserID: "u1"},
			cand:    &core.Candidate{ID: "s1"},
			wantErr: core.IsInvalidContext,
		},
		{
			name:    "unknown content type rejected",
			rctx:    &core.RecommendContext{UserID: "u1"},
			cand:    &core.Candidate{Type: "podcast", ID: "p1"},
			wantErr: core.IsInvalidContext,
		},
		{
			name:    "stress out of range rejected",
			rctx:    &core.RecommendContext{UserID: "u1", Stress: fp(1.2)},
			cand:    songCandidate("s1", 2000, 0.5),
			wantErr: core.IsInvalidContext,
		},
		{
			name: "full signals",
			rctx: &core.RecommendContext{
				UserID:       "u1",
				Window:       window,
				Stress:       fp(0.7),
				Emotion:      "joy",
				PositiveRate: fp(0.9),
			},
			cand: songCandidate("s1", 2000, 0.5),
			//    stress  anger fear joy love neutral sad surprise  type  year pop  rate
			want: []float64{0.7, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0.5, 0.9},
		},
		{
			// 所有可选信号缺失 → 文档化的中性值
			name: "missing optional signals neutral",
			rctx: &core.RecommendContext{UserID: "u1"},
			cand: songCandidate("s1", 0, 0),
			want: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.5},
		},
		{
			name: "movie sets type indicator",
			rctx: &core.RecommendContext{UserID: "u1", Window: window},
			cand: func() *core.Candidate {
				c := core.NewCandidate(core.ContentTypeMovie, "m1")
				c.Features["year"] = 2005
				return c
			}(),
			want: []float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 0, 0.5},
		},
		{
			// 窗口外年份截断到 ±1
			name: "year offset clamped",
			rctx: &core.RecommendContext{UserID: "u1", Window: window},
			cand: songCandidate("s1", 1980, 0),
			want: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, -1, 0, 0.5},
		},
		{
			name: "popularity clamped to unit range",
			rctx: &core.RecommendContext{UserID: "u1"},
			cand: songCandidate("s1", 0, 3.5),
			want: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0.5},
		},
		{
			name:  "stats provider supplies positive rate",
			rctx:  &core.RecommendContext{UserID: "u1"},
			cand:  songCandidate("s1", 0, 0),
			stats: &stubStats{rate: 0.8},
			want:  []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.8},
		},
		{
			// 统计源失败是可降级场景，回落到中性先验
			name:  "stats provider failure degrades to prior",
			rctx:  &core.RecommendContext{UserID: "u1"},
			cand:  songCandidate("s1", 0, 0),
			stats: &stubStats{err: errors.New("feast unavailable")},
			want:  []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.5},
		},
		{
			name:    "unrecognized emotion maps to all zero one-hot",
			rctx:    &core.RecommendContext{UserID: "u1", Emotion: "confused"},
			cand:    songCandidate("s1", 0, 0),
			want:    []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.5},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Builder{Stats: tt.stats}
			got, err := b.Build(context.Background(), tt.rctx, tt.cand)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("Build() error = %v, want matching predicate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(got) != Dim {
				t.Fatalf("Build() dim = %d, want %d", len(got), Dim)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("x[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	b := &Builder{}
	rctx := &core.RecommendContext{
		UserID:  "u1",
		Window:  core.NostalgicWindow{StartYear: 1990, EndYear: 2000},
		Stress:  fp(0.3),
		Emotion: "sadness",
	}
	cand := songCandidate("s1", 1996, 0.42)

	first, err := b.Build(context.Background(), rctx, cand)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := b.Build(context.Background(), rctx, cand)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("Build() not deterministic at [%d]: %v vs %v", j, got[j], first[j])
			}
		}
	}
}
