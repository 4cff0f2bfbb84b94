package filter

import (
	"context"
	"testing"

	"github.com/rushteam/banditkit/core"
)

func yearCandidate(id string, year int) *core.Candidate {
	c := core.NewCandidate(core.ContentTypeSong, id)
	if year > 0 {
		c.Features["year"] = float64(year)
	}
	return c
}

func TestWindowFilter(t *testing.T) {
	window := core.NostalgicWindow{StartYear: 1995, EndYear: 2005}

	tests := []struct {
		name string
		rctx *core.RecommendContext
		cand *core.Candidate
		want bool
	}{
		{
			name: "inside window passes",
			rctx: &core.RecommendContext{Window: window},
			cand: yearCandidate("s1", 2000),
			want: false,
		},
		{
			name: "window boundary passes",
			rctx: &core.RecommendContext{Window: window},
			cand: yearCandidate("s1", 1995),
			want: false,
		},
		{
			name: "outside window filtered",
			rctx: &core.RecommendContext{Window: window},
			cand: yearCandidate("s1", 1988),
			want: true,
		},
		{
			// 窗口未设置时放行
			name: "zero window passes",
			rctx: &core.RecommendContext{},
			cand: yearCandidate("s1", 1950),
			want: false,
		},
		{
			// 候选无年份信息时放行（兜底过滤不误杀）
			name: "missing year passes",
			rctx: &core.RecommendContext{Window: window},
			cand: yearCandidate("s1", 0),
			want: false,
		},
	}

	f := &WindowFilter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), tt.rctx, tt.cand)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleFilter(t *testing.T) {
	song := core.NewCandidate(core.ContentTypeSong, "s1")
	song.Score = 0.6
	song.Features["popularity"] = 0.3

	movie := core.NewCandidate(core.ContentTypeMovie, "m1")
	movie.Score = 0.1
	movie.Features["popularity"] = 0.001

	tests := []struct {
		name string
		expr string
		rctx *core.RecommendContext
		cand *core.Candidate
		want bool
	}{
		{
			name: "type rule keeps matching",
			expr: `candidate.type == "song"`,
			rctx: &core.RecommendContext{},
			cand: song,
			want: false,
		},
		{
			name: "type rule filters mismatching",
			expr: `candidate.type == "song"`,
			rctx: &core.RecommendContext{},
			cand: movie,
			want: true,
		},
		{
			name: "popularity floor",
			expr: `candidate.features.popularity >= 0.01`,
			rctx: &core.RecommendContext{},
			cand: movie,
			want: true,
		},
		{
			name: "emotion avoidance rule",
			expr: `!(candidate.type == "movie" && rctx.emotion == "fear")`,
			rctx: &core.RecommendContext{Emotion: "fear"},
			cand: movie,
			want: true,
		},
		{
			name: "emotion avoidance passes other emotions",
			expr: `!(candidate.type == "movie" && rctx.emotion == "fear")`,
			rctx: &core.RecommendContext{Emotion: "joy"},
			cand: movie,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewRuleFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewRuleFilter(%q) error = %v", tt.expr, err)
			}
			got, err := f.ShouldFilter(context.Background(), tt.rctx, tt.cand)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleFilter_CompileError(t *testing.T) {
	if _, err := NewRuleFilter(`candidate.type ==`); err == nil {
		t.Fatal("NewRuleFilter() with broken expression: error = nil, want compile failure")
	}
}

func TestFilterNode(t *testing.T) {
	window := core.NostalgicWindow{StartYear: 1995, EndYear: 2005}
	rctx := &core.RecommendContext{UserID: "u1", Window: window}

	keep := yearCandidate("keep", 2000)
	drop := yearCandidate("drop", 1980)

	n := &FilterNode{Filters: []Filter{&WindowFilter{}}}
	out, err := n.Process(context.Background(), rctx, []*core.Candidate{keep, drop})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "keep" {
		t.Fatalf("Process() = %v, want only in-window candidate", out)
	}

	// 被过滤的候选带上 filtered 标签与过滤器来源
	lbl, ok := drop.Labels["filtered"]
	if !ok {
		t.Fatal("filtered candidate missing filtered label")
	}
	if lbl.Source != "filter.window" {
		t.Errorf("filtered label source = %q, want %q", lbl.Source, "filter.window")
	}
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.broken" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Candidate) (bool, error) {
	return true, context.DeadlineExceeded
}

func TestFilterNode_SkipsFailingFilter(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1"}
	cand := yearCandidate("s1", 2000)

	n := &FilterNode{Filters: []Filter{errFilter{}}}
	out, err := n.Process(context.Background(), rctx, []*core.Candidate{cand})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// 过滤器自身报错时按保留处理
	if len(out) != 1 {
		t.Fatalf("Process() dropped candidate on filter error, want keep")
	}
}
