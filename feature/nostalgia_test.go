package feature

import (
	"math"
	"testing"

	"github.com/rushteam/banditkit/core"
)

func TestAgeNostalgia(t *testing.T) {
	// 峰值在 13 岁
	if got := AgeNostalgia(13); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("AgeNostalgia(13) = %v, want 1.0", got)
	}

	// 峰值两侧对称衰减
	left, right := AgeNostalgia(13-5), AgeNostalgia(13+5)
	if math.Abs(left-right) > 1e-12 {
		t.Errorf("AgeNostalgia asymmetric around peak: %v vs %v", left, right)
	}
	if left >= 1.0 {
		t.Errorf("AgeNostalgia(8) = %v, want < 1.0", left)
	}

	// 出生前分值低于出生时，且随距离继续衰减
	atBirth := AgeNostalgia(0)
	before := AgeNostalgia(-10)
	earlier := AgeNostalgia(-30)
	if !(before < atBirth) {
		t.Errorf("prebirth score %v not below birth score %v", before, atBirth)
	}
	if !(earlier < before) {
		t.Errorf("prebirth decay not monotone: %v vs %v", earlier, before)
	}
}

func TestPopularityScore(t *testing.T) {
	tests := []struct {
		count, max float64
		want       float64
	}{
		{0, 1000, 0},
		{-5, 1000, 0},
		{1000, 0, 0},
		{1000, 1000, 1},
	}
	for _, tt := range tests {
		if got := PopularityScore(tt.count, tt.max); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PopularityScore(%v, %v) = %v, want %v", tt.count, tt.max, got, tt.want)
		}
	}

	// 对数缩放：一半计数远高于一半分值
	half := PopularityScore(500, 1000)
	if half <= 0.5 {
		t.Errorf("PopularityScore(500, 1000) = %v, want > 0.5 (log scaling)", half)
	}
}

func TestNostalgiaScore(t *testing.T) {
	// 1990 年出生，2003 年发行（13 岁）且满流行度 → 满分
	if got := NostalgiaScore(1990, 2003, 1000, 1000, false); got != 1.0 {
		t.Errorf("peak-age full-popularity score = %v, want 1.0", got)
	}

	// 流行度只放大不凭空制造：年龄分相同，热门 > 冷门
	hot := NostalgiaScore(1990, 2003, 1000, 1000, false)
	cold := NostalgiaScore(1990, 2003, 0, 1000, false)
	if !(cold < hot) {
		t.Errorf("popularity amplification broken: cold %v vs hot %v", cold, hot)
	}
	if cold <= 0 {
		t.Errorf("cold score = %v, want > 0 (age nostalgia alone)", cold)
	}

	// 出生前内容靠文化怀旧加成
	prebirthHot := NostalgiaScore(1990, 1970, 1000, 1000, false)
	prebirthCold := NostalgiaScore(1990, 1970, 0, 1000, false)
	if !(prebirthCold < prebirthHot) {
		t.Errorf("cultural nostalgia missing: %v vs %v", prebirthCold, prebirthHot)
	}

	// 线性流行度模式
	linear := NostalgiaScore(1990, 2003, 50, 100, true)
	if linear <= 0 || linear > 1 {
		t.Errorf("linear score = %v, want within (0, 1]", linear)
	}

	// 分值始终在 [0,1] 并保留 3 位小数
	for _, year := range []int{1950, 1970, 1990, 2003, 2020} {
		got := NostalgiaScore(1990, year, 500, 1000, false)
		if got < 0 || got > 1 {
			t.Errorf("NostalgiaScore(release %d) = %v, outside [0,1]", year, got)
		}
		if math.Abs(got*1000-math.Round(got*1000)) > 1e-9 {
			t.Errorf("NostalgiaScore(release %d) = %v, not rounded to 3 decimals", year, got)
		}
	}
}

func TestNostalgiaPrior(t *testing.T) {
	cand := songCandidate("s1", 2003, 0.8)
	rctx := &core.RecommendContext{UserID: "u1", BirthYear: 1990}

	want := NostalgiaScore(1990, 2003, 0.8, 1, true)
	if got := NostalgiaPrior(rctx, cand); got != want {
		t.Errorf("NostalgiaPrior() = %v, want %v", got, want)
	}

	// 缺出生年份 / 缺发行年份 / 缺上下文 → 无先验
	if got := NostalgiaPrior(&core.RecommendContext{UserID: "u1"}, cand); got != 0 {
		t.Errorf("NostalgiaPrior() without birth year = %v, want 0", got)
	}
	if got := NostalgiaPrior(rctx, songCandidate("s2", 0, 0.8)); got != 0 {
		t.Errorf("NostalgiaPrior() without release year = %v, want 0", got)
	}
	if got := NostalgiaPrior(nil, cand); got != 0 {
		t.Errorf("NostalgiaPrior(nil rctx) = %v, want 0", got)
	}
}
