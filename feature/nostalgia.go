package feature

import (
	"math"

	"github.com/rushteam/banditkit/core"
)

// 怀旧先验分：当召回源未给出先验分时，用它作为臂内平手的决胜依据。
//
// 模型拆成两部分：
//   - 亲历怀旧：以“回忆高峰期”（reminiscence bump）为中心的高斯，
//     峰值在内容发行时用户约 13 岁处
//   - 文化怀旧：出生前的内容只能靠流行度继承记忆，随距离指数衰减
//
// 流行度只放大怀旧、不凭空制造怀旧。
const (
	nostalgiaPeakAge  = 13.0
	nostalgiaWidth    = 8.0
	prebirthDecayRate = 0.03
)

// AgeNostalgia 计算按发行时年龄打分的怀旧分 [0,1]。
// ageAtRelease 允许为负（出生前发行）。
func AgeNostalgia(ageAtRelease int) float64 {
	a := float64(ageAtRelease)
	if ageAtRelease >= 0 {
		return math.Exp(-((a - nostalgiaPeakAge) * (a - nostalgiaPeakAge)) / (2 * nostalgiaWidth * nostalgiaWidth))
	}
	birthScore := math.Exp(-(nostalgiaPeakAge * nostalgiaPeakAge) / (2 * nostalgiaWidth * nostalgiaWidth))
	return birthScore * math.Exp(-prebirthDecayRate*math.Abs(a))
}

// PopularityScore 计算对数缩放的流行度分 [0,1]，避免超级热门内容碾压长尾。
func PopularityScore(ratingCount, maxCount float64) float64 {
	if ratingCount <= 0 || maxCount <= 0 {
		return 0
	}
	return math.Log1p(ratingCount) / math.Log1p(maxCount)
}

// NostalgiaScore 计算综合怀旧分 [0,1]。
//
// 公式：personal * (0.7 + 0.3*pop) + cultural
//   - personal: 年龄怀旧（亲历）
//   - cultural: 出生前内容的流行度加成（继承）
//
// useLinear 为 true 时流行度按线性缩放（适用于已归一化的分值，
// 如 0-100 的平台流行度）；否则按对数缩放（适用于原始计数）。
func NostalgiaScore(birthYear, releaseYear int, ratingCount, maxCount float64, useLinear bool) float64 {
	ageAtRelease := releaseYear - birthYear
	ageScore := AgeNostalgia(ageAtRelease)

	var popScore float64
	if useLinear {
		if maxCount > 0 {
			popScore = math.Min(1, ratingCount/maxCount)
		}
	} else {
		popScore = PopularityScore(ratingCount, maxCount)
	}

	var cultural float64
	if ageAtRelease < 0 {
		cultural = popScore * 0.4
	}

	final := ageScore*(0.7+0.3*popScore) + cultural
	return math.Round(math.Min(1, math.Max(0, final))*1000) / 1000
}

// NostalgiaPrior 为缺少先验分的候选计算怀旧先验。
// 需要用户出生年份与候选发行年份，缺任一则返回 0（无先验）。
// 候选的 popularity 特征已由召回源归一化到 [0,1]，按线性缩放。
func NostalgiaPrior(rctx *core.RecommendContext, cand *core.Candidate) float64 {
	if rctx == nil || rctx.BirthYear <= 0 || cand == nil {
		return 0
	}
	year := cand.Year()
	if year <= 0 {
		return 0
	}
	return NostalgiaScore(rctx.BirthYear, year, cand.Features["popularity"], 1, true)
}
