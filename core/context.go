package core

import "github.com/rushteam/banditkit/pkg/utils"

// NostalgicWindow 是用户的怀旧年代窗口。
// 窗口由上层偏好层计算（核心不关心其推导方式），这里只做透传与判定。
type NostalgicWindow struct {
	StartYear int
	EndYear   int
}

// IsZero 判断窗口是否未设置。
func (w NostalgicWindow) IsZero() bool {
	return w.StartYear == 0 && w.EndYear == 0
}

// Center 返回窗口中心年份。
func (w NostalgicWindow) Center() float64 {
	return float64(w.StartYear+w.EndYear) / 2
}

// HalfWidth 返回半窗宽（用于年份偏移归一化）。
func (w NostalgicWindow) HalfWidth() float64 {
	hw := float64(w.EndYear-w.StartYear) / 2
	if hw <= 0 {
		return 1
	}
	return hw
}

// Contains 判断年份是否落在窗口内（闭区间）。
func (w NostalgicWindow) Contains(year int) bool {
	return year >= w.StartYear && year <= w.EndYear
}

// RecommendContext 承载一次推荐请求的用户/情绪/实时信息，贯穿整个 Pipeline 透传。
//
// 可选信号（Stress/Emotion/PositiveRate）缺失时为零值，由特征构造层映射为
// 中性值；必需信号缺失由特征构造层返回 INVALID_CONTEXT。
type RecommendContext struct {
	UserID string

	// Window 是怀旧年代窗口（上层计算，透传给召回源与过滤器）
	Window NostalgicWindow

	// BirthYear 是用户出生年份（可选，0 表示未知）；
	// 与候选年份联合推导怀旧先验分（见 feature.NostalgiaPrior）
	BirthYear int

	// Stress 是当前压力水平 [0,1]；nil 表示无压力读数
	Stress *float64

	// Emotion 是情绪分类标签（anger/fear/joy/love/neutral/sadness/surprise）；
	// 空串表示无情绪读数
	Emotion string

	// PositiveRate 是用户历史正反馈率 [0,1]；nil 时特征层取中性先验
	PositiveRate *float64

	// SeedSongID 是歌曲召回的种子内容 ID（由上层交互层提供）
	SeedSongID string

	// LikedMovieIDs 是电影召回的喜欢列表（由上层交互层提供）
	LikedMovieIDs []string

	// Params 请求级上下文参数（透传给召回源/过滤规则）
	Params map[string]any

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
