package core

import "github.com/rushteam/banditkit/pkg/utils"

// ContentType 是候选内容类型标签。
// 决策核心不直接对类型做分支：类型只进入特征向量与臂标识。
type ContentType string

const (
	ContentTypeSong  ContentType = "song"  // 歌曲（内容相似召回）
	ContentTypeMovie ContentType = "movie" // 电影（混合矩阵分解召回）
)

// Candidate 是推荐链路中的统一候选结构：类型、特征、先验分、标签。
// 由召回源产出，仅在单次请求内存活，不做持久化。
type Candidate struct {
	Type  ContentType
	ID    string
	Score float64 // 外部召回源给出的先验分（无则为 0）

	// Features 承载内容数值属性（year / popularity 等），供特征向量构造使用
	Features map[string]float64

	// Meta 承载非数值元信息（genre / title 等）
	Meta map[string]any

	// Labels 用于解释与策略驱动
	Labels map[string]utils.Label
}

func NewCandidate(t ContentType, id string) *Candidate {
	return &Candidate{
		Type:     t,
		ID:       id,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// Key 返回候选的去重键（类型 + ID，两路召回的 ID 空间可能重叠）。
func (c *Candidate) Key() string {
	return string(c.Type) + ":" + c.ID
}

// Genre 返回候选的原始流派字符串；无则为空串。
func (c *Candidate) Genre() string {
	if c.Meta == nil {
		return ""
	}
	if g, ok := c.Meta["genre"].(string); ok {
		return g
	}
	return ""
}

// Year 返回候选的发行年份；无则返回 0。
func (c *Candidate) Year() int {
	if c.Features == nil {
		return 0
	}
	if y, ok := c.Features["year"]; ok {
		return int(y)
	}
	return 0
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}
