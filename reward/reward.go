package reward

import (
	"fmt"

	"github.com/rushteam/banditkit/core"
)

// EventType 是反馈事件类型。
//
// 只有显式反馈（explicit）进入奖励管道；被动交互（view/skip/next）
// 语义含混，只做观测记录，绝不更新臂参数——否则被动信号的噪声会
// 系统性地扭曲策略。
type EventType string

const (
	EventExplicit EventType = "explicit" // 显式反馈（“勾起回忆了吗”）
	EventView     EventType = "view"     // 被动：浏览
	EventSkip     EventType = "skip"     // 被动：跳过
	EventNext     EventType = "next"     // 被动：切下一个
)

// Event 是一条反馈事件。
type Event struct {
	UserID      string
	ContentType core.ContentType
	ContentID   string
	Type        EventType

	// BringsBackMemories 是主信号：内容是否勾起了回忆
	BringsBackMemories bool

	// StressBefore/StressAfter 是可选的压力读数 [0,1]；nil 表示无读数
	StressBefore *float64
	StressAfter  *float64

	// HabitCompleted 是同会话内是否完成了习惯打卡
	HabitCompleted bool

	Timestamp int64
}

// RewardBearing 判断事件是否携带奖励（即是否允许进入策略更新）。
func (e *Event) RewardBearing() bool {
	return e.Type == EventExplicit
}

// 奖励范围与权重。范围固定为 [0,1]：
//   - 显式负反馈 → Min
//   - 显式正反馈 → base，压力下降（after < before）与习惯完成追加奖励
//
// 权重之和等于 Max，满负荷正反馈恰好打满。
const (
	Min = 0.0
	Max = 1.0

	baseWeight   = 0.8  // 显式正反馈基础分
	stressWeight = 0.15 // 压力下降加成上限（按下降幅度线性）
	habitWeight  = 0.05 // 习惯完成加成
)

// Compute 把反馈事件映射为 [Min, Max] 内的标量奖励。
//
// 纯函数：同样输入永远得到同样奖励。
//
// 校验规则：
//   - 被动事件 → INVALID_REWARD（调用方应先用 RewardBearing 分流）
//   - 压力读数越界 [0,1] → INVALID_REWARD（暴露上游数据 bug，不静默截断）
//
// 结果裁剪到声明范围内。
func Compute(e *Event) (float64, error) {
	if e == nil {
		return 0, core.NewInvalidReward("reward: event is required")
	}
	if !e.RewardBearing() {
		return 0, core.NewInvalidReward(fmt.Sprintf("reward: passive event %q carries no reward", e.Type))
	}
	if err := validateStress("stress_before", e.StressBefore); err != nil {
		return 0, err
	}
	if err := validateStress("stress_after", e.StressAfter); err != nil {
		return 0, err
	}

	if !e.BringsBackMemories {
		return Min, nil
	}

	r := baseWeight
	if e.StressBefore != nil && e.StressAfter != nil {
		if delta := *e.StressBefore - *e.StressAfter; delta > 0 {
			r += stressWeight * delta
		}
	}
	if e.HabitCompleted {
		r += habitWeight
	}

	if r > Max {
		r = Max
	}
	if r < Min {
		r = Min
	}
	return r, nil
}

func validateStress(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > 1 {
		return core.NewInvalidReward(fmt.Sprintf("reward: %s %v out of range [0,1]", name, *v))
	}
	return nil
}
