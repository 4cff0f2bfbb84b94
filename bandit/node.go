package bandit

import (
	"context"
	"strconv"

	"github.com/rushteam/banditkit/core"
	"github.com/rushteam/banditkit/feature"
	"github.com/rushteam/banditkit/pipeline"
	"github.com/rushteam/banditkit/pkg/utils"
)

// 决策现场在候选 Meta 上的键。Decision 阶段写入，引擎在落台账时读取。
const (
	metaDecisionArm     = "decision_arm"
	metaDecisionContext = "decision_context"
)

// DecisionNode 是 Pipeline 的决策 Node：为每个候选构造上下文向量，
// 交给 LinUCB 策略打分选择，把候选池收敛为单个候选。
//
// 被选候选携带决策现场（臂标识 + 上下文向量），供引擎写入
// 已下发推荐台账，以便反馈到达时归因。
type DecisionNode struct {
	Policy  *Policy
	Builder *feature.Builder

	// ArmOf 候选到臂标识的映射；nil 时使用 feature.ArmFor（类型+流派桶）
	ArmOf func(*core.Candidate) string
}

func (n *DecisionNode) Name() string        { return "bandit.decision" }
func (n *DecisionNode) Kind() pipeline.Kind { return pipeline.KindDecision }

func (n *DecisionNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return nil, core.ErrCandidatesUnavailable
	}

	armOf := n.ArmOf
	if armOf == nil {
		armOf = feature.ArmFor
	}

	inputs := make([]Input, 0, len(candidates))
	for _, cand := range candidates {
		if cand == nil {
			continue
		}
		// 召回源未给先验分时用怀旧先验补齐（臂内平手的决胜依据）
		if cand.Score == 0 {
			cand.Score = feature.NostalgiaPrior(rctx, cand)
		}
		x, err := n.Builder.Build(ctx, rctx, cand)
		if err != nil {
			// 上下文构造失败是调用方 bug，同步上抛，不静默跳过
			return nil, err
		}
		inputs = append(inputs, Input{
			Candidate: cand,
			ArmID:     armOf(cand),
			Context:   x,
		})
	}

	d, err := n.Policy.Select(ctx, inputs)
	if err != nil {
		return nil, err
	}

	chosen := d.Candidate
	chosen.Meta[metaDecisionArm] = d.ArmID
	chosen.Meta[metaDecisionContext] = d.Context
	chosen.PutLabel("decision_arm", utils.Label{Value: d.ArmID, Source: "decision"})
	chosen.PutLabel("decision_score", utils.Label{
		Value:  strconv.FormatFloat(d.Score, 'f', 6, 64),
		Source: "decision",
	})

	return []*core.Candidate{chosen}, nil
}

// DecisionOf 读取候选上的决策现场；未经过 DecisionNode 的候选返回 false。
func DecisionOf(cand *core.Candidate) (armID string, x []float64, ok bool) {
	if cand == nil || cand.Meta == nil {
		return "", nil, false
	}
	armID, aok := cand.Meta[metaDecisionArm].(string)
	x, xok := cand.Meta[metaDecisionContext].([]float64)
	if !aok || !xok {
		return "", nil, false
	}
	return armID, x, true
}
