package scheduler

import (
	"github.com/shifthero/shifthero/pkg/engine"
)

// objectiveComposer 汇总各软约束的惩罚项，最终合成单个最小化目标
type objectiveComposer struct {
	terms []engine.Term
}

// add 注册一个惩罚项：weight × 违反量
func (o *objectiveComposer) add(v engine.Var, weight int64) {
	o.terms = append(o.terms, engine.Term{Var: v, Coef: weight})
}

// apply 将汇总的目标写入模型
func (o *objectiveComposer) apply(m *engine.Model) {
	m.Minimize(o.terms...)
}
