// Package engine 提供抽象的线性优化求解引擎：
// 布尔/有界整数变量、线性约束和单个线性最小化目标。
package engine

import (
	"fmt"
)

// Status 求解状态
type Status int

const (
	// StatusUnknown 时间预算耗尽且未找到任何可行解
	StatusUnknown Status = iota
	// StatusOptimal 已证明最优
	StatusOptimal
	// StatusFeasible 找到可行解但未证明最优（时间预算耗尽）
	StatusFeasible
	// StatusInfeasible 模型无可行解（仅在模型构造错误时出现）
	StatusInfeasible
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// Var 变量句柄（模型内唯一）
type Var int

// Term 线性项：系数 × 变量
type Term struct {
	Var  Var
	Coef int64
}

// varDef 变量定义
type varDef struct {
	name     string
	lo, hi   int64
	decision bool // 决策变量（搜索对象）；辅助变量由约束传播推导
}

// linearConstraint 线性约束 lo ≤ Σ coef·x ≤ hi
type linearConstraint struct {
	terms []Term
	lo    int64
	hi    int64
	hasLo bool
	hasHi bool
}

// Model 优化模型：单次求解请求内构建，求解后丢弃
type Model struct {
	vars        []varDef
	constraints []linearConstraint
	objective   []Term
}

// NewModel 创建空模型
func NewModel() *Model {
	return &Model{}
}

// NewBoolVar 创建布尔决策变量，域为 {0, 1}
func (m *Model) NewBoolVar(name string) Var {
	m.vars = append(m.vars, varDef{name: name, lo: 0, hi: 1, decision: true})
	return Var(len(m.vars) - 1)
}

// NewIntVar 创建有界整数辅助变量，取值由约束传播推导
func (m *Model) NewIntVar(lo, hi int64, name string) Var {
	m.vars = append(m.vars, varDef{name: name, lo: lo, hi: hi})
	return Var(len(m.vars) - 1)
}

// FixBool 固定布尔决策变量的取值（硬约束）
func (m *Model) FixBool(v Var, value bool) {
	val := int64(0)
	if value {
		val = 1
	}
	// 与已有域求交，固定冲突会在求解时报告 INFEASIBLE
	if val > m.vars[v].lo {
		m.vars[v].lo = val
	}
	if val < m.vars[v].hi {
		m.vars[v].hi = val
	}
}

// AddAtLeast 添加约束 Σ terms ≥ bound
func (m *Model) AddAtLeast(terms []Term, bound int64) {
	m.constraints = append(m.constraints, linearConstraint{terms: terms, lo: bound, hasLo: true})
}

// AddAtMost 添加约束 Σ terms ≤ bound
func (m *Model) AddAtMost(terms []Term, bound int64) {
	m.constraints = append(m.constraints, linearConstraint{terms: terms, hi: bound, hasHi: true})
}

// AddRange 添加约束 lo ≤ Σ terms ≤ hi
func (m *Model) AddRange(terms []Term, lo, hi int64) {
	m.constraints = append(m.constraints, linearConstraint{terms: terms, lo: lo, hi: hi, hasLo: true, hasHi: true})
}

// Minimize 设置最小化目标（追加项）
func (m *Model) Minimize(terms ...Term) {
	m.objective = append(m.objective, terms...)
}

// NumVars 返回变量总数
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints 返回约束总数
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// VarName 返回变量名称
func (m *Model) VarName(v Var) string {
	return m.vars[v].name
}

// validate 校验模型是否满足求解器的结构要求：
//   - 辅助变量的目标系数非负
//   - 每个约束最多包含一个辅助变量（传播推导的前提）
//
// 域为空（FixBool 冲突）不在此处报错，求解时返回 INFEASIBLE。
func (m *Model) validate() error {
	for _, t := range m.objective {
		if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
			return fmt.Errorf("目标函数引用了不存在的变量 #%d", t.Var)
		}
		if !m.vars[t.Var].decision && t.Coef < 0 {
			return fmt.Errorf("辅助变量 %s 的目标系数必须非负，实际为 %d", m.vars[t.Var].name, t.Coef)
		}
	}
	for i, c := range m.constraints {
		auxCount := 0
		for _, t := range c.terms {
			if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
				return fmt.Errorf("约束 #%d 引用了不存在的变量 #%d", i, t.Var)
			}
			if !m.vars[t.Var].decision {
				auxCount++
			}
		}
		if auxCount > 1 {
			return fmt.Errorf("约束 #%d 包含 %d 个辅助变量，最多允许1个", i, auxCount)
		}
	}
	return nil
}

// Solution 求解得到的变量赋值
type Solution struct {
	values    []int64
	objective int64
}

// Value 返回变量的取值
func (s *Solution) Value(v Var) int64 {
	return s.values[v]
}

// BoolValue 返回布尔变量的取值
func (s *Solution) BoolValue(v Var) bool {
	return s.values[v] != 0
}

// Objective 返回目标函数值
func (s *Solution) Objective() int64 {
	return s.objective
}
