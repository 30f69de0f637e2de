// Package model 定义周排班的核心数据模型
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Employee 员工（单次求解请求内的不可变快照）
type Employee struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	MaxHours int       `json:"max_hours"`

	// 不可上班的班位集合。只会收紧可用性，不会放宽。
	Unavailable map[Slot]struct{} `json:"-"`
}

// NewEmployee 创建员工，分配请求级别的不透明ID
func NewEmployee(name, role string, maxHours int) (*Employee, error) {
	if name == "" {
		return nil, fmt.Errorf("员工姓名不能为空")
	}
	if maxHours <= 0 {
		return nil, fmt.Errorf("员工 %s 的最大工时必须为正数，实际为 %d", name, maxHours)
	}
	return &Employee{
		ID:          uuid.New(),
		Name:        name,
		Role:        role,
		MaxHours:    maxHours,
		Unavailable: make(map[Slot]struct{}),
	}, nil
}

// MarkUnavailable 标记员工在某班位不可上班
func (e *Employee) MarkUnavailable(s Slot) error {
	if !s.Valid() {
		return fmt.Errorf("无效的班位: %v", s)
	}
	if e.Unavailable == nil {
		e.Unavailable = make(map[Slot]struct{})
	}
	e.Unavailable[s] = struct{}{}
	return nil
}

// IsUnavailable 检查员工在某班位是否不可上班
func (e *Employee) IsUnavailable(s Slot) bool {
	_, ok := e.Unavailable[s]
	return ok
}

// ShiftRequirement 单个班位的人力需求
type ShiftRequirement struct {
	Slot          Slot `json:"slot"`
	RequiredStaff int  `json:"required_staff"`
}

// NewShiftRequirement 创建班位需求
func NewShiftRequirement(s Slot, required int) (*ShiftRequirement, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("无效的班位: %v", s)
	}
	if required < 0 {
		return nil, fmt.Errorf("班位 %s 的需求人数不能为负数，实际为 %d", s, required)
	}
	return &ShiftRequirement{Slot: s, RequiredStaff: required}, nil
}

// ValidateDemand 校验需求表：必须恰好覆盖每个班位一次（共21条）
func ValidateDemand(demand []*ShiftRequirement) error {
	if len(demand) != SlotsPerWeek {
		return fmt.Errorf("需求表必须包含 %d 个班位，实际为 %d", SlotsPerWeek, len(demand))
	}
	seen := make(map[Slot]bool, SlotsPerWeek)
	for _, req := range demand {
		if req == nil {
			return fmt.Errorf("需求表包含空记录")
		}
		if !req.Slot.Valid() {
			return fmt.Errorf("需求表包含无效班位: %v", req.Slot)
		}
		if req.RequiredStaff < 0 {
			return fmt.Errorf("班位 %s 的需求人数不能为负数", req.Slot)
		}
		if seen[req.Slot] {
			return fmt.Errorf("班位 %s 在需求表中重复出现", req.Slot)
		}
		seen[req.Slot] = true
	}
	return nil
}

// RoleRequirement 角色最低人数规则（对一周内每个班位统一生效）
type RoleRequirement struct {
	Role     string `json:"role"`
	MinCount int    `json:"min_count"`
}

// NewRoleRequirement 创建角色规则
func NewRoleRequirement(role string, minCount int) (*RoleRequirement, error) {
	if role == "" {
		return nil, fmt.Errorf("角色名称不能为空")
	}
	if minCount <= 0 {
		return nil, fmt.Errorf("角色 %s 的最低人数必须为正数，实际为 %d", role, minCount)
	}
	return &RoleRequirement{Role: role, MinCount: minCount}, nil
}

// ShiftAssignment 单个班位的排班结果
type ShiftAssignment struct {
	Slot          Slot        `json:"slot"`
	EmployeeIDs   []uuid.UUID `json:"employee_ids"`
	EmployeeNames []string    `json:"employee_names"`
}

// Metrics 排班质量指标
type Metrics struct {
	// 求解器目标函数值（各软约束惩罚之和）
	TotalPenalty int64 `json:"total_penalty"`
	// 各员工总工时的总体标准差（越小越均衡）
	FairnessStdDev float64 `json:"fairness_std_dev"`
}

// ScheduleResult 一次求解的完整输出，返回后归调用方所有
type ScheduleResult struct {
	Assignments   []ShiftAssignment `json:"assignments"`
	Metrics       Metrics           `json:"metrics"`
	FormattedText string            `json:"formatted_text"`
	SolverStatus  string            `json:"solver_status"`
}
