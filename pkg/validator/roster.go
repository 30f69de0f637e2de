// Package validator 校验排班方案（含人工编辑后的方案）并重算惩罚
package validator

import (
	"fmt"

	"github.com/shifthero/shifthero/pkg/model"
	"github.com/shifthero/shifthero/pkg/scheduler"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictUnknownEmployee ConflictType = "unknown_employee" // 员工不存在
	ConflictDuplicate       ConflictType = "duplicate"        // 同一班位重复排入
	ConflictAvailability    ConflictType = "availability"     // 不可用班位
	ConflictOvertime        ConflictType = "overtime"         // 超过最大工时
	ConflictHoursCap        ConflictType = "hours_cap"        // 超过工时硬上限
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	Employee string       `json:"employee,omitempty"`
	Slot     string       `json:"slot,omitempty"`
	Message  string       `json:"message"`
}

// Config 校验器配置
type Config struct {
	// 超过 MaxHours + OvertimeCap 视为硬性错误
	OvertimeCap       int
	CheckAvailability bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		OvertimeCap:       scheduler.OvertimeCap,
		CheckAvailability: true,
	}
}

// RosterValidator 排班方案校验器
type RosterValidator struct {
	config *Config
}

// NewRosterValidator 创建排班方案校验器
func NewRosterValidator(config *Config) *RosterValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &RosterValidator{config: config}
}

// DetectAll 检测排班方案中的全部冲突。
// 员工按姓名匹配，便于校验人工粘贴或编辑后的方案。
func (v *RosterValidator) DetectAll(assignments []model.ShiftAssignment, employees []*model.Employee) []Conflict {
	var conflicts []Conflict

	byName := make(map[string]*model.Employee, len(employees))
	for _, e := range employees {
		byName[e.Name] = e
	}

	hours := make(map[string]int, len(employees))
	for _, a := range assignments {
		seen := make(map[string]bool, len(a.EmployeeNames))
		for _, name := range a.EmployeeNames {
			emp, known := byName[name]
			if !known {
				conflicts = append(conflicts, Conflict{
					Type:     ConflictUnknownEmployee,
					Severity: "error",
					Employee: name,
					Slot:     a.Slot.String(),
					Message:  fmt.Sprintf("员工 %s 不在名单中", name),
				})
				continue
			}
			if seen[name] {
				conflicts = append(conflicts, Conflict{
					Type:     ConflictDuplicate,
					Severity: "error",
					Employee: name,
					Slot:     a.Slot.String(),
					Message:  fmt.Sprintf("员工 %s 在班位 %s 重复排入", name, a.Slot),
				})
				continue
			}
			seen[name] = true
			hours[name] += model.BlockHours

			if v.config.CheckAvailability && emp.IsUnavailable(a.Slot) {
				conflicts = append(conflicts, Conflict{
					Type:     ConflictAvailability,
					Severity: "error",
					Employee: name,
					Slot:     a.Slot.String(),
					Message:  fmt.Sprintf("员工 %s 在班位 %s 不可上班", name, a.Slot),
				})
			}
		}
	}

	for _, emp := range employees {
		worked := hours[emp.Name]
		if worked > emp.MaxHours+v.config.OvertimeCap {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictHoursCap,
				Severity: "error",
				Employee: emp.Name,
				Message:  fmt.Sprintf("员工 %s 周工时 %d 超过硬上限 %d", emp.Name, worked, emp.MaxHours+v.config.OvertimeCap),
			})
		} else if worked > emp.MaxHours {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOvertime,
				Severity: "warning",
				Employee: emp.Name,
				Message:  fmt.Sprintf("员工 %s 周工时 %d 超过最大工时 %d", emp.Name, worked, emp.MaxHours),
			})
		}
	}

	return conflicts
}

// RecomputePenalty 按排班目标的权重重算方案总惩罚。
// 用于人工编辑后的方案：编辑可能偏离求解器输出，需要重新评估质量。
func (v *RosterValidator) RecomputePenalty(
	assignments []model.ShiftAssignment,
	employees []*model.Employee,
	demand []*model.ShiftRequirement,
	roleRules []*model.RoleRequirement,
) int64 {
	byName := make(map[string]*model.Employee, len(employees))
	rolePresent := make(map[string]bool, len(employees))
	for _, e := range employees {
		byName[e.Name] = e
		rolePresent[e.Role] = true
	}

	required := make(map[model.Slot]int, len(demand))
	for _, d := range demand {
		required[d.Slot] = d.RequiredStaff
	}

	var penalty int64
	hours := make(map[string]int, len(employees))
	worksAt := make(map[string]map[model.Slot]bool, len(employees))
	staffed := make(map[model.Slot]int, len(assignments))
	roleStaffed := make(map[model.Slot]map[string]int, len(assignments))

	for _, a := range assignments {
		// 同一班位的重复排入只计一次，与 DetectAll 的冲突检测一致
		seen := make(map[string]bool, len(a.EmployeeNames))
		for _, name := range a.EmployeeNames {
			emp, known := byName[name]
			if !known || seen[name] {
				continue
			}
			seen[name] = true
			staffed[a.Slot]++
			if roleStaffed[a.Slot] == nil {
				roleStaffed[a.Slot] = make(map[string]int)
			}
			roleStaffed[a.Slot][emp.Role]++
			hours[name] += model.BlockHours
			if worksAt[name] == nil {
				worksAt[name] = make(map[model.Slot]bool)
			}
			worksAt[name][a.Slot] = true
		}
	}

	// 覆盖与角色惩罚对一周内全部班位生效，包括方案中缺失的班位
	for _, slot := range model.AllSlots() {
		if shortage := required[slot] - staffed[slot]; shortage > 0 {
			penalty += int64(shortage) * scheduler.WeightUnassigned
		}
		for _, rule := range roleRules {
			if !rolePresent[rule.Role] {
				continue
			}
			if missing := rule.MinCount - roleStaffed[slot][rule.Role]; missing > 0 {
				penalty += int64(missing) * scheduler.WeightRoleMissing
			}
		}
	}

	// 连班：晚班接次日早班
	for _, slots := range worksAt {
		for day := model.Monday; day < model.Sunday; day++ {
			if slots[model.Slot{Day: day, Block: model.Dinner}] &&
				slots[model.Slot{Day: day + 1, Block: model.Morning}] {
				penalty += scheduler.WeightClopen
			}
		}
	}

	// 加班
	for _, emp := range employees {
		if over := hours[emp.Name] - emp.MaxHours; over > 0 {
			penalty += int64(over) * scheduler.WeightOvertime
		}
	}

	return penalty
}
