// Package teamconfig 定义可保存复用的团队配置文档：
// 员工名单、角色规则和不可用班位，支持JSON往返和CSV粘贴导入。
package teamconfig

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shifthero/shifthero/pkg/model"
)

// StaffEntry 员工条目
type StaffEntry struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	MaxHours int    `json:"max_hours"`
}

// RoleRule 角色规则条目
type RoleRule struct {
	Role     string `json:"role"`
	MinCount int    `json:"min_count"`
}

// UnavailableEntry 不可用班位条目（按员工姓名关联）
type UnavailableEntry struct {
	Name  string `json:"name"`
	Day   string `json:"day"`
	Block string `json:"block"`
}

// Document 团队配置文档
type Document struct {
	Staff       []StaffEntry       `json:"staff"`
	RoleRules   []RoleRule         `json:"role_rules"`
	Unavailable []UnavailableEntry `json:"unavailable"`
}

// Parse 解析团队配置JSON
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析团队配置失败: %w", err)
	}
	return &doc, nil
}

// Marshal 序列化团队配置（带缩进，便于人工编辑）
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Materialize 将文档展开为领域对象。
// 不可用条目中未知的员工姓名静默忽略；无效的星期或时段返回错误。
func (d *Document) Materialize() ([]*model.Employee, []*model.RoleRequirement, error) {
	employees := make([]*model.Employee, 0, len(d.Staff))
	byName := make(map[string]*model.Employee, len(d.Staff))
	for _, s := range d.Staff {
		emp, err := model.NewEmployee(s.Name, s.Role, s.MaxHours)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := byName[s.Name]; dup {
			return nil, nil, fmt.Errorf("员工姓名重复: %s", s.Name)
		}
		employees = append(employees, emp)
		byName[s.Name] = emp
	}

	for _, u := range d.Unavailable {
		slot, err := parseSlotParts(u.Day, u.Block)
		if err != nil {
			return nil, nil, err
		}
		emp, ok := byName[u.Name]
		if !ok {
			continue
		}
		if err := emp.MarkUnavailable(slot); err != nil {
			return nil, nil, err
		}
	}

	rules := make([]*model.RoleRequirement, 0, len(d.RoleRules))
	for _, r := range d.RoleRules {
		rule, err := model.NewRoleRequirement(r.Role, r.MinCount)
		if err != nil {
			return nil, nil, err
		}
		rules = append(rules, rule)
	}

	return employees, rules, nil
}

// parseSlotParts 解析星期和时段名称
func parseSlotParts(day, block string) (model.Slot, error) {
	d, err := model.ParseDay(day)
	if err != nil {
		return model.Slot{}, err
	}
	b, err := model.ParseTimeBlock(block)
	if err != nil {
		return model.Slot{}, err
	}
	return model.Slot{Day: d, Block: b}, nil
}

// ParseStaffCSV 解析粘贴的员工名单文本，每行 "姓名, 角色, 最大工时"。
// 字段不足或工时非整数的行跳过，返回解析结果和跳过的行数。
func ParseStaffCSV(text string) ([]StaffEntry, int) {
	var entries []StaffEntry
	skipped := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			skipped++
			continue
		}
		name := strings.TrimSpace(fields[0])
		role := strings.TrimSpace(fields[1])
		hours, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || name == "" {
			skipped++
			continue
		}
		entries = append(entries, StaffEntry{Name: name, Role: role, MaxHours: hours})
	}
	return entries, skipped
}
