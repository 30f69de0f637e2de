// Package export 将排班结果渲染为可直接转发的文本格式
package export

import (
	"strings"

	"github.com/google/uuid"

	"github.com/shifthero/shifthero/pkg/model"
)

// 各时段的图标
var blockIcons = map[model.TimeBlock]string{
	model.Morning: "☀️",
	model.Lunch:   "🍔",
	model.Dinner:  "🌙",
}

// WhatsAppFormatter 生成 WhatsApp 风格的周排班文本
type WhatsAppFormatter struct{}

// NewWhatsAppFormatter 创建格式化器
func NewWhatsAppFormatter() *WhatsAppFormatter {
	return &WhatsAppFormatter{}
}

// Format 渲染周排班文本：按天分组，每个时段一行，员工名后附角色缩写。
// 空排班返回占位文案。
func (f *WhatsAppFormatter) Format(assignments []model.ShiftAssignment, employees []*model.Employee) string {
	if len(assignments) == 0 {
		return "No schedule generated."
	}

	roleByID := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		roleByID[e.ID] = e.Role
	}

	var b strings.Builder
	b.WriteString("*🍽️ Weekly Roster Draft*\n\n")

	var currentDay model.Day = -1
	for _, a := range assignments {
		if a.Slot.Day != currentDay {
			currentDay = a.Slot.Day
			if b.Len() > len("*🍽️ Weekly Roster Draft*\n\n") {
				b.WriteString("\n")
			}
			b.WriteString("📅 *" + currentDay.String() + "*\n")
		}
		b.WriteString(blockIcons[a.Slot.Block] + " " + a.Slot.Block.String() + ": " + f.staffLine(a, roleByID) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// staffLine 拼接班位上的员工显示名，如 "Alice (Man), Bob (Ser)"
func (f *WhatsAppFormatter) staffLine(a model.ShiftAssignment, roleByID map[uuid.UUID]string) string {
	display := make([]string, 0, len(a.EmployeeNames))
	for i, name := range a.EmployeeNames {
		role := ""
		if i < len(a.EmployeeIDs) {
			role = roleByID[a.EmployeeIDs[i]]
		}
		if role != "" {
			if r := []rune(role); len(r) > 3 {
				role = string(r[:3])
			}
			display = append(display, name+" ("+role+")")
		} else {
			display = append(display, name)
		}
	}
	return strings.Join(display, ", ")
}
