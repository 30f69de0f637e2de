// Package constraints 描述排班目标中的约束项，供前端展示
package constraints

import (
	"strconv"

	"github.com/shifthero/shifthero/pkg/scheduler"
)

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"` // hard 硬约束, soft 软约束
	Description string `json:"description"`
	// 软约束的单位惩罚权重，硬约束为0
	Weight int    `json:"weight"`
	Unit   string `json:"unit,omitempty"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 返回排班目标使用的全部约束定义
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		{
			Name:        "availability",
			DisplayName: "员工可用性",
			Type:        "hard",
			Description: "员工标记为不可用的班位绝不排入",
		},
		{
			Name:        "coverage",
			DisplayName: "班位人数覆盖",
			Type:        "soft",
			Description: "每个班位的在岗人数应满足需求，每缺1人计" + strconv.Itoa(scheduler.WeightUnassigned) + "分惩罚",
			Weight:      scheduler.WeightUnassigned,
			Unit:        "人",
		},
		{
			Name:        "role_coverage",
			DisplayName: "角色最低人数",
			Type:        "soft",
			Description: "每个班位应满足各角色的最低在岗人数，规则对在职员工中存在的角色生效",
			Weight:      scheduler.WeightRoleMissing,
			Unit:        "人",
		},
		{
			Name:        "clopen",
			DisplayName: "连班惩罚",
			Type:        "soft",
			Description: "晚班接次日早班的组合应尽量避免",
			Weight:      scheduler.WeightClopen,
			Unit:        "次",
		},
		{
			Name:        "overtime",
			DisplayName: "加班惩罚",
			Type:        "soft",
			Description: "超过员工周最大工时的部分按小时计惩罚",
			Weight:      scheduler.WeightOvertime,
			Unit:        "小时",
		},
	}
}
