// Package scheduler 将排班请求编译为优化模型，并从求解结果中提取排班方案
package scheduler

import (
	"fmt"

	"github.com/shifthero/shifthero/pkg/engine"
	"github.com/shifthero/shifthero/pkg/model"
)

// 软约束权重
const (
	// WeightUnassigned 班位缺人惩罚（每缺1人）
	WeightUnassigned = 1000
	// WeightRoleMissing 角色缺人惩罚（每缺1人）
	WeightRoleMissing = 2000
	// WeightClopen 连班惩罚（晚班接次日早班，每次）
	WeightClopen = 500
	// WeightOvertime 加班惩罚（每超1小时）
	WeightOvertime = 50
)

// OvertimeCap 每人每周可计入的加班小时数上限
const OvertimeCap = 100

// rosterModel 编译后的优化模型及变量索引
type rosterModel struct {
	m         *engine.Model
	employees []*model.Employee
	slots     []model.Slot

	// assign[员工下标][班位索引] 为对应的决策变量
	assign [][]engine.Var

	// 没有任何在职员工的角色规则（静默跳过，不产生惩罚）
	inertRoles []string
}

// buildModel 将排班请求编译为优化模型。
// 可用性是硬约束（直接固定变量），其余全部为带权软约束。
func buildModel(req *Request) (*rosterModel, error) {
	slots := model.AllSlots()
	rm := &rosterModel{
		m:         engine.NewModel(),
		employees: req.Employees,
		slots:     slots,
		assign:    make([][]engine.Var, len(req.Employees)),
	}
	composer := &objectiveComposer{}

	// 决策变量：员工 × 班位；不可用班位直接固定为0
	for ei, emp := range req.Employees {
		rm.assign[ei] = make([]engine.Var, len(slots))
		for si, slot := range slots {
			v := rm.m.NewBoolVar(fmt.Sprintf("assign:%s:%s", emp.Name, slot))
			rm.assign[ei][si] = v
			if emp.IsUnavailable(slot) {
				rm.m.FixBool(v, false)
			}
		}
	}

	demand := make(map[model.Slot]int, len(req.Demand))
	for _, d := range req.Demand {
		demand[d.Slot] = d.RequiredStaff
	}

	// 覆盖约束：Σ assign + shortage ≥ 需求人数
	for si, slot := range slots {
		required := demand[slot]
		if required == 0 {
			continue
		}
		shortage := rm.m.NewIntVar(0, int64(required), fmt.Sprintf("shortage:%s", slot))
		terms := make([]engine.Term, 0, len(req.Employees)+1)
		for ei := range req.Employees {
			terms = append(terms, engine.Term{Var: rm.assign[ei][si], Coef: 1})
		}
		terms = append(terms, engine.Term{Var: shortage, Coef: 1})
		rm.m.AddAtLeast(terms, int64(required))
		composer.add(shortage, WeightUnassigned)
	}

	// 角色约束：每个班位上该角色的人数 ≥ 最低要求。
	// 角色注册表只解析一次；没有在职员工的角色规则不产生任何约束。
	eligible := eligibleByRole(req.Employees)
	for _, rule := range req.RoleRules {
		members := eligible[rule.Role]
		if len(members) == 0 {
			rm.inertRoles = append(rm.inertRoles, rule.Role)
			continue
		}
		for si, slot := range slots {
			missing := rm.m.NewIntVar(0, int64(rule.MinCount), fmt.Sprintf("role_missing:%s:%s", rule.Role, slot))
			terms := make([]engine.Term, 0, len(members)+1)
			for _, ei := range members {
				terms = append(terms, engine.Term{Var: rm.assign[ei][si], Coef: 1})
			}
			terms = append(terms, engine.Term{Var: missing, Coef: 1})
			rm.m.AddAtLeast(terms, int64(rule.MinCount))
			composer.add(missing, WeightRoleMissing)
		}
	}

	// 连班约束：晚班接次日早班时指示变量被迫为1
	for ei, emp := range req.Employees {
		for day := model.Monday; day < model.Sunday; day++ {
			dinner := model.Slot{Day: day, Block: model.Dinner}
			morning := model.Slot{Day: day + 1, Block: model.Morning}
			if emp.IsUnavailable(dinner) || emp.IsUnavailable(morning) {
				continue
			}
			both := rm.m.NewIntVar(0, 1, fmt.Sprintf("clopen:%s:%s", emp.Name, dinner.Day))
			// both ≥ dinner + morning - 1。
			// 无需 both ≤ dinner、both ≤ morning 的上界约束：
			// 求解器将辅助变量传播到最小可行值，且目标系数非负
			// （engine.Model 校验保证），both 不会超过两端点的与
			rm.m.AddAtLeast([]engine.Term{
				{Var: both, Coef: 1},
				{Var: rm.assign[ei][dinner.Index()], Coef: -1},
				{Var: rm.assign[ei][morning.Index()], Coef: -1},
			}, -1)
			composer.add(both, WeightClopen)
		}
	}

	// 加班约束：overtime ≥ 总工时 - 最大工时
	for ei, emp := range req.Employees {
		overtime := rm.m.NewIntVar(0, OvertimeCap, fmt.Sprintf("overtime:%s", emp.Name))
		terms := make([]engine.Term, 0, len(slots)+1)
		terms = append(terms, engine.Term{Var: overtime, Coef: 1})
		for si := range slots {
			terms = append(terms, engine.Term{Var: rm.assign[ei][si], Coef: -model.BlockHours})
		}
		rm.m.AddAtLeast(terms, int64(-emp.MaxHours))
		composer.add(overtime, WeightOvertime)
	}

	composer.apply(rm.m)
	return rm, nil
}

// eligibleByRole 按角色索引员工下标（每个请求解析一次）
func eligibleByRole(employees []*model.Employee) map[string][]int {
	byRole := make(map[string][]int)
	for ei, emp := range employees {
		byRole[emp.Role] = append(byRole[emp.Role], ei)
	}
	return byRole
}
