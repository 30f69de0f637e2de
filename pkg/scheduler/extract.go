package scheduler

import (
	"github.com/shifthero/shifthero/pkg/engine"
	"github.com/shifthero/shifthero/pkg/model"
	"github.com/shifthero/shifthero/pkg/stats"
)

// extractAssignments 从求解结果中提取排班方案。
// 班位按时间顺序排列（周一早班到周日晚班），每个班位内员工保持输入顺序。
func extractAssignments(rm *rosterModel, sol *engine.Solution) []model.ShiftAssignment {
	assignments := make([]model.ShiftAssignment, 0, len(rm.slots))
	for si, slot := range rm.slots {
		a := model.ShiftAssignment{Slot: slot}
		for ei, emp := range rm.employees {
			if sol.BoolValue(rm.assign[ei][si]) {
				a.EmployeeIDs = append(a.EmployeeIDs, emp.ID)
				a.EmployeeNames = append(a.EmployeeNames, emp.Name)
			}
		}
		assignments = append(assignments, a)
	}
	return assignments
}

// extractMetrics 计算排班质量指标。
// 总惩罚直接取求解器的目标函数值，不做二次重算。
func extractMetrics(assignments []model.ShiftAssignment, employees []*model.Employee, sol *engine.Solution) model.Metrics {
	workload := stats.NewWorkloadAnalyzer().Analyze(assignments, employees)
	return model.Metrics{
		TotalPenalty:   sol.Objective(),
		FairnessStdDev: workload.StdDev,
	}
}
