package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shifthero/shifthero/pkg/engine"
	"github.com/shifthero/shifthero/pkg/errors"
	"github.com/shifthero/shifthero/pkg/model"
)

func testScheduler() *Scheduler {
	opts := engine.DefaultOptions()
	opts.TimeLimit = 20 * time.Second
	opts.Seed = 1
	return NewScheduler(opts)
}

// uniformDemand 构造每个班位需求相同的需求表
func uniformDemand(t *testing.T, required int) []*model.ShiftRequirement {
	t.Helper()
	demand := make([]*model.ShiftRequirement, 0, model.SlotsPerWeek)
	for _, s := range model.AllSlots() {
		req, err := model.NewShiftRequirement(s, required)
		if err != nil {
			t.Fatal(err)
		}
		demand = append(demand, req)
	}
	return demand
}

func mustEmployee(t *testing.T, name, role string, maxHours int) *model.Employee {
	t.Helper()
	emp, err := model.NewEmployee(name, role, maxHours)
	if err != nil {
		t.Fatal(err)
	}
	return emp
}

func TestGenerateSingleEmployeeFullWeek(t *testing.T) {
	// 1名员工（40小时上限）排满21个班位（84小时）：
	// 加班 44×50 + 连班 6×500 = 5200，无缺人惩罚
	emp := mustEmployee(t, "Alice", "Manager", 40)
	req := &Request{
		Employees: []*model.Employee{emp},
		Demand:    uniformDemand(t, 1),
	}

	result, err := testScheduler().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if result.SolverStatus != "OPTIMAL" {
		t.Fatalf("求解状态 = %s, want OPTIMAL", result.SolverStatus)
	}
	if got := result.Metrics.TotalPenalty; got != 5200 {
		t.Errorf("总惩罚 = %d, want 5200", got)
	}
	if len(result.Assignments) != model.SlotsPerWeek {
		t.Fatalf("排班条目数 = %d, want %d", len(result.Assignments), model.SlotsPerWeek)
	}
	for _, a := range result.Assignments {
		if len(a.EmployeeIDs) != 1 || a.EmployeeIDs[0] != emp.ID {
			t.Errorf("班位 %s 应排入唯一员工: %+v", a.Slot, a)
		}
	}
	// 单人团队的工时标准差为0
	if result.Metrics.FairnessStdDev != 0 {
		t.Errorf("公平性标准差 = %v, want 0", result.Metrics.FairnessStdDev)
	}
	if !strings.Contains(result.FormattedText, "Weekly Roster Draft") {
		t.Error("缺少导出文本")
	}
}

func TestGenerateEmptyTeamFullDemand(t *testing.T) {
	// 0名员工、每班位需求1人：21个班位全部缺人，21×1000 = 21000
	req := &Request{Demand: uniformDemand(t, 1)}

	result, err := testScheduler().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if result.SolverStatus != "OPTIMAL" {
		t.Fatalf("求解状态 = %s, want OPTIMAL", result.SolverStatus)
	}
	if got := result.Metrics.TotalPenalty; got != 21000 {
		t.Errorf("总惩罚 = %d, want 21000", got)
	}
	if len(result.Assignments) != model.SlotsPerWeek {
		t.Fatalf("排班条目数 = %d, want %d", len(result.Assignments), model.SlotsPerWeek)
	}
	for _, a := range result.Assignments {
		if len(a.EmployeeIDs) != 0 {
			t.Errorf("空团队的班位 %s 不应有排班", a.Slot)
		}
	}
	if result.Metrics.FairnessStdDev != 0 {
		t.Errorf("公平性标准差 = %v, want 0", result.Metrics.FairnessStdDev)
	}
}

func TestGenerateRespectsUnavailability(t *testing.T) {
	// 唯一员工在唯一有需求的班位不可用：缺口无法填补，惩罚1000
	emp := mustEmployee(t, "Alice", "Server", 40)
	target := model.Slot{Day: model.Monday, Block: model.Morning}
	if err := emp.MarkUnavailable(target); err != nil {
		t.Fatal(err)
	}

	demand := uniformDemand(t, 0)
	demand[target.Index()] = &model.ShiftRequirement{Slot: target, RequiredStaff: 1}
	req := &Request{Employees: []*model.Employee{emp}, Demand: demand}

	result, err := testScheduler().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if got := result.Metrics.TotalPenalty; got != 1000 {
		t.Errorf("总惩罚 = %d, want 1000", got)
	}
	for _, a := range result.Assignments {
		for _, id := range a.EmployeeIDs {
			if id == emp.ID && emp.IsUnavailable(a.Slot) {
				t.Errorf("员工被排入不可用班位 %s", a.Slot)
			}
		}
	}
}

func TestGenerateClopenTradeoff(t *testing.T) {
	// 仅周一晚班和周二早班有需求：两班都排产生一次连班（500），
	// 仍优于留下一个缺口（1000）
	emp := mustEmployee(t, "Alice", "Server", 40)
	dinner := model.Slot{Day: model.Monday, Block: model.Dinner}
	morning := model.Slot{Day: model.Tuesday, Block: model.Morning}

	demand := uniformDemand(t, 0)
	demand[dinner.Index()] = &model.ShiftRequirement{Slot: dinner, RequiredStaff: 1}
	demand[morning.Index()] = &model.ShiftRequirement{Slot: morning, RequiredStaff: 1}
	req := &Request{Employees: []*model.Employee{emp}, Demand: demand}

	result, err := testScheduler().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if result.SolverStatus != "OPTIMAL" {
		t.Fatalf("求解状态 = %s, want OPTIMAL", result.SolverStatus)
	}
	if got := result.Metrics.TotalPenalty; got != 500 {
		t.Errorf("总惩罚 = %d, want 500", got)
	}
	if len(result.Assignments[dinner.Index()].EmployeeIDs) != 1 ||
		len(result.Assignments[morning.Index()].EmployeeIDs) != 1 {
		t.Error("两个有需求的班位都应被排入")
	}
}

func TestGenerateInertRoleRule(t *testing.T) {
	// 角色规则指向没有任何在职员工的角色：静默跳过，不产生惩罚
	emp := mustEmployee(t, "Alice", "Server", 40)
	rule, err := model.NewRoleRequirement("Manager", 1)
	if err != nil {
		t.Fatal(err)
	}
	req := &Request{
		Employees: []*model.Employee{emp},
		Demand:    uniformDemand(t, 0),
		RoleRules: []*model.RoleRequirement{rule},
	}

	result, err := testScheduler().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if got := result.Metrics.TotalPenalty; got != 0 {
		t.Errorf("总惩罚 = %d, want 0", got)
	}
}

func TestGenerateRoleMinimum(t *testing.T) {
	// 周一早班需求1人且要求1名Manager在岗：
	// 排入Server无法消除角色惩罚，最优解是排入Manager
	manager := mustEmployee(t, "Alice", "Manager", 40)
	server := mustEmployee(t, "Bob", "Server", 40)
	target := model.Slot{Day: model.Monday, Block: model.Morning}
	rule, err := model.NewRoleRequirement("Manager", 1)
	if err != nil {
		t.Fatal(err)
	}

	demand := uniformDemand(t, 0)
	demand[target.Index()] = &model.ShiftRequirement{Slot: target, RequiredStaff: 1}
	req := &Request{
		Employees: []*model.Employee{manager, server},
		Demand:    demand,
		RoleRules: []*model.RoleRequirement{rule},
	}

	result, err := testScheduler().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if result.SolverStatus != "OPTIMAL" {
		t.Fatalf("求解状态 = %s, want OPTIMAL", result.SolverStatus)
	}
	// 角色规则对全部21个班位生效：Manager必须每班在岗。
	// 需求仅1个班位，Manager排满21个班位的总成本由角色权重决定。
	assigned := result.Assignments[target.Index()]
	foundManager := false
	for _, id := range assigned.EmployeeIDs {
		if id == manager.ID {
			foundManager = true
		}
	}
	if !foundManager {
		t.Errorf("有角色规则时周一早班应排入Manager: %+v", assigned)
	}
}

func TestGenerateRaisedDemandNeverLowersPenalty(t *testing.T) {
	// 单个班位的需求上调后，最优总惩罚不应下降。
	// 基线：1名员工（20小时上限）排满21个班位，加班64×50 + 连班6×500 = 6200；
	// 周三午班需求提到3后，多出的2个缺口无人可填，6200 + 2×1000 = 8200
	base := &Request{
		Employees: []*model.Employee{mustEmployee(t, "Alice", "Server", 20)},
		Demand:    uniformDemand(t, 1),
	}
	baseResult, err := testScheduler().Generate(context.Background(), base)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if baseResult.SolverStatus != "OPTIMAL" {
		t.Fatalf("基线求解状态 = %s, want OPTIMAL", baseResult.SolverStatus)
	}
	if got := baseResult.Metrics.TotalPenalty; got != 6200 {
		t.Errorf("基线总惩罚 = %d, want 6200", got)
	}

	target := model.Slot{Day: model.Wednesday, Block: model.Lunch}
	raisedDemand := uniformDemand(t, 1)
	raisedDemand[target.Index()] = &model.ShiftRequirement{Slot: target, RequiredStaff: 3}
	raised := &Request{
		Employees: []*model.Employee{mustEmployee(t, "Alice", "Server", 20)},
		Demand:    raisedDemand,
	}
	raisedResult, err := testScheduler().Generate(context.Background(), raised)
	if err != nil {
		t.Fatalf("Generate() 失败: %v", err)
	}
	if raisedResult.SolverStatus != "OPTIMAL" {
		t.Fatalf("上调后求解状态 = %s, want OPTIMAL", raisedResult.SolverStatus)
	}
	if got := raisedResult.Metrics.TotalPenalty; got != 8200 {
		t.Errorf("上调后总惩罚 = %d, want 8200", got)
	}
	if raisedResult.Metrics.TotalPenalty < baseResult.Metrics.TotalPenalty {
		t.Errorf("需求上调后惩罚下降: %d < %d",
			raisedResult.Metrics.TotalPenalty, baseResult.Metrics.TotalPenalty)
	}
}

func TestGenerateTimeout(t *testing.T) {
	emp := mustEmployee(t, "Alice", "Server", 40)
	opts := engine.DefaultOptions()
	opts.TimeLimit = -time.Millisecond
	s := NewScheduler(opts)

	_, err := s.Generate(context.Background(), &Request{
		Employees: []*model.Employee{emp},
		Demand:    uniformDemand(t, 1),
	})
	if err == nil {
		t.Fatal("预算耗尽应返回错误")
	}
	if !errors.Is(err, errors.CodeTimeout) {
		t.Errorf("错误码 = %v, want TIMEOUT", errors.GetCode(err))
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{
			name: "合法请求",
			req: &Request{
				Employees: []*model.Employee{mustEmployee(t, "Alice", "Server", 40)},
				Demand:    uniformDemand(t, 1),
			},
		},
		{
			name:    "需求表不完整",
			req:     &Request{Demand: uniformDemand(t, 1)[:10]},
			wantErr: true,
		},
		{
			name: "员工姓名重复",
			req: &Request{
				Employees: []*model.Employee{
					mustEmployee(t, "Alice", "Server", 40),
					mustEmployee(t, "Alice", "Chef", 30),
				},
				Demand: uniformDemand(t, 1),
			},
			wantErr: true,
		},
		{
			name: "空员工记录",
			req: &Request{
				Employees: []*model.Employee{nil},
				Demand:    uniformDemand(t, 1),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
