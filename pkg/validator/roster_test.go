package validator

import (
	"testing"

	"github.com/shifthero/shifthero/pkg/model"
)

func mustEmployee(t *testing.T, name, role string, maxHours int) *model.Employee {
	t.Helper()
	emp, err := model.NewEmployee(name, role, maxHours)
	if err != nil {
		t.Fatal(err)
	}
	return emp
}

func hasConflict(conflicts []Conflict, typ ConflictType) bool {
	for _, c := range conflicts {
		if c.Type == typ {
			return true
		}
	}
	return false
}

func TestDetectAll(t *testing.T) {
	alice := mustEmployee(t, "Alice", "Manager", 4)
	if err := alice.MarkUnavailable(model.Slot{Day: model.Monday, Block: model.Morning}); err != nil {
		t.Fatal(err)
	}

	t.Run("无冲突方案", func(t *testing.T) {
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Tuesday, Block: model.Lunch}, EmployeeNames: []string{"Alice"}},
		}
		if got := NewRosterValidator(nil).DetectAll(assignments, []*model.Employee{alice}); len(got) != 0 {
			t.Errorf("不应有冲突: %+v", got)
		}
	})

	t.Run("不可用班位", func(t *testing.T) {
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Monday, Block: model.Morning}, EmployeeNames: []string{"Alice"}},
		}
		got := NewRosterValidator(nil).DetectAll(assignments, []*model.Employee{alice})
		if !hasConflict(got, ConflictAvailability) {
			t.Errorf("应检出不可用冲突: %+v", got)
		}
	})

	t.Run("未知员工", func(t *testing.T) {
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Tuesday, Block: model.Lunch}, EmployeeNames: []string{"Ghost"}},
		}
		got := NewRosterValidator(nil).DetectAll(assignments, []*model.Employee{alice})
		if !hasConflict(got, ConflictUnknownEmployee) {
			t.Errorf("应检出未知员工: %+v", got)
		}
	})

	t.Run("同班位重复", func(t *testing.T) {
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Tuesday, Block: model.Lunch}, EmployeeNames: []string{"Alice", "Alice"}},
		}
		got := NewRosterValidator(nil).DetectAll(assignments, []*model.Employee{alice})
		if !hasConflict(got, ConflictDuplicate) {
			t.Errorf("应检出重复排入: %+v", got)
		}
	})

	t.Run("加班警告", func(t *testing.T) {
		// MaxHours=4，两个班共8小时：超时但在硬上限内
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Tuesday, Block: model.Lunch}, EmployeeNames: []string{"Alice"}},
			{Slot: model.Slot{Day: model.Wednesday, Block: model.Lunch}, EmployeeNames: []string{"Alice"}},
		}
		got := NewRosterValidator(nil).DetectAll(assignments, []*model.Employee{alice})
		if !hasConflict(got, ConflictOvertime) {
			t.Errorf("应检出加班警告: %+v", got)
		}
		if hasConflict(got, ConflictHoursCap) {
			t.Errorf("不应触发硬上限: %+v", got)
		}
	})
}

func TestRecomputePenalty(t *testing.T) {
	alice := mustEmployee(t, "Alice", "Manager", 4)
	bob := mustEmployee(t, "Bob", "Server", 40)

	demand := make([]*model.ShiftRequirement, 0, model.SlotsPerWeek)
	for _, s := range model.AllSlots() {
		demand = append(demand, &model.ShiftRequirement{Slot: s})
	}
	// 周一早班需求2人
	demand[0] = &model.ShiftRequirement{Slot: model.Slot{Day: model.Monday, Block: model.Morning}, RequiredStaff: 2}

	rule, err := model.NewRoleRequirement("Manager", 1)
	if err != nil {
		t.Fatal(err)
	}

	v := NewRosterValidator(nil)

	t.Run("缺人惩罚", func(t *testing.T) {
		// 需求2人只排1人：缺口1 → 1000
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Monday, Block: model.Morning}, EmployeeNames: []string{"Bob"}},
		}
		got := v.RecomputePenalty(assignments, []*model.Employee{alice, bob}, demand, nil)
		if got != 1000 {
			t.Errorf("惩罚 = %d, want 1000", got)
		}
	})

	t.Run("同班位重复只计一次", func(t *testing.T) {
		// 需求2人但Bob被重复排入：在岗人数按去重后计1，缺口1 → 1000
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Monday, Block: model.Morning}, EmployeeNames: []string{"Bob", "Bob"}},
		}
		got := v.RecomputePenalty(assignments, []*model.Employee{alice, bob}, demand, nil)
		if got != 1000 {
			t.Errorf("惩罚 = %d, want 1000", got)
		}
	})

	t.Run("角色惩罚覆盖全部班位", func(t *testing.T) {
		// Manager规则对21个班位生效：排1个班位仍有21处角色缺口中的20处
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Monday, Block: model.Morning}, EmployeeNames: []string{"Alice", "Bob"}},
		}
		got := v.RecomputePenalty(assignments, []*model.Employee{alice, bob}, demand, []*model.RoleRequirement{rule})
		// 20个班位缺Manager（2000×20），周一早班无缺口
		if got != 40000 {
			t.Errorf("惩罚 = %d, want 40000", got)
		}
	})

	t.Run("连班与加班", func(t *testing.T) {
		// Alice（上限4小时）周一晚班+周二早班：连班500 + 加班4小时×50
		assignments := []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Monday, Block: model.Dinner}, EmployeeNames: []string{"Alice"}},
			{Slot: model.Slot{Day: model.Tuesday, Block: model.Morning}, EmployeeNames: []string{"Alice"}},
		}
		zeroDemand := make([]*model.ShiftRequirement, 0, model.SlotsPerWeek)
		for _, s := range model.AllSlots() {
			zeroDemand = append(zeroDemand, &model.ShiftRequirement{Slot: s})
		}
		got := v.RecomputePenalty(assignments, []*model.Employee{alice}, zeroDemand, nil)
		if got != 700 {
			t.Errorf("惩罚 = %d, want 700", got)
		}
	})

	t.Run("无在职员工的角色规则不计惩罚", func(t *testing.T) {
		chefRule, err := model.NewRoleRequirement("Chef", 1)
		if err != nil {
			t.Fatal(err)
		}
		got := v.RecomputePenalty(nil, []*model.Employee{bob}, demand, []*model.RoleRequirement{chefRule})
		// 仅剩周一早班的需求缺口 2×1000
		if got != 2000 {
			t.Errorf("惩罚 = %d, want 2000", got)
		}
	})
}
