package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestParseSlot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Slot
		wantErr bool
	}{
		{name: "周一早班", input: "Mon-Morning", want: Slot{Monday, Morning}},
		{name: "周日晚班", input: "Sun-Dinner", want: Slot{Sunday, Dinner}},
		{name: "周三午班", input: "Wed-Lunch", want: Slot{Wednesday, Lunch}},
		{name: "无效星期", input: "Monday-Morning", wantErr: true},
		{name: "无效时段", input: "Mon-Night", wantErr: true},
		{name: "缺少分隔符", input: "MonMorning", wantErr: true},
		{name: "空字符串", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlot(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSlot(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlotStringRoundTrip(t *testing.T) {
	for _, s := range AllSlots() {
		parsed, err := ParseSlot(s.String())
		if err != nil {
			t.Fatalf("ParseSlot(%q) 失败: %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("班位 %v 序列化往返后变为 %v", s, parsed)
		}
	}
}

func TestAllSlotsChronological(t *testing.T) {
	slots := AllSlots()
	if len(slots) != SlotsPerWeek {
		t.Fatalf("AllSlots() 返回 %d 个班位, want %d", len(slots), SlotsPerWeek)
	}
	for i, s := range slots {
		if s.Index() != i {
			t.Errorf("班位 %v 的索引 = %d, want %d", s, s.Index(), i)
		}
		if i > 0 && !slots[i-1].Before(s) {
			t.Errorf("班位 %v 未排在 %v 之后", s, slots[i-1])
		}
	}
}

func TestNewEmployee(t *testing.T) {
	tests := []struct {
		name     string
		empName  string
		role     string
		maxHours int
		wantErr  bool
	}{
		{name: "正常员工", empName: "Alice", role: "Manager", maxHours: 40},
		{name: "工时为零", empName: "Bob", role: "Chef", maxHours: 0, wantErr: true},
		{name: "工时为负", empName: "Carol", role: "Server", maxHours: -5, wantErr: true},
		{name: "姓名为空", empName: "", role: "Server", maxHours: 20, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp, err := NewEmployee(tt.empName, tt.role, tt.maxHours)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEmployee() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if emp.ID == uuid.Nil {
				t.Error("员工ID未分配")
			}
			if emp.Name != tt.empName || emp.Role != tt.role || emp.MaxHours != tt.maxHours {
				t.Errorf("员工字段不匹配: %+v", emp)
			}
		})
	}
}

func TestEmployeeUnavailability(t *testing.T) {
	emp, err := NewEmployee("Alice", "Manager", 40)
	if err != nil {
		t.Fatal(err)
	}

	slot := Slot{Friday, Dinner}
	if emp.IsUnavailable(slot) {
		t.Error("新员工不应有不可用班位")
	}

	if err := emp.MarkUnavailable(slot); err != nil {
		t.Fatalf("MarkUnavailable() 失败: %v", err)
	}
	if !emp.IsUnavailable(slot) {
		t.Error("标记后应不可用")
	}
	if emp.IsUnavailable(Slot{Friday, Morning}) {
		t.Error("不可用标记只应影响指定班位")
	}
}

func TestValidateDemand(t *testing.T) {
	fullDemand := func() []*ShiftRequirement {
		var demand []*ShiftRequirement
		for _, s := range AllSlots() {
			demand = append(demand, &ShiftRequirement{Slot: s, RequiredStaff: 1})
		}
		return demand
	}

	t.Run("完整需求表通过", func(t *testing.T) {
		if err := ValidateDemand(fullDemand()); err != nil {
			t.Errorf("完整需求表应通过校验: %v", err)
		}
	})

	t.Run("缺少班位", func(t *testing.T) {
		demand := fullDemand()[:SlotsPerWeek-1]
		if err := ValidateDemand(demand); err == nil {
			t.Error("缺少班位的需求表应失败")
		}
	})

	t.Run("重复班位", func(t *testing.T) {
		demand := fullDemand()
		demand[1] = demand[0]
		if err := ValidateDemand(demand); err == nil {
			t.Error("重复班位的需求表应失败")
		}
	})

	t.Run("负数需求", func(t *testing.T) {
		demand := fullDemand()
		demand[3] = &ShiftRequirement{Slot: demand[3].Slot, RequiredStaff: -1}
		if err := ValidateDemand(demand); err == nil {
			t.Error("负数需求应失败")
		}
	})
}

func TestNewRoleRequirement(t *testing.T) {
	if _, err := NewRoleRequirement("Manager", 1); err != nil {
		t.Errorf("正常角色规则应通过: %v", err)
	}
	if _, err := NewRoleRequirement("Manager", 0); err == nil {
		t.Error("最低人数为0的角色规则应失败")
	}
	if _, err := NewRoleRequirement("", 1); err == nil {
		t.Error("空角色名应失败")
	}
}

func TestSlotJSONRoundTrip(t *testing.T) {
	slot := Slot{Day: Friday, Block: Dinner}
	data, err := json.Marshal(slot)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"Fri-Dinner"` {
		t.Errorf("序列化结果 = %s, want %q", data, "Fri-Dinner")
	}

	var parsed Slot
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed != slot {
		t.Errorf("往返后班位不一致: %v", parsed)
	}

	if err := json.Unmarshal([]byte(`"Fri-Midnight"`), &parsed); err == nil {
		t.Error("无效时段应失败")
	}
}
