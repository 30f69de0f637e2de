package export

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shifthero/shifthero/pkg/model"
)

func ids(employees ...*model.Employee) []uuid.UUID {
	out := make([]uuid.UUID, len(employees))
	for i, e := range employees {
		out[i] = e.ID
	}
	return out
}

func TestFormatEmptySchedule(t *testing.T) {
	got := NewWhatsAppFormatter().Format(nil, nil)
	if got != "No schedule generated." {
		t.Errorf("空排班文案 = %q", got)
	}
}

func TestFormatWeekly(t *testing.T) {
	alice, err := model.NewEmployee("Alice", "Manager", 40)
	if err != nil {
		t.Fatal(err)
	}
	bob, err := model.NewEmployee("Bob", "Server", 40)
	if err != nil {
		t.Fatal(err)
	}

	assignments := []model.ShiftAssignment{
		{
			Slot:          model.Slot{Day: model.Monday, Block: model.Morning},
			EmployeeIDs:   ids(alice, bob),
			EmployeeNames: []string{"Alice", "Bob"},
		},
		{Slot: model.Slot{Day: model.Monday, Block: model.Lunch}},
		{
			Slot:          model.Slot{Day: model.Tuesday, Block: model.Dinner},
			EmployeeIDs:   ids(bob),
			EmployeeNames: []string{"Bob"},
		},
	}

	got := NewWhatsAppFormatter().Format(assignments, []*model.Employee{alice, bob})

	if !strings.HasPrefix(got, "*🍽️ Weekly Roster Draft*\n\n") {
		t.Errorf("缺少标题: %q", got)
	}
	for _, want := range []string{
		"📅 *Mon*\n",
		"☀️ Morning: Alice (Man), Bob (Ser)\n",
		"🍔 Lunch: \n",
		"📅 *Tue*\n",
		"🌙 Dinner: Bob (Ser)\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("输出缺少 %q:\n%s", want, got)
		}
	}
	// 天与天之间用空行分隔
	if !strings.Contains(got, "Lunch: \n\n📅 *Tue*") {
		t.Errorf("天分组之间缺少空行:\n%s", got)
	}
}
