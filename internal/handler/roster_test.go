package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shifthero/shifthero/pkg/model"
	"github.com/shifthero/shifthero/pkg/teamconfig"
)

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func fullWeekDemand(required int) []DemandInput {
	days := model.AllDays()
	demand := make([]DemandInput, 0, len(days))
	for _, d := range days {
		demand = append(demand, DemandInput{
			Day:     d.String(),
			Morning: required,
			Lunch:   required,
			Dinner:  required,
		})
	}
	return demand
}

func TestGenerateEndpoint(t *testing.T) {
	h := NewRosterHandler(nil)

	req := GenerateRequest{
		Team: teamconfig.Document{
			Staff: []teamconfig.StaffEntry{{Name: "Alice", Role: "Server", MaxHours: 40}},
		},
		Demand:  fullWeekDemand(1),
		Options: &SolveOptions{TimeLimitSeconds: 20, Seed: 1},
	}

	rec := postJSON(t, h.Generate, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("应返回成功")
	}
	// 单人排满21个班位：加班44小时×50 + 连班6次×500
	if resp.TotalPenalty != 5200 {
		t.Errorf("总惩罚 = %d, want 5200", resp.TotalPenalty)
	}
	if len(resp.Assignments) != model.SlotsPerWeek {
		t.Errorf("班位数 = %d, want %d", len(resp.Assignments), model.SlotsPerWeek)
	}
	if resp.Workload == nil || len(resp.Workload.Loads) != 1 {
		t.Errorf("工作量统计缺失: %+v", resp.Workload)
	}
	if resp.FormattedText == "" {
		t.Error("导出文本不应为空")
	}
}

func TestGenerateRejectsBadDemand(t *testing.T) {
	h := NewRosterHandler(nil)
	team := teamconfig.Document{
		Staff: []teamconfig.StaffEntry{{Name: "Alice", Role: "Server", MaxHours: 40}},
	}

	tests := []struct {
		name   string
		demand []DemandInput
	}{
		{
			name: "重复的星期",
			demand: append(fullWeekDemand(1),
				DemandInput{Day: "Mon", Morning: 2}),
		},
		{
			name:   "缺少记录",
			demand: fullWeekDemand(1)[:6],
		},
		{
			name: "无效的星期",
			demand: append(fullWeekDemand(1)[:6],
				DemandInput{Day: "Funday", Morning: 1}),
		},
		{
			name: "负数需求",
			demand: append(fullWeekDemand(1)[:6],
				DemandInput{Day: "Sun", Morning: -1}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Generate, GenerateRequest{Team: team, Demand: tt.demand})
			if rec.Code != http.StatusBadRequest {
				t.Errorf("状态码 = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGenerateRejectsInvalidTeam(t *testing.T) {
	h := NewRosterHandler(nil)

	body := []byte(`{
		"team": {
			"staff": [{"name": "Alice", "role": "Server", "max_hours": 40}],
			"unavailable": [{"name": "Alice", "day": "Funday", "block": "Morning"}]
		},
		"demand": []
	}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Generate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("状态码 = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGenerateRejectsWrongMethod(t *testing.T) {
	h := NewRosterHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("状态码 = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := NewRosterHandler(nil)

	demand := fullWeekDemand(0)
	demand[0].Morning = 2

	req := ValidateRequest{
		Team: teamconfig.Document{
			Staff: []teamconfig.StaffEntry{{Name: "Alice", Role: "Server", MaxHours: 40}},
		},
		Demand: demand,
		Assignments: []model.ShiftAssignment{
			{
				Slot:          model.Slot{Day: model.Monday, Block: model.Morning},
				EmployeeNames: []string{"Alice", "Ghost"},
			},
		},
	}

	rec := postJSON(t, h.Validate, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Valid {
		t.Error("包含未知员工的方案不应有效")
	}
	if len(resp.Conflicts) == 0 {
		t.Error("应返回冲突列表")
	}
	// 未知员工不计入在岗人数：需求2只有Alice在岗，缺口1
	if resp.TotalPenalty != 1000 {
		t.Errorf("总惩罚 = %d, want 1000", resp.TotalPenalty)
	}
}

func TestWorkloadEndpoint(t *testing.T) {
	h := NewRosterHandler(nil)

	req := WorkloadRequest{
		Team: teamconfig.Document{
			Staff: []teamconfig.StaffEntry{
				{Name: "Alice", Role: "Server", MaxHours: 40},
				{Name: "Bob", Role: "Server", MaxHours: 40},
			},
		},
		Assignments: []model.ShiftAssignment{
			{Slot: model.Slot{Day: model.Monday, Block: model.Morning}, EmployeeNames: []string{"Alice"}},
			{Slot: model.Slot{Day: model.Monday, Block: model.Lunch}, EmployeeNames: []string{"Alice"}},
		},
	}

	rec := postJSON(t, h.Workload, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AvgHours float64 `json:"avg_hours"`
		StdDev   float64 `json:"std_dev"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// Alice 8小时，Bob 0小时
	if resp.AvgHours != 4 {
		t.Errorf("平均工时 = %v, want 4", resp.AvgHours)
	}
	if resp.StdDev != 4 {
		t.Errorf("标准差 = %v, want 4", resp.StdDev)
	}
}
