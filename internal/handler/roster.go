package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shifthero/shifthero/internal/metrics"
	"github.com/shifthero/shifthero/pkg/engine"
	"github.com/shifthero/shifthero/pkg/errors"
	"github.com/shifthero/shifthero/pkg/model"
	"github.com/shifthero/shifthero/pkg/scheduler"
	"github.com/shifthero/shifthero/pkg/stats"
	"github.com/shifthero/shifthero/pkg/teamconfig"
	"github.com/shifthero/shifthero/pkg/validator"
)

// RosterHandler 周排班处理器
type RosterHandler struct {
	opts     *engine.Options
	analyzer *stats.WorkloadAnalyzer
}

// NewRosterHandler 创建周排班处理器
func NewRosterHandler(opts *engine.Options) *RosterHandler {
	if opts == nil {
		opts = engine.DefaultOptions()
	}
	return &RosterHandler{
		opts:     opts,
		analyzer: stats.NewWorkloadAnalyzer(),
	}
}

// DemandInput 单日三个时段的人数需求
type DemandInput struct {
	Day     string `json:"day"`
	Morning int    `json:"morning_count"`
	Lunch   int    `json:"lunch_count"`
	Dinner  int    `json:"dinner_count"`
}

// SolveOptions 求解选项
type SolveOptions struct {
	TimeLimitSeconds float64 `json:"time_limit_seconds,omitempty"`
	Seed             int64   `json:"seed,omitempty"`
}

// GenerateRequest 排班生成请求。
// Demand 必须每天恰好一条记录（7条，21个数字）。
type GenerateRequest struct {
	Team    teamconfig.Document `json:"team"`
	Demand  []DemandInput       `json:"demand"`
	Options *SolveOptions       `json:"options,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success        bool                    `json:"success"`
	Status         string                  `json:"status"`
	Assignments    []model.ShiftAssignment `json:"assignments"`
	TotalPenalty   int64                   `json:"total_penalty"`
	FairnessStdDev float64                 `json:"fairness_std_dev"`
	FormattedText  string                  `json:"formatted_text"`
	Workload       *stats.WorkloadMetrics  `json:"workload"`
	Duration       string                  `json:"duration"`
}

// Generate 生成周排班
func (h *RosterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	employees, roleRules, err := req.Team.Materialize()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "团队配置无效"))
		return
	}
	demand, appErr := buildDemand(req.Demand)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	opts := h.solveOptions(req.Options)
	start := time.Now()
	result, err := scheduler.NewScheduler(opts).Generate(r.Context(), &scheduler.Request{
		Employees: employees,
		Demand:    demand,
		RoleRules: roleRules,
	})
	duration := time.Since(start)
	if err != nil {
		metrics.RecordRosterGeneration("error", duration)
		respondError(w, toAppError(err))
		return
	}

	metrics.RecordRosterGeneration(result.SolverStatus, duration)
	metrics.SetRosterQuality(result.Metrics.TotalPenalty, result.Metrics.FairnessStdDev)

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:        true,
		Status:         result.SolverStatus,
		Assignments:    result.Assignments,
		TotalPenalty:   result.Metrics.TotalPenalty,
		FairnessStdDev: result.Metrics.FairnessStdDev,
		FormattedText:  result.FormattedText,
		Workload:       h.analyzer.Analyze(result.Assignments, employees),
		Duration:       duration.String(),
	})
}

// ValidateRequest 排班校验请求（用于人工编辑后的方案）
type ValidateRequest struct {
	Team        teamconfig.Document     `json:"team"`
	Demand      []DemandInput           `json:"demand"`
	Assignments []model.ShiftAssignment `json:"assignments"`
}

// ValidateResponse 排班校验响应
type ValidateResponse struct {
	Valid        bool                 `json:"valid"`
	Conflicts    []validator.Conflict `json:"conflicts"`
	TotalPenalty int64                `json:"total_penalty"`
}

// Validate 校验排班方案并重算总惩罚
func (h *RosterHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	employees, roleRules, err := req.Team.Materialize()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "团队配置无效"))
		return
	}
	demand, appErr := buildDemand(req.Demand)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	v := validator.NewRosterValidator(nil)
	conflicts := v.DetectAll(req.Assignments, employees)
	valid := true
	for _, c := range conflicts {
		if c.Severity == "error" {
			valid = false
			break
		}
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:        valid,
		Conflicts:    conflicts,
		TotalPenalty: v.RecomputePenalty(req.Assignments, employees, demand, roleRules),
	})
}

// WorkloadRequest 工作量统计请求
type WorkloadRequest struct {
	Team        teamconfig.Document     `json:"team"`
	Assignments []model.ShiftAssignment `json:"assignments"`
}

// Workload 统计排班方案的工作量分布
func (h *RosterHandler) Workload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req WorkloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	employees, _, err := req.Team.Materialize()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "团队配置无效"))
		return
	}

	respondJSON(w, http.StatusOK, h.analyzer.Analyze(req.Assignments, employees))
}

// solveOptions 合并请求级求解选项
func (h *RosterHandler) solveOptions(override *SolveOptions) *engine.Options {
	opts := *h.opts
	if override != nil {
		if override.TimeLimitSeconds > 0 {
			opts.TimeLimit = time.Duration(override.TimeLimitSeconds * float64(time.Second))
		}
		if override.Seed != 0 {
			opts.Seed = override.Seed
		}
	}
	return &opts
}

// buildDemand 将每日需求行展开为一周全部班位的需求列表。
// 每天必须恰好一条记录，时段计数不能为负数。
func buildDemand(inputs []DemandInput) ([]*model.ShiftRequirement, *errors.AppError) {
	required := make(map[model.Slot]int, model.SlotsPerWeek)
	seen := make(map[model.Day]bool, len(inputs))
	for _, in := range inputs {
		day, err := model.ParseDay(in.Day)
		if err != nil {
			return nil, errors.New(errors.CodeInvalidInput, "无效的星期: "+in.Day)
		}
		if seen[day] {
			return nil, errors.New(errors.CodeInvalidInput, "需求记录重复: "+in.Day)
		}
		seen[day] = true
		if in.Morning < 0 || in.Lunch < 0 || in.Dinner < 0 {
			return nil, errors.New(errors.CodeInvalidInput, "需求人数不能为负数: "+in.Day)
		}
		required[model.Slot{Day: day, Block: model.Morning}] = in.Morning
		required[model.Slot{Day: day, Block: model.Lunch}] = in.Lunch
		required[model.Slot{Day: day, Block: model.Dinner}] = in.Dinner
	}
	if len(seen) != len(model.AllDays()) {
		return nil, errors.New(errors.CodeInvalidInput, "需求必须覆盖一周的每一天")
	}

	demand := make([]*model.ShiftRequirement, 0, model.SlotsPerWeek)
	for _, slot := range model.AllSlots() {
		req, err := model.NewShiftRequirement(slot, required[slot])
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "构建班位需求失败")
		}
		demand = append(demand, req)
	}
	return demand, nil
}
