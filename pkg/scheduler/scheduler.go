package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shifthero/shifthero/pkg/engine"
	"github.com/shifthero/shifthero/pkg/errors"
	"github.com/shifthero/shifthero/pkg/export"
	"github.com/shifthero/shifthero/pkg/logger"
	"github.com/shifthero/shifthero/pkg/model"
)

// Request 一次排班请求。字段在求解期间视为不可变快照。
type Request struct {
	Employees []*model.Employee         `json:"employees"`
	Demand    []*model.ShiftRequirement `json:"demand"`
	RoleRules []*model.RoleRequirement  `json:"role_rules"`
}

// Validate 校验排班请求
func (r *Request) Validate() error {
	ve := &errors.ValidationErrors{}
	if err := model.ValidateDemand(r.Demand); err != nil {
		ve.Add("demand", err.Error())
	}
	seen := make(map[string]bool, len(r.Employees))
	for _, emp := range r.Employees {
		if emp == nil {
			ve.Add("employees", "员工记录不能为空")
			continue
		}
		if emp.Name == "" {
			ve.Add("employees", "员工姓名不能为空")
		} else if seen[emp.Name] {
			ve.Add("employees", "员工姓名重复: "+emp.Name)
		}
		seen[emp.Name] = true
		if emp.MaxHours <= 0 {
			ve.Add("employees", "员工最大工时必须为正数: "+emp.Name)
		}
	}
	for _, rule := range r.RoleRules {
		if rule == nil {
			ve.Add("role_rules", "角色规则不能为空")
			continue
		}
		if rule.Role == "" {
			ve.Add("role_rules", "角色名称不能为空")
		}
		if rule.MinCount <= 0 {
			ve.Add("role_rules", "角色最低人数必须为正数: "+rule.Role)
		}
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// Scheduler 排班调度器：编译请求、调用求解引擎并提取结果
type Scheduler struct {
	opts      *engine.Options
	formatter *export.WhatsAppFormatter
	log       *logger.SchedulerLogger
}

// NewScheduler 创建排班调度器
func NewScheduler(opts *engine.Options) *Scheduler {
	if opts == nil {
		opts = engine.DefaultOptions()
	}
	return &Scheduler{
		opts:      opts,
		formatter: export.NewWhatsAppFormatter(),
		log:       logger.NewSchedulerLogger(),
	}
}

// Generate 生成周排班。
// 可用性是硬约束，覆盖/角色/连班/加班为带权软约束，
// 返回的总惩罚即求解器的目标函数值。
func (s *Scheduler) Generate(ctx context.Context, req *Request) (*model.ScheduleResult, error) {
	if req == nil {
		return nil, errors.New(errors.CodeInvalidInput, "排班请求不能为空")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	start := time.Now()
	s.log.StartSchedule(requestID, len(req.Employees), len(req.Demand))

	rm, err := buildModel(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "构建优化模型失败")
	}
	for _, role := range rm.inertRoles {
		s.log.RoleRuleSkipped(requestID, role)
	}

	solveResult, err := engine.NewSolver(s.opts).Solve(ctx, rm.m)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "求解失败")
	}

	switch solveResult.Status {
	case engine.StatusInfeasible:
		// 可用性约束只固定单个变量，不会互相冲突；
		// 不可行意味着模型构建缺陷
		return nil, errors.New(errors.CodeInternal, "优化模型不可行")
	case engine.StatusUnknown:
		return nil, errors.New(errors.CodeTimeout, "求解超时，未找到可行排班").
			WithField("time_limit", s.opts.TimeLimit.String())
	}

	assignments := extractAssignments(rm, solveResult.Solution)
	result := &model.ScheduleResult{
		Assignments:  assignments,
		Metrics:      extractMetrics(assignments, req.Employees, solveResult.Solution),
		SolverStatus: solveResult.Status.String(),
	}
	result.FormattedText = s.formatter.Format(assignments, req.Employees)

	s.log.ScheduleComplete(requestID, time.Since(start), result.Metrics.TotalPenalty, result.SolverStatus)
	return result, nil
}
