// Package stats 提供排班工时统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/shifthero/shifthero/pkg/model"
)

// EmployeeLoad 单个员工的工时统计
type EmployeeLoad struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	TotalHours    int       `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	DinnerShifts  int       `json:"dinner_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与平均工时的偏差百分比
}

// WorkloadMetrics 全队工时公平性指标
type WorkloadMetrics struct {
	// 各员工总工时的总体标准差（含零工时员工，越小越均衡）
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
	// 工时基尼系数 (0=完全公平, 1=完全不公平)
	Gini       float64 `json:"gini"`
	AvgHours   float64 `json:"avg_hours"`
	MaxHours   float64 `json:"max_hours"`
	MinHours   float64 `json:"min_hours"`
	HoursRange float64 `json:"hours_range"`

	// 各时段的排班人次占比（百分比）
	BlockDistribution map[string]float64 `json:"block_distribution"`

	// 员工级别统计（按工时降序）
	Loads []EmployeeLoad `json:"loads"`
}

// WorkloadAnalyzer 工时公平性分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工时公平性分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Analyze 分析排班结果的工时公平性。
// 标准差覆盖全部员工，未被排班的员工按零工时计入。
func (w *WorkloadAnalyzer) Analyze(assignments []model.ShiftAssignment, employees []*model.Employee) *WorkloadMetrics {
	if len(employees) == 0 {
		return &WorkloadMetrics{BlockDistribution: make(map[string]float64)}
	}

	loads := w.calculateLoads(assignments, employees)

	hours := make([]float64, len(loads))
	for i, l := range loads {
		hours[i] = float64(l.TotalHours)
	}

	avg := mean(hours)
	variance := populationVariance(hours, avg)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := valueRange(hours)

	for i := range loads {
		if avg > 0 {
			loads[i].Deviation = (float64(loads[i].TotalHours) - avg) / avg * 100
		}
	}

	return &WorkloadMetrics{
		StdDev:            stdDev,
		Variance:          variance,
		Gini:              gini(hours),
		AvgHours:          avg,
		MaxHours:          maxHours,
		MinHours:          minHours,
		HoursRange:        maxHours - minHours,
		BlockDistribution: w.calculateBlockDistribution(assignments),
		Loads:             loads,
	}
}

// calculateLoads 汇总每个员工的排班数据
func (w *WorkloadAnalyzer) calculateLoads(assignments []model.ShiftAssignment, employees []*model.Employee) []EmployeeLoad {
	loadMap := make(map[uuid.UUID]*EmployeeLoad, len(employees))
	for _, e := range employees {
		loadMap[e.ID] = &EmployeeLoad{EmployeeID: e.ID, EmployeeName: e.Name}
	}

	for _, a := range assignments {
		for _, id := range a.EmployeeIDs {
			load, ok := loadMap[id]
			if !ok {
				continue
			}
			load.TotalHours += model.BlockHours
			load.ShiftCount++
			if a.Slot.Block == model.Dinner {
				load.DinnerShifts++
			}
			if a.Slot.Day == model.Saturday || a.Slot.Day == model.Sunday {
				load.WeekendShifts++
			}
		}
	}

	loads := make([]EmployeeLoad, 0, len(loadMap))
	for _, l := range loadMap {
		loads = append(loads, *l)
	}
	sort.Slice(loads, func(i, j int) bool {
		if loads[i].TotalHours != loads[j].TotalHours {
			return loads[i].TotalHours > loads[j].TotalHours
		}
		return loads[i].EmployeeName < loads[j].EmployeeName
	})
	return loads
}

// calculateBlockDistribution 计算各时段的排班人次占比
func (w *WorkloadAnalyzer) calculateBlockDistribution(assignments []model.ShiftAssignment) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, a := range assignments {
		n := len(a.EmployeeIDs)
		counts[a.Slot.Block.String()] += n
		total += n
	}

	distribution := make(map[string]float64)
	if total > 0 {
		for block, count := range counts {
			distribution[block] = float64(count) / float64(total) * 100
		}
	}
	return distribution
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationVariance 计算总体方差
func populationVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// valueRange 计算极值
func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}
