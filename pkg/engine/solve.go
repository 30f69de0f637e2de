// Package engine 提供抽象的线性优化求解引擎
package engine

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/shifthero/shifthero/pkg/logger"
)

// Options 求解配置
type Options struct {
	TimeLimit        time.Duration `json:"time_limit"`        // 墙钟时间预算
	MaxIterations    int           `json:"max_iterations"`    // 退火迭代上限
	InitialTemp      float64       `json:"initial_temp"`      // 模拟退火初始温度
	CoolingRate      float64       `json:"cooling_rate"`      // 冷却速率
	TabuSize         int           `json:"tabu_size"`         // 禁忌表大小
	PlateauThreshold int           `json:"plateau_threshold"` // 平台期阈值（无改进迭代次数）
	Seed             int64         `json:"seed"`              // 随机种子（0 = 按时间播种）
}

// DefaultOptions 默认求解配置
func DefaultOptions() *Options {
	return &Options{
		TimeLimit:        5 * time.Second,
		MaxIterations:    20000,
		InitialTemp:      500.0,
		CoolingRate:      0.997,
		TabuSize:         64,
		PlateauThreshold: 2000,
	}
}

// Stats 求解统计
type Stats struct {
	Iterations int           `json:"iterations"` // 退火迭代次数
	Nodes      int64         `json:"nodes"`      // 分支定界节点数
	Elapsed    time.Duration `json:"elapsed"`    // 实际耗时
}

// Result 求解结果
type Result struct {
	Status   Status    `json:"status"`
	Solution *Solution `json:"-"` // OPTIMAL/FEASIBLE 时非空
	Stats    Stats     `json:"stats"`
}

// Solver 求解器。无残留状态，可在多个独立请求间复用。
type Solver struct {
	opts *Options
}

// NewSolver 创建求解器
func NewSolver(opts *Options) *Solver {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Solver{opts: opts}
}

// Solve 求解模型。
// 三个阶段：贪心构造初始解 → 模拟退火局部搜索 → 分支定界证明最优。
// 超出时间预算时返回已找到的最优可行解（FEASIBLE）。
func (s *Solver) Solve(ctx context.Context, m *Model) (*Result, error) {
	start := time.Now()
	result := &Result{Status: StatusUnknown}

	if err := m.validate(); err != nil {
		return nil, err
	}

	st, infeasible := newSolveState(m)
	if infeasible {
		result.Status = StatusInfeasible
		result.Stats.Elapsed = time.Since(start)
		return result, nil
	}

	deadline := start.Add(s.opts.TimeLimit)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	log := logger.Get().With().Str("component", "engine").Logger()
	log.Debug().
		Int("vars", m.NumVars()).
		Int("decision_vars", len(st.decisions)).
		Int("constraints", m.NumConstraints()).
		Msg("开始求解")

	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// 阶段1：贪心构造（决策变量全取下界，再做首改进翻转）
	var best []int64
	bestObj := int64(math.MaxInt64)
	hasBest := false

	if !time.Now().After(deadline) {
		assign := st.initialAssignment()
		if obj, ok := st.evaluate(assign); ok {
			best = cloneAssignment(assign)
			bestObj = obj
			hasBest = true
		}
		// 全下界起点不可行时随机重启寻找可行解
		for tries := 0; !hasBest && tries < 256 && !time.Now().After(deadline); tries++ {
			for i, vi := range st.decisions {
				def := st.model.vars[vi]
				assign[i] = def.lo + rng.Int63n(def.hi-def.lo+1)
			}
			if obj, ok := st.evaluate(assign); ok {
				best = cloneAssignment(assign)
				bestObj = obj
				hasBest = true
			}
		}
		if hasBest {
			bestObj = st.greedyImprove(best, bestObj, deadline)
		}
	}

	// 阶段2：模拟退火局部搜索（时间预算的前一半）
	if hasBest && len(st.decisions) > 0 {
		saDeadline := start.Add(s.opts.TimeLimit / 2)
		if saDeadline.After(deadline) {
			saDeadline = deadline
		}
		iters, annealed, annealedObj := st.anneal(ctx, s.opts, rng, best, bestObj, saDeadline)
		result.Stats.Iterations = iters
		if annealedObj < bestObj {
			best = annealed
			bestObj = annealedObj
		}
	}

	// 阶段3：分支定界，在剩余预算内证明最优（或找到首个可行解）
	proved := hasBest && len(st.decisions) == 0
	if len(st.decisions) > 0 && !time.Now().After(deadline) {
		seedAssign := best
		if !hasBest {
			seedAssign = st.initialAssignment()
		}
		var nodes int64
		best, bestObj, nodes, proved = st.branchAndBound(ctx, seedAssign, bestObj, deadline)
		result.Stats.Nodes = nodes
		hasBest = bestObj < math.MaxInt64
	} else if len(st.decisions) == 0 && !hasBest {
		// 无决策变量且传播不可行：模型构造错误
		result.Status = StatusInfeasible
		result.Stats.Elapsed = time.Since(start)
		return result, nil
	}

	result.Stats.Elapsed = time.Since(start)

	if !hasBest {
		if proved {
			// 搜索完备且无任何可行解：模型构造错误
			result.Status = StatusInfeasible
			return result, nil
		}
		// 时间预算耗尽且未找到任何可行解
		result.Status = StatusUnknown
		log.Warn().Dur("elapsed", result.Stats.Elapsed).Msg("求解超时，未找到可行解")
		return result, nil
	}

	// 回填完整赋值（含辅助变量）
	full := st.fullValues(best)
	result.Solution = &Solution{values: full, objective: bestObj}
	if proved {
		result.Status = StatusOptimal
	} else {
		result.Status = StatusFeasible
	}

	log.Debug().
		Str("status", result.Status.String()).
		Int64("objective", bestObj).
		Int64("nodes", result.Stats.Nodes).
		Dur("elapsed", result.Stats.Elapsed).
		Msg("求解完成")

	return result, nil
}

// solveState 单次求解的预处理状态
type solveState struct {
	model     *Model
	decisions []int   // 未固定的决策变量索引
	fixed     []int64 // 所有变量的初始值（决策变量取下界）
	auxOrder  []int   // 辅助变量索引（按创建顺序）
	consOf    [][]int // 辅助变量 → 包含它的约束索引
	pureCons  []int   // 不含辅助变量的约束索引
	objCoef   []int64 // 变量 → 目标系数
	posOf     []int   // 变量 → 在 decisions 中的位置（-1 表示不在）
}

// newSolveState 预处理模型；返回 infeasible=true 表示模型静态不可行
func newSolveState(m *Model) (*solveState, bool) {
	st := &solveState{
		model:   m,
		fixed:   make([]int64, len(m.vars)),
		consOf:  make([][]int, len(m.vars)),
		objCoef: make([]int64, len(m.vars)),
	}

	for i, v := range m.vars {
		if v.lo > v.hi {
			return nil, true // 固定冲突导致域为空
		}
		st.fixed[i] = v.lo
		if v.decision {
			if v.lo < v.hi {
				st.decisions = append(st.decisions, i)
			}
		} else {
			st.auxOrder = append(st.auxOrder, i)
		}
	}

	st.posOf = make([]int, len(m.vars))
	for i := range st.posOf {
		st.posOf[i] = -1
	}
	for i, vi := range st.decisions {
		st.posOf[vi] = i
	}

	for _, t := range m.objective {
		st.objCoef[t.Var] += t.Coef
	}

	for ci, c := range m.constraints {
		aux := -1
		for _, t := range c.terms {
			if !m.vars[t.Var].decision {
				aux = int(t.Var)
			}
		}
		if aux >= 0 {
			st.consOf[aux] = append(st.consOf[aux], ci)
		} else {
			st.pureCons = append(st.pureCons, ci)
		}

		// 区间可满足性检查：捕获固定变量之间的直接冲突
		minSum, maxSum := int64(0), int64(0)
		for _, t := range c.terms {
			v := m.vars[t.Var]
			a, b := t.Coef*v.lo, t.Coef*v.hi
			if a > b {
				a, b = b, a
			}
			minSum += a
			maxSum += b
		}
		if (c.hasLo && maxSum < c.lo) || (c.hasHi && minSum > c.hi) {
			return nil, true
		}
	}

	return st, false
}

// initialAssignment 返回决策变量的初始赋值（全取下界）
func (st *solveState) initialAssignment() []int64 {
	assign := make([]int64, len(st.decisions))
	for i, vi := range st.decisions {
		assign[i] = st.model.vars[vi].lo
	}
	return assign
}

// evaluate 在给定决策变量赋值下，传播推导所有辅助变量的最小可行取值，
// 返回目标函数值。ok=false 表示该赋值不可行。
func (st *solveState) evaluate(assign []int64) (int64, bool) {
	values := st.fullValues(assign)

	for _, ai := range st.auxOrder {
		lower := st.model.vars[ai].lo
		upper := st.model.vars[ai].hi

		for _, ci := range st.consOf[ai] {
			c := &st.model.constraints[ci]
			var coef, sum int64
			for _, t := range c.terms {
				if int(t.Var) == ai {
					coef += t.Coef
					continue
				}
				sum += t.Coef * values[t.Var]
			}
			if !tighten(&lower, &upper, coef, sum, c) {
				return 0, false
			}
		}

		if lower > upper {
			return 0, false
		}
		// 辅助变量的目标系数非负，取最小可行值即为最优
		values[ai] = lower
	}

	// 仅含决策变量的约束直接检查
	for _, ci := range st.pureCons {
		c := &st.model.constraints[ci]
		var sum int64
		for _, t := range c.terms {
			sum += t.Coef * values[t.Var]
		}
		if (c.hasLo && sum < c.lo) || (c.hasHi && sum > c.hi) {
			return 0, false
		}
	}

	var obj int64
	for _, t := range st.model.objective {
		obj += t.Coef * values[t.Var]
	}
	return obj, true
}

// fullValues 将决策变量赋值展开为完整的变量取值数组
func (st *solveState) fullValues(assign []int64) []int64 {
	values := make([]int64, len(st.fixed))
	copy(values, st.fixed)
	for i, vi := range st.decisions {
		values[vi] = assign[i]
	}

	// 回填辅助变量取值（与 evaluate 相同的传播）
	for _, ai := range st.auxOrder {
		lower := st.model.vars[ai].lo
		upper := st.model.vars[ai].hi
		for _, ci := range st.consOf[ai] {
			c := &st.model.constraints[ci]
			var coef, sum int64
			for _, t := range c.terms {
				if int(t.Var) == ai {
					coef += t.Coef
					continue
				}
				sum += t.Coef * values[t.Var]
			}
			tighten(&lower, &upper, coef, sum, c)
		}
		if lower <= upper {
			values[ai] = lower
		}
	}
	return values
}

// tighten 按约束 lo ≤ sum + coef·y ≤ hi 收紧 y 的取值范围。
// 返回 false 表示约束在当前赋值下无法满足。
func tighten(lower, upper *int64, coef, sum int64, c *linearConstraint) bool {
	if coef == 0 {
		if (c.hasLo && sum < c.lo) || (c.hasHi && sum > c.hi) {
			return false
		}
		return true
	}
	if c.hasLo {
		// coef·y ≥ lo - sum
		rhs := c.lo - sum
		if coef > 0 {
			if lb := ceilDiv(rhs, coef); lb > *lower {
				*lower = lb
			}
		} else {
			if ub := floorDiv(rhs, coef); ub < *upper {
				*upper = ub
			}
		}
	}
	if c.hasHi {
		// coef·y ≤ hi - sum
		rhs := c.hi - sum
		if coef > 0 {
			if ub := floorDiv(rhs, coef); ub < *upper {
				*upper = ub
			}
		} else {
			if lb := ceilDiv(rhs, coef); lb > *lower {
				*lower = lb
			}
		}
	}
	return *lower <= *upper
}

// floorDiv 向负无穷取整的整数除法
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ceilDiv 向正无穷取整的整数除法
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

// greedyImprove 首改进贪心：反复翻转能降低目标的决策变量，直到无改进
func (st *solveState) greedyImprove(assign []int64, obj int64, deadline time.Time) int64 {
	improved := true
	for improved {
		improved = false
		for i, vi := range st.decisions {
			if time.Now().After(deadline) {
				return obj
			}
			def := st.model.vars[vi]
			orig := assign[i]
			flipped := def.lo
			if orig == def.lo {
				flipped = def.hi
			}
			assign[i] = flipped
			if newObj, ok := st.evaluate(assign); ok && newObj < obj {
				obj = newObj
				improved = true
			} else {
				assign[i] = orig
			}
		}
	}
	return obj
}

// anneal 模拟退火局部搜索（带禁忌表与平台期停止）
func (st *solveState) anneal(ctx context.Context, opts *Options, rng *rand.Rand, start []int64, startObj int64, deadline time.Time) (int, []int64, int64) {
	current := cloneAssignment(start)
	currentObj := startObj
	best := cloneAssignment(start)
	bestObj := startObj

	temperature := opts.InitialTemp
	tabu := newTabuList(opts.TabuSize)
	noImprovement := 0
	iterations := 0

	for i := 0; i < opts.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return iterations, best, bestObj
		default:
		}
		if i%64 == 0 && time.Now().After(deadline) {
			break
		}
		iterations++

		neighbor := cloneAssignment(current)
		flips := 1 + rng.Intn(2)
		for f := 0; f < flips; f++ {
			j := rng.Intn(len(neighbor))
			def := st.model.vars[st.decisions[j]]
			if neighbor[j] == def.lo {
				neighbor[j] = def.hi
			} else {
				neighbor[j] = def.lo
			}
		}

		obj, ok := st.evaluate(neighbor)
		if !ok {
			continue
		}

		key := hashAssignment(neighbor)
		accept := false
		if obj < currentObj {
			accept = true
		} else if !tabu.Contains(key) {
			delta := float64(obj - currentObj)
			if temperature > 0 && rng.Float64() < math.Exp(-delta/temperature) {
				accept = true
			}
		}

		if accept {
			current = neighbor
			currentObj = obj
			tabu.Add(key)
			if obj < bestObj {
				best = cloneAssignment(neighbor)
				bestObj = obj
				noImprovement = 0
			} else {
				noImprovement++
			}
		} else {
			noImprovement++
		}

		if opts.PlateauThreshold > 0 && noImprovement >= opts.PlateauThreshold {
			break
		}
		temperature *= opts.CoolingRate
	}

	return iterations, best, bestObj
}

// branchAndBound 对决策变量做深度优先分支定界。
// 搜索完成时 proved=true（当前解已证明最优）；超时则返回现有最优解。
func (st *solveState) branchAndBound(ctx context.Context, best []int64, bestObj int64, deadline time.Time) ([]int64, int64, int64, bool) {
	n := len(st.decisions)
	if n == 0 {
		return best, bestObj, 0, true
	}

	partial := make([]int64, n)
	assigned := make([]bool, n)
	var nodes int64
	aborted := false

	var dfs func(depth int)
	dfs = func(depth int) {
		if aborted {
			return
		}
		nodes++
		if nodes%256 == 0 {
			select {
			case <-ctx.Done():
				aborted = true
				return
			default:
			}
			if time.Now().After(deadline) {
				aborted = true
				return
			}
		}

		if depth == n {
			if obj, ok := st.evaluate(partial); ok && obj < bestObj {
				best = cloneAssignment(partial)
				bestObj = obj
			}
			return
		}

		if st.lowerBound(partial, assigned) >= bestObj {
			return
		}

		def := st.model.vars[st.decisions[depth]]
		// 优先尝试现有最优解中的取值，加速剪枝
		first := best[depth]
		second := def.lo
		if first == def.lo {
			second = def.hi
		}

		assigned[depth] = true
		for _, val := range [2]int64{first, second} {
			partial[depth] = val
			dfs(depth + 1)
			if aborted {
				break
			}
		}
		assigned[depth] = false
	}

	dfs(0)
	return best, bestObj, nodes, !aborted
}

// lowerBound 计算部分赋值下目标函数的可达下界（可采纳估计）：
// 未赋值的决策变量按对目标最有利取值，辅助变量按最弱被迫取值。
func (st *solveState) lowerBound(partial []int64, assigned []bool) int64 {
	var bound int64

	// 决策变量的目标贡献
	for vi, coef := range st.objCoef {
		if coef == 0 {
			continue
		}
		def := st.model.vars[vi]
		if !def.decision {
			continue
		}
		pos := st.posOf[vi]
		switch {
		case pos < 0:
			bound += coef * def.lo // 已固定的决策变量
		case assigned[pos]:
			bound += coef * partial[pos]
		default:
			a, b := coef*def.lo, coef*def.hi
			if a < b {
				bound += a
			} else {
				bound += b
			}
		}
	}

	// 辅助变量的被迫下界（对未赋值决策变量取乐观值）
	for _, ai := range st.auxOrder {
		coefObj := st.objCoef[ai]
		if coefObj == 0 {
			continue
		}
		lower := st.model.vars[ai].lo
		for _, ci := range st.consOf[ai] {
			c := &st.model.constraints[ci]
			if !c.hasLo {
				continue
			}
			var coef, sumMax int64
			for _, t := range c.terms {
				if int(t.Var) == ai {
					coef += t.Coef
					continue
				}
				def := st.model.vars[t.Var]
				if pos := st.posOf[t.Var]; pos >= 0 && assigned[pos] {
					sumMax += t.Coef * partial[pos]
				} else {
					a, b := t.Coef*def.lo, t.Coef*def.hi
					if a > b {
						b = a
					}
					sumMax += b
				}
			}
			if coef > 0 {
				// coef·y ≥ lo - sumMax 为所有补全下最弱的被迫下界
				if lb := ceilDiv(c.lo-sumMax, coef); lb > lower {
					lower = lb
				}
			}
		}
		bound += coefObj * lower
	}

	return bound
}

// cloneAssignment 深拷贝赋值
func cloneAssignment(a []int64) []int64 {
	out := make([]int64, len(a))
	copy(out, a)
	return out
}

// hashAssignment 计算赋值的FNV-1a哈希（禁忌表键）
func hashAssignment(a []int64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range a {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

// tabuList 禁忌表（FIFO淘汰）
type tabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
}

// newTabuList 创建禁忌表
func newTabuList(size int) *tabuList {
	if size <= 0 {
		size = 64
	}
	return &tabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

// Add 添加到禁忌表
func (t *tabuList) Add(key uint64) {
	if _, exists := t.items[key]; exists {
		return
	}
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}
	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

// Contains 检查是否在禁忌表中
func (t *tabuList) Contains(key uint64) bool {
	_, exists := t.items[key]
	return exists
}
