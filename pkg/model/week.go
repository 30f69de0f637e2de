// Package model 定义周排班的核心数据模型
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Day 星期（周一为一周的起点）
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// dayNames 星期的序列化名称（跨文本边界时使用）
var dayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// String 返回星期的序列化名称
func (d Day) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Valid 检查星期是否合法
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ParseDay 解析星期名称
func ParseDay(s string) (Day, error) {
	for i, name := range dayNames {
		if name == s {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("无效的星期: %q", s)
}

// AllDays 返回一周的星期列表（按时间顺序）
func AllDays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// TimeBlock 时段（每个时段固定4小时）
type TimeBlock int

const (
	Morning TimeBlock = iota
	Lunch
	Dinner
)

// BlockHours 每个时段的固定时长（小时）
const BlockHours = 4

// blockNames 时段的序列化名称
var blockNames = [...]string{"Morning", "Lunch", "Dinner"}

// String 返回时段的序列化名称
func (b TimeBlock) String() string {
	if b < Morning || b > Dinner {
		return fmt.Sprintf("TimeBlock(%d)", int(b))
	}
	return blockNames[b]
}

// Valid 检查时段是否合法
func (b TimeBlock) Valid() bool {
	return b >= Morning && b <= Dinner
}

// ParseTimeBlock 解析时段名称
func ParseTimeBlock(s string) (TimeBlock, error) {
	for i, name := range blockNames {
		if name == s {
			return TimeBlock(i), nil
		}
	}
	return 0, fmt.Errorf("无效的时段: %q", s)
}

// AllBlocks 返回一天的时段列表（按时间顺序）
func AllBlocks() []TimeBlock {
	return []TimeBlock{Morning, Lunch, Dinner}
}

// SlotsPerWeek 每周的班位总数（7天 × 3时段）
const SlotsPerWeek = 21

// Slot 班位：一周内的 (星期, 时段) 组合。
// JSON中使用 "Mon-Morning" 的字符串形式。
type Slot struct {
	Day   Day
	Block TimeBlock
}

// String 返回班位的序列化形式，如 "Mon-Morning"
func (s Slot) String() string {
	return s.Day.String() + "-" + s.Block.String()
}

// Valid 检查班位是否合法
func (s Slot) Valid() bool {
	return s.Day.Valid() && s.Block.Valid()
}

// Index 返回班位在一周内的时间顺序索引 (0..20)
func (s Slot) Index() int {
	return int(s.Day)*len(blockNames) + int(s.Block)
}

// Before 检查班位是否在另一个班位之前
func (s Slot) Before(other Slot) bool {
	return s.Index() < other.Index()
}

// MarshalJSON 实现 json.Marshaler
func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON 实现 json.Unmarshaler
func (s *Slot) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := ParseSlot(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSlot 解析 "Mon-Morning" 形式的班位
func ParseSlot(str string) (Slot, error) {
	parts := strings.SplitN(str, "-", 2)
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("无效的班位格式: %q", str)
	}
	day, err := ParseDay(parts[0])
	if err != nil {
		return Slot{}, err
	}
	block, err := ParseTimeBlock(parts[1])
	if err != nil {
		return Slot{}, err
	}
	return Slot{Day: day, Block: block}, nil
}

// AllSlots 返回一周的全部班位（按时间顺序）
func AllSlots() []Slot {
	slots := make([]Slot, 0, SlotsPerWeek)
	for _, d := range AllDays() {
		for _, b := range AllBlocks() {
			slots = append(slots, Slot{Day: d, Block: b})
		}
	}
	return slots
}
