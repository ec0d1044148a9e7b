package trace

import (
	"math"
	"sort"

	"git.fiblab.net/sim/mobility/geo"
	"github.com/samber/lo"
)

// 轨迹采样点
type Sample struct {
	Time     float64      `json:"t" bson:"t"` // 单位：秒
	Position geo.Position `json:"position" bson:",inline"`
}

func (s Sample) Valid() bool {
	return !math.IsNaN(s.Time) && !math.IsInf(s.Time, 0) && s.Position.Valid()
}

// Trace 单个智能体的轨迹，按时间排序，加载后只读
type Trace struct {
	id      int
	samples []Sample
}

// 丢弃时间非有限值或坐标无效的采样点，复制并按时间稳定排序
func NewTrace(id int, samples []Sample) *Trace {
	s := lo.Filter(samples, func(sample Sample, _ int) bool {
		return sample.Valid()
	})
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time < s[j].Time
	})
	return &Trace{id: id, samples: s}
}

func (t *Trace) ID() int {
	return t.id
}

func (t *Trace) Len() int {
	return len(t.samples)
}

func (t *Trace) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

// 首个采样时间
func (t *Trace) Start() float64 {
	return t.samples[0].Time
}

// 最后采样时间
func (t *Trace) End() float64 {
	return t.samples[len(t.samples)-1].Time
}

// 丢弃早于minTime的采样点，返回新轨迹
func (t *Trace) Filter(minTime float64) *Trace {
	i := sort.Search(len(t.samples), func(i int) bool {
		return t.samples[i].Time >= minTime
	})
	return &Trace{id: t.id, samples: t.samples[i:]}
}

func (t *Trace) withID(id int) *Trace {
	return &Trace{id: id, samples: t.samples}
}

// 第一个时间大于time的采样点下标
func (t *Trace) upper(time float64) int {
	return sort.Search(len(t.samples), func(i int) bool {
		return t.samples[i].Time > time
	})
}

// 第一个时间不小于time的采样点下标
func (t *Trace) lower(time float64) int {
	return sort.Search(len(t.samples), func(i int) bool {
		return t.samples[i].Time >= time
	})
}

// 不晚于time的最后一个采样位置，早于轨迹开始时返回首个采样
func (t *Trace) PositionAt(time float64) geo.Position {
	i := t.upper(time) - 1
	return t.samples[max(i, 0)].Position
}

// 严格晚于time的第一个采样位置，晚于轨迹结束时返回最后一个采样
func (t *Trace) NextPositionAfter(time float64) geo.Position {
	i := t.upper(time)
	return t.samples[min(i, len(t.samples)-1)].Position
}

// 严格早于time的最后一个采样位置，早于轨迹开始时返回首个采样
func (t *Trace) PreviousPositionBefore(time float64) geo.Position {
	i := t.lower(time) - 1
	return t.samples[max(i, 0)].Position
}

// 前后采样点之间线性插值，轨迹范围外返回边界采样
func (t *Trace) InterpolatedPositionAt(time float64) geo.Position {
	n := len(t.samples)
	if math.IsNaN(time) || time <= t.samples[0].Time {
		return t.samples[0].Position
	}
	if time >= t.samples[n-1].Time {
		return t.samples[n-1].Position
	}
	i := t.upper(time)
	prev, next := t.samples[i-1], t.samples[i]
	if prev.Time == time {
		return prev.Position
	}
	ratio := (time - prev.Time) / (next.Time - prev.Time)
	return prev.Position.Lerp(next.Position, ratio)
}
