package trace

import (
	"errors"
	"fmt"
	"sort"

	"git.fiblab.net/sim/mobility/geo"
	"github.com/samber/lo"
)

var (
	// 错误：使用轨迹自带ID时出现重复ID
	ErrDuplicateTraceID = errors.New("duplicate trace id")
	// 错误：智能体没有对应的轨迹
	ErrNoTraceForAgent = errors.New("no trace for agent")
)

// 数据源中的一条原始轨迹
type Record struct {
	ID      int      `bson:"id"`
	Samples []Sample `bson:"points"`
}

// Player 智能体ID到轨迹的映射，加载后只读
type Player struct {
	traces map[int]*Trace
}

// 由原始轨迹创建Player
// 丢弃早于minTime的采样点以及过滤后为空的轨迹
// useIDs为true时使用轨迹自带ID，重复时返回ErrDuplicateTraceID；否则按顺序从0开始分配
func NewPlayer(records []Record, minTime float64, useIDs bool) (*Player, error) {
	p := &Player{traces: make(map[int]*Trace, len(records))}
	next := 0
	for _, r := range records {
		t := NewTrace(r.ID, r.Samples).Filter(minTime)
		if t.Len() == 0 {
			continue
		}
		if !useIDs {
			p.traces[next] = t.withID(next)
			next++
			continue
		}
		if _, ok := p.traces[r.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTraceID, r.ID)
		}
		p.traces[r.ID] = t
	}
	if !useIDs {
		log.Infof("Traces available for %d agents", next)
	}
	return p, nil
}

func (p *Player) Len() int {
	return len(p.traces)
}

func (p *Player) HasTrace(id int) bool {
	_, ok := p.traces[id]
	return ok
}

func (p *Player) Trace(id int) (*Trace, bool) {
	t, ok := p.traces[id]
	return t, ok
}

// 有轨迹的智能体ID，升序
func (p *Player) IDs() []int {
	ids := lo.Keys(p.traces)
	sort.Ints(ids)
	return ids
}

func (p *Player) get(id int) (*Trace, error) {
	t, ok := p.traces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoTraceForAgent, id)
	}
	return t, nil
}

func (p *Player) PositionAt(id int, time float64) (geo.Position, error) {
	t, err := p.get(id)
	if err != nil {
		return geo.Position{}, err
	}
	return t.PositionAt(time), nil
}

func (p *Player) NextPositionAfter(id int, time float64) (geo.Position, error) {
	t, err := p.get(id)
	if err != nil {
		return geo.Position{}, err
	}
	return t.NextPositionAfter(time), nil
}

func (p *Player) PreviousPositionBefore(id int, time float64) (geo.Position, error) {
	t, err := p.get(id)
	if err != nil {
		return geo.Position{}, err
	}
	return t.PreviousPositionBefore(time), nil
}

func (p *Player) InterpolatedPositionAt(id int, time float64) (geo.Position, error) {
	t, err := p.get(id)
	if err != nil {
		return geo.Position{}, err
	}
	return t.InterpolatedPositionAt(time), nil
}
