package mobility

import (
	"errors"
	"fmt"

	"git.fiblab.net/sim/mobility/geo"
	"git.fiblab.net/sim/mobility/router"
	"git.fiblab.net/sim/mobility/trace"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	// 错误：智能体未加入
	ErrUnknownAgent = errors.New("unknown agent")
	// 错误：智能体已加入
	ErrAgentExists = errors.New("agent already admitted")
	// 错误：智能体被拒绝加入
	ErrAgentRejected = errors.New("agent rejected")
	// 错误：轨迹驱动的智能体不能直接设置位置
	ErrTracedAgent = errors.New("agent is driven by trace")
)

// 智能体的放置方式，加入时确定，之后不再改变
type State int

const (
	// 由轨迹驱动
	STATE_TRACED State = iota
	// 静态放置
	STATE_STATIC
)

func (s State) String() string {
	switch s {
	case STATE_TRACED:
		return "traced"
	case STATE_STATIC:
		return "static"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// 道路吸附
type Snapper interface {
	SnapToNearestRoad(v router.Vehicle, p geo.Position) (geo.Position, bool)
}

// 路径查询（带缓存）
type RouteSource interface {
	GetRoute(v router.Vehicle, from, to geo.Position) (*router.Route, error)
}

type Options struct {
	// 静态智能体放置到最近的道路上，吸附失败时使用声明位置
	OnStreets bool
	// 无轨迹的智能体必须能吸附到道路上，否则拒绝加入
	OnlyOnStreets bool
	// 吸附使用的出行方式路网
	SnapVehicle router.Vehicle
}

type agent struct {
	state    State
	position geo.Position // 静态智能体的当前位置
}

// Environment 智能体位置与路径查询的入口，可并发使用
type Environment struct {
	snapper Snapper
	routes  RouteSource
	traces  *trace.Player // 可为nil
	options Options

	agents *xsync.MapOf[int, agent]
}

func New(snapper Snapper, routes RouteSource, traces *trace.Player, options Options) *Environment {
	return &Environment{
		snapper: snapper,
		routes:  routes,
		traces:  traces,
		options: options,
		agents:  xsync.NewMapOf[int, agent](),
	}
}

func (e *Environment) hasTrace(id int) bool {
	return e.traces != nil && e.traces.HasTrace(id)
}

// 加入智能体，返回初始位置
// 没有轨迹、要求位于道路上且吸附失败时拒绝加入，错误同时包含ErrAgentRejected与router.ErrSnapFailure
func (e *Environment) Admit(id int, declared geo.Position) (geo.Position, error) {
	a := agent{state: STATE_STATIC, position: declared}
	if e.hasTrace(id) {
		a.state = STATE_TRACED
		a.position, _ = e.traces.PositionAt(id, 0)
	} else if e.options.OnStreets || e.options.OnlyOnStreets {
		snapped, ok := e.snapper.SnapToNearestRoad(e.options.SnapVehicle, declared)
		if !ok && e.options.OnlyOnStreets {
			admissionTotal.WithLabelValues("rejected").Inc()
			log.Debugf("reject agent %d at %v: no %v road nearby", id, declared, e.options.SnapVehicle)
			return geo.Position{}, fmt.Errorf("%w: agent %d at %v: %w", ErrAgentRejected, id, declared, router.ErrSnapFailure)
		}
		if ok && e.options.OnStreets {
			a.position = snapped
		}
	}
	if _, loaded := e.agents.LoadOrStore(id, a); loaded {
		return geo.Position{}, fmt.Errorf("%w: %d", ErrAgentExists, id)
	}
	admissionTotal.WithLabelValues(a.state.String()).Inc()
	agentsGauge.Inc()
	return a.position, nil
}

func (e *Environment) Remove(id int) bool {
	_, ok := e.agents.LoadAndDelete(id)
	if ok {
		agentsGauge.Dec()
	}
	return ok
}

func (e *Environment) Len() int {
	return e.agents.Size()
}

func (e *Environment) State(id int) (State, bool) {
	a, ok := e.agents.Load(id)
	return a.state, ok
}

// 智能体对应的轨迹
func (e *Environment) Trace(id int) (*trace.Trace, bool) {
	if e.traces == nil {
		return nil, false
	}
	return e.traces.Trace(id)
}

// 移动静态智能体
func (e *Environment) SetPosition(id int, p geo.Position) error {
	var err error
	e.agents.Compute(id, func(old agent, loaded bool) (agent, bool) {
		switch {
		case !loaded:
			err = fmt.Errorf("%w: %d", ErrUnknownAgent, id)
			return old, true
		case old.state == STATE_TRACED:
			err = fmt.Errorf("%w: %d", ErrTracedAgent, id)
			return old, false
		}
		old.position = p
		return old, false
	})
	return err
}

func (e *Environment) query(id int, fromTrace func(*trace.Player) (geo.Position, error)) (geo.Position, error) {
	a, ok := e.agents.Load(id)
	if !ok {
		return geo.Position{}, fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	if a.state == STATE_TRACED {
		return fromTrace(e.traces)
	}
	return a.position, nil
}

// 时刻t的位置
func (e *Environment) PositionAt(id int, t float64) (geo.Position, error) {
	return e.query(id, func(p *trace.Player) (geo.Position, error) {
		return p.PositionAt(id, t)
	})
}

// t之后的下一个轨迹位置
func (e *Environment) NextPosition(id int, t float64) (geo.Position, error) {
	return e.query(id, func(p *trace.Player) (geo.Position, error) {
		return p.NextPositionAfter(id, t)
	})
}

// t之前的上一个轨迹位置
func (e *Environment) PreviousPosition(id int, t float64) (geo.Position, error) {
	return e.query(id, func(p *trace.Player) (geo.Position, error) {
		return p.PreviousPositionBefore(id, t)
	})
}

// 时刻t的插值位置
func (e *Environment) ExpectedPosition(id int, t float64) (geo.Position, error) {
	return e.query(id, func(p *trace.Player) (geo.Position, error) {
		return p.InterpolatedPositionAt(id, t)
	})
}

// 两点间的路径，无路径或计算失败时返回nil
func (e *Environment) RouteBetween(v router.Vehicle, from, to geo.Position) *router.Route {
	route, err := e.routes.GetRoute(v, from, to)
	if err != nil {
		log.Debugf("no %v route from %v to %v: %v", v, from, to, err)
		return nil
	}
	return route
}

// 两个智能体在时刻t所在位置之间的路径
func (e *Environment) RouteBetweenAgents(v router.Vehicle, a, b int, t float64) (*router.Route, error) {
	from, err := e.PositionAt(a, t)
	if err != nil {
		return nil, err
	}
	to, err := e.PositionAt(b, t)
	if err != nil {
		return nil, err
	}
	return e.RouteBetween(v, from, to), nil
}

// 智能体在时刻t所在位置到目标点的路径
func (e *Environment) RouteFromAgent(v router.Vehicle, id int, t float64, to geo.Position) (*router.Route, error) {
	from, err := e.PositionAt(id, t)
	if err != nil {
		return nil, err
	}
	return e.RouteBetween(v, from, to), nil
}
