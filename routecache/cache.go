package routecache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"git.fiblab.net/sim/mobility/geo"
	"git.fiblab.net/sim/mobility/router"
	"golang.org/x/sync/singleflight"
)

// 错误：路径计算失败，不写入缓存
var ErrRouteComputation = errors.New("route computation failed")

// 缓存键，三者均相等时为同一键
type RouteKey struct {
	Vehicle router.Vehicle
	From    geo.Position
	To      geo.Position
}

func formatCoord(b *strings.Builder, x float64) {
	if x == 0 {
		// -0与0视为同一坐标
		x = 0
	}
	b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	b.WriteByte('|')
}

// single-flight使用的字符串键，与结构体相等性一致
func (k RouteKey) String() string {
	var b strings.Builder
	b.WriteString(k.Vehicle.String())
	b.WriteByte('|')
	formatCoord(&b, k.From.Lat)
	formatCoord(&b, k.From.Lon)
	formatCoord(&b, k.To.Lat)
	formatCoord(&b, k.To.Lon)
	return b.String()
}

// 单一出行方式的路网
type Graph interface {
	Route(from, to geo.Position) (*router.Route, error)
}

// 查询出行方式对应的路网，不可用时ok为false
type LookupFunc func(router.Vehicle) (Graph, bool)

// 从路网表查询
func PoolLookup(p *router.Pool) LookupFunc {
	return func(v router.Vehicle) (Graph, bool) {
		r, ok := p.Lookup(v)
		if !ok {
			return nil, false
		}
		return r, true
	}
}

type entry struct {
	key        RouteKey
	route      *router.Route // nil表示无路径
	lastAccess time.Time
	element    *list.Element
}

type Stats struct {
	Entries      int
	Hits         int64
	Misses       int64
	Evictions    int64
	Computations int64
}

// Cache 有界、空闲过期的路径缓存
// 同一键同时只有一次计算，并发的相同请求等待同一计算结果
type Cache struct {
	lookup  LookupFunc
	options Options

	mu      sync.Mutex
	entries map[RouteKey]*entry
	lru     *list.List // 前端为最近访问
	flight  singleflight.Group

	hits         atomic.Int64
	misses       atomic.Int64
	evictions    atomic.Int64
	computations atomic.Int64
}

func New(lookup LookupFunc, opts ...Option) *Cache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Size <= 0 {
		options.Size = DEFAULT_SIZE
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Cache{
		lookup:  lookup,
		options: options,
		entries: make(map[RouteKey]*entry),
		lru:     list.New(),
	}
}

// 查询路径，未命中时使用对应出行方式的路网计算
// 无路径或路网不可用时返回nil, nil，后者不写入缓存
func (c *Cache) GetRoute(v router.Vehicle, from, to geo.Position) (*router.Route, error) {
	key := RouteKey{Vehicle: v, From: from, To: to}
	if route, ok := c.get(key); ok {
		c.hit()
		return route, nil
	}
	if !from.Valid() || !to.Valid() {
		c.miss()
		return nil, nil
	}

	res, err, _ := c.flight.Do(key.String(), func() (any, error) {
		// 等待期间可能已有同键计算完成
		if route, ok := c.get(key); ok {
			return flightResult{route: route, cached: true}, nil
		}
		route, err := c.compute(key)
		return flightResult{route: route}, err
	})
	r, _ := res.(flightResult)
	// 同一次计算的所有等待者按结果来源计数
	if r.cached {
		c.hit()
	} else {
		c.miss()
	}
	if err != nil {
		return nil, err
	}
	return r.route, nil
}

type flightResult struct {
	route  *router.Route
	cached bool
}

func (c *Cache) hit() {
	c.hits.Add(1)
	lookupTotal.WithLabelValues("hit").Inc()
}

func (c *Cache) miss() {
	c.misses.Add(1)
	lookupTotal.WithLabelValues("miss").Inc()
}

func (c *Cache) compute(key RouteKey) (*router.Route, error) {
	vehicle := key.Vehicle.String()
	g, ok := c.lookup(key.Vehicle)
	if !ok {
		computationTotal.WithLabelValues(vehicle, "unavailable").Inc()
		return nil, nil
	}
	c.computations.Add(1)
	start := time.Now()
	route, err := g.Route(key.From, key.To)
	computationDuration.WithLabelValues(vehicle).Observe(time.Since(start).Seconds())
	if err != nil {
		computationTotal.WithLabelValues(vehicle, "failed").Inc()
		log.Warnf("failed to compute %v route from %v to %v: %v", key.Vehicle, key.From, key.To, err)
		return nil, fmt.Errorf("%w: %v", ErrRouteComputation, err)
	}
	if route == nil {
		computationTotal.WithLabelValues(vehicle, "none").Inc()
	} else {
		computationTotal.WithLabelValues(vehicle, "found").Inc()
	}
	c.put(key, route)
	return route, nil
}

func (c *Cache) expired(e *entry, now time.Time) bool {
	return c.options.IdleTimeout > 0 && now.Sub(e.lastAccess) > c.options.IdleTimeout
}

// 命中时刷新访问时间，过期条目在此惰性删除
func (c *Cache) get(key RouteKey) (*router.Route, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.options.Now()
	if c.expired(e, now) {
		c.removeLocked(e, "idle")
		return nil, false
	}
	e.lastAccess = now
	c.lru.MoveToFront(e.element)
	return e.route, true
}

func (c *Cache) put(key RouteKey, route *router.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	e := &entry{key: key, route: route, lastAccess: c.options.Now()}
	e.element = c.lru.PushFront(e)
	c.entries[key] = e
	for c.lru.Len() > c.options.Size {
		c.removeLocked(c.lru.Back().Value.(*entry), "size")
	}
}

func (c *Cache) removeLocked(e *entry, reason string) {
	c.lru.Remove(e.element)
	delete(c.entries, e.key)
	c.evictions.Add(1)
	evictionTotal.WithLabelValues(reason).Inc()
	log.Debugf("evict %v route from %v to %v (%s)", e.key.Vehicle, e.key.From, e.key.To, reason)
}

// 清理所有空闲过期的条目，返回清理数量
func (c *Cache) Sweep() int {
	if c.options.IdleTimeout <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.options.Now()
	n := 0
	// 链表按访问时间排序，从最久未访问的一端开始
	for el := c.lru.Back(); el != nil; {
		e := el.Value.(*entry)
		if !c.expired(e, now) {
			break
		}
		prev := el.Prev()
		c.removeLocked(e, "idle")
		n++
		el = prev
	}
	return n
}

// 后台定期清理过期条目，ctx取消后退出
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = max(c.options.IdleTimeout/2, time.Second)
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					log.Debugf("swept %d idle routes", n)
				}
			}
		}
	}()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries:      c.Len(),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evictions.Load(),
		Computations: c.computations.Load(),
	}
}
