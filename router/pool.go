package router

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.fiblab.net/sim/mobility/geo"
	"github.com/paulmach/orb"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

// Pool 各出行方式的路网表
// 每个出行方式一个槽位，发布后不再替换或移除
type Pool struct {
	mu    *xsync.RBMutex
	slots [VEHICLE_COUNT]*Router
}

func NewPool() *Pool {
	return &Pool{mu: xsync.NewRBMutex()}
}

// 为每个出行方式并行构建或加载路网，每个出行方式使用工作目录下的独立子目录
// 单个出行方式失败只记录日志，该出行方式的查询均返回无结果
// 仅在地图文件不可用或ctx被取消时返回错误
func (p *Pool) Initialize(ctx context.Context, mapFile, workspaceDir string, vehicles []Vehicle) error {
	if _, err := os.Stat(mapFile); err != nil {
		return fmt.Errorf("map file unavailable: %w", err)
	}
	// 原始路网只在需要导入时读取一次，各出行方式共享
	readOnce := sync.OnceValues(func() (*network, error) {
		return readNetwork(ctx, mapFile)
	})

	var failed sync.Map
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range vehicles {
		v := v
		g.Go(func() error {
			start := time.Now()
			r, err := p.prepare(filepath.Join(workspaceDir, v.String()), v, readOnce)
			graphInitDuration.WithLabelValues(v.String()).Observe(time.Since(start).Seconds())
			if err != nil {
				graphInitTotal.WithLabelValues(v.String(), "failed").Inc()
				log.Warnf("failed to build %v graph: %v", v, err)
				failed.Store(v, err)
				return ctx.Err()
			}
			p.publish(v, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	n := 0
	failed.Range(func(_, _ any) bool {
		n++
		return true
	})
	if n > 0 {
		log.Warnf("Initialization completed with errors: %d of %d vehicles unavailable", n, len(vehicles))
	} else {
		log.Infof("Initialization completed: %v", p.Vehicles())
	}
	return nil
}

// 加载目录中已有的路网，不存在时导入并写入目录
// 格式版本不兼容时删除目录并重试一次
func (p *Pool) prepare(dir string, v Vehicle, read func() (*network, error)) (*Router, error) {
	r, err := p.importOrLoad(dir, v, read)
	if errors.Is(err, ErrIncompatibleFormat) {
		log.Warnf("stale %v graph in %s (%v), rebuilding", v, dir, err)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to remove stale graph: %w", err)
		}
		r, err = p.importOrLoad(dir, v, read)
	}
	return r, err
}

func (p *Pool) importOrLoad(dir string, v Vehicle, read func() (*network, error)) (*Router, error) {
	if hasArtifacts(dir) {
		data, err := loadArtifacts(dir, v)
		if err != nil {
			return nil, err
		}
		r, err := New(v, data)
		if err != nil {
			return nil, err
		}
		graphInitTotal.WithLabelValues(v.String(), "loaded").Inc()
		log.Infof("loaded %v graph from %s", v, dir)
		return r, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	net, err := read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphBuild, err)
	}
	data, err := buildGraphData(net, v)
	if err != nil {
		return nil, err
	}
	r, err := New(v, data)
	if err != nil {
		return nil, err
	}
	if err := writeArtifacts(dir, data); err != nil {
		// 持久化失败不影响本次使用，下次启动重新导入
		log.Warnf("failed to persist %v graph to %s: %v", v, dir, err)
	}
	graphInitTotal.WithLabelValues(v.String(), "imported").Inc()
	log.Infof("imported %v graph: %d nodes, %d edges, %d components", v, r.NodeCount(), r.EdgeCount(), r.Components())
	return r, nil
}

func (p *Pool) publish(v Vehicle, r *Router) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slots[v] != nil {
		return
	}
	p.slots[v] = r
	graphNodes.WithLabelValues(v.String()).Set(float64(r.NodeCount()))
	graphEdges.WithLabelValues(v.String()).Set(float64(r.EdgeCount()))
	graphComponents.WithLabelValues(v.String()).Set(float64(r.Components()))
}

// 查询出行方式对应的路网，不可用时ok为false
func (p *Pool) Lookup(v Vehicle) (*Router, bool) {
	if !v.Valid() {
		return nil, false
	}
	t := p.mu.RLock()
	r := p.slots[v]
	p.mu.RUnlock(t)
	return r, r != nil
}

// 吸附到指定出行方式路网的最近道路上
func (p *Pool) SnapToNearestRoad(v Vehicle, pos geo.Position) (geo.Position, bool) {
	r, ok := p.Lookup(v)
	if !ok {
		return geo.Position{}, false
	}
	return r.Snap(pos)
}

// 已发布路网的出行方式
func (p *Pool) Vehicles() []Vehicle {
	res := make([]Vehicle, 0, VEHICLE_COUNT)
	for _, v := range VEHICLES {
		if _, ok := p.Lookup(v); ok {
			res = append(res, v)
		}
	}
	return res
}

// 所有已发布路网的经纬度范围
func (p *Pool) Bounds() (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, v := range VEHICLES {
		r, ok := p.Lookup(v)
		if !ok {
			continue
		}
		if !found {
			bound = r.Bound()
			found = true
		} else {
			bound = bound.Union(r.Bound())
		}
	}
	return bound, found
}
