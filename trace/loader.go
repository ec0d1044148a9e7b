package trace

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader 每个数据源在进程内只解析一次
type Loader struct {
	mu      sync.Mutex
	players map[string]*Player
	flight  singleflight.Group
}

func NewLoader() *Loader {
	return &Loader{players: make(map[string]*Player)}
}

var defaultLoader = NewLoader()

// 使用进程级Loader加载轨迹
func Load(ctx context.Context, src Source, minTime float64, useIDs bool) (*Player, error) {
	return defaultLoader.Load(ctx, src, minTime, useIDs)
}

func (l *Loader) Load(ctx context.Context, src Source, minTime float64, useIDs bool) (*Player, error) {
	key := fmt.Sprintf("%s|%g|%t", src.Key(), minTime, useIDs)
	if p, ok := l.cached(key); ok {
		return p, nil
	}
	res, err, _ := l.flight.Do(key, func() (any, error) {
		if p, ok := l.cached(key); ok {
			return p, nil
		}
		records, err := src.Records(ctx)
		if err != nil {
			return nil, err
		}
		p, err := NewPlayer(records, minTime, useIDs)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.players[key] = p
		l.mu.Unlock()
		log.Infof("loaded %d traces from %s", p.Len(), src.Key())
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Player), nil
}

func (l *Loader) cached(key string) (*Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[key]
	return p, ok
}
