package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/samber/lo"
)

type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

type rawWay struct {
	id    osm.WayID
	nodes []osm.NodeID
	tags  osm.Tags
}

// 原始路网：带highway标签的way及其引用的节点坐标
// 各出行方式共享，只读
type network struct {
	nodes map[osm.NodeID]orb.Point
	ways  []rawWay
	bound orb.Bound
}

// 读取OSM地图文件（.pbf为PBF格式，其余按XML格式处理）
func readNetwork(ctx context.Context, mapFile string) (*network, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s scanner
	switch strings.ToLower(filepath.Ext(mapFile)) {
	case ".pbf":
		s = osmpbf.New(ctx, f, runtime.GOMAXPROCS(0))
	default:
		s = osmxml.New(ctx, f)
	}
	defer s.Close()

	net := &network{
		nodes: make(map[osm.NodeID]orb.Point),
		ways:  make([]rawWay, 0),
	}
	for s.Scan() {
		switch o := s.Object().(type) {
		case *osm.Node:
			net.nodes[o.ID] = o.Point()
		case *osm.Way:
			if o.Tags.Find("highway") == "" {
				continue
			}
			net.ways = append(net.ways, rawWay{
				id: o.ID,
				nodes: lo.Map(o.Nodes, func(n osm.WayNode, _ int) osm.NodeID {
					return n.ID
				}),
				tags: o.Tags,
			})
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", mapFile, err)
	}

	// 仅统计道路引用到的节点范围
	first := true
	for _, w := range net.ways {
		for _, id := range w.nodes {
			p, ok := net.nodes[id]
			if !ok {
				continue
			}
			if first {
				net.bound = p.Bound()
				first = false
			} else {
				net.bound = net.bound.Extend(p)
			}
		}
	}
	if first {
		return nil, fmt.Errorf("no highway found in %s", mapFile)
	}
	log.Infof("read %d highways with %d nodes from %s", len(net.ways), len(net.nodes), mapFile)
	return net, nil
}
