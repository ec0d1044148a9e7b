package main

import (
	"context"
	"flag"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/mobility/geo"
	"github.com/sirupsen/logrus"
)

var (
	benchmarkCount = flag.Int("benchmark.count", 1000, "the random routing count for benchmark")
	benchmarkSeed  = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU   = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

// 在路网范围内随机生成请求
func benchmarkRequests(server *MobilityServer, count int, seed int64) []*connect.Request[GetRouteRequest] {
	bound, ok := server.pool.Bounds()
	vehicles := server.pool.Vehicles()
	if !ok || len(vehicles) == 0 {
		return nil
	}
	e := rand.New(rand.NewSource(seed))
	random := func() geo.Position {
		return geo.NewPosition(
			bound.Min.Lat()+e.Float64()*(bound.Max.Lat()-bound.Min.Lat()),
			bound.Min.Lon()+e.Float64()*(bound.Max.Lon()-bound.Min.Lon()),
		)
	}
	reqs := make([]*connect.Request[GetRouteRequest], count)
	for i := range reqs {
		reqs[i] = connect.NewRequest(&GetRouteRequest{
			Vehicle: vehicles[e.Intn(len(vehicles))],
			Start:   random(),
			End:     random(),
		})
	}
	return reqs
}

func runBenchmark(server *MobilityServer) {
	log.Logger.SetLevel(logrus.WarnLevel)
	reqs := benchmarkRequests(server, *benchmarkCount, *benchmarkSeed)
	if len(reqs) == 0 {
		log.Error("benchmark skipped: no road network available")
		return
	}

	// 开始benchmark
	start := time.Now()
	var success atomic.Int32
	run := func(req *connect.Request[GetRouteRequest]) {
		res, err := server.GetRoute(context.Background(), req)
		if err != nil {
			log.Error("benchmark failed, err:", err)
			return
		}
		if res.Msg.Route != nil {
			success.Add(1)
		}
	}
	if *benchmarkCPU == 1 {
		for _, req := range reqs {
			run(req)
		}
	} else {
		// 设置cpu数量
		runtime.GOMAXPROCS(*benchmarkCPU)
		var wg sync.WaitGroup
		wg.Add(len(reqs))
		for _, req := range reqs {
			go func(req *connect.Request[GetRouteRequest]) {
				defer wg.Done()
				run(req)
			}(req)
		}
		wg.Wait()
	}
	timeCost := time.Since(start) * time.Duration(*benchmarkCPU)
	stats := server.cache.Stats()
	log.Error(
		"benchmark finished", "\n",
		"count:", len(reqs), "\n",
		"time:", timeCost, "\n",
		"avg:", timeCost/time.Duration(len(reqs)), "\n",
		"success:", success.Load(), "\n",
		"cache hits:", stats.Hits, "\n",
	)
}
