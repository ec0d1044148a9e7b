package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"git.fiblab.net/general/common/v2/mongoutil"
	"git.fiblab.net/sim/mobility/config"
	"git.fiblab.net/sim/mobility/geo"
	"git.fiblab.net/sim/mobility/mobility"
	"git.fiblab.net/sim/mobility/routecache"
	"git.fiblab.net/sim/mobility/router"
	"git.fiblab.net/sim/mobility/trace"
	"git.fiblab.net/sim/mobility/workspace"
)

type MobilityServer struct {
	pool  *router.Pool
	cache *routecache.Cache
	env   *mobility.Environment

	// 停止缓存清理协程
	cancel context.CancelFunc
}

// 按配置构建移动性服务：工作目录 -> 路网 -> 路径缓存 -> 轨迹 -> 环境
func NewMobilityServer(ctx context.Context, cfg config.Config) (*MobilityServer, error) {
	dir, err := workspace.Resolve(cfg.Map, cfg.Workspace.Roots)
	if err != nil {
		return nil, err
	}
	pool := router.NewPool()
	if err := pool.Initialize(ctx, cfg.Map, dir, cfg.Vehicles); err != nil {
		return nil, err
	}
	cache := routecache.New(
		routecache.PoolLookup(pool),
		routecache.WithSize(cfg.Cache.Size),
		routecache.WithIdleTimeout(cfg.Cache.IdleTimeout),
	)
	traces, err := loadTraces(ctx, cfg)
	if err != nil {
		return nil, err
	}
	env := mobility.New(pool, cache, traces, mobility.Options{
		OnStreets:     cfg.Street.OnStreets,
		OnlyOnStreets: cfg.Street.OnlyOnStreets,
		SnapVehicle:   cfg.Street.SnapVehicle,
	})

	janitorCtx, cancel := context.WithCancel(context.Background())
	if cfg.Cache.IdleTimeout > 0 {
		cache.StartJanitor(janitorCtx, cfg.Cache.SweepInterval)
	}
	return &MobilityServer{
		pool:   pool,
		cache:  cache,
		env:    env,
		cancel: cancel,
	}, nil
}

// 未配置轨迹时返回nil
func loadTraces(ctx context.Context, cfg config.Config) (*trace.Player, error) {
	p := cfg.TracePath()
	if p == nil {
		return nil, nil
	}
	var src trace.Source
	if p.IsFile() {
		src = trace.FileSource{Path: p.File}
	} else {
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("trace collection %s requires mongo_uri", p)
		}
		client := mongoutil.NewClient(cfg.MongoURI)
		defer client.Disconnect(context.Background())
		src = trace.MongoSource{Coll: client.Database(p.GetDb()).Collection(p.GetColl())}
	}
	player, err := trace.Load(ctx, src, cfg.Trace.MinTime, cfg.Trace.UseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load traces from %s: %w", p, err)
	}
	return player, nil
}

func (s *MobilityServer) GetRoute(
	ctx context.Context,
	req *connect.Request[GetRouteRequest],
) (*connect.Response[GetRouteResponse], error) {
	in := req.Msg
	if !in.Vehicle.Valid() {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("unknown vehicle: %d", int(in.Vehicle)),
		)
	}
	if !in.Start.Valid() || !in.End.Valid() {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("invalid position: %v -> %v", in.Start, in.End),
		)
	}
	log.Debugf("Search %v route from %v to %v", in.Vehicle, in.Start, in.End)
	route, err := s.cache.GetRoute(in.Vehicle, in.Start, in.End)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	ret := &GetRouteResponse{Route: route}
	if route != nil && in.GeoJSON {
		ret.Feature = route.Feature()
	}
	// 无法找到通路，返回空响应
	return connect.NewResponse(ret), nil
}

func (s *MobilityServer) SnapToRoad(
	ctx context.Context,
	req *connect.Request[SnapToRoadRequest],
) (*connect.Response[SnapToRoadResponse], error) {
	in := req.Msg
	if !in.Vehicle.Valid() {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("unknown vehicle: %d", int(in.Vehicle)),
		)
	}
	if !in.Position.Valid() {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("invalid position: %v", in.Position),
		)
	}
	ret := &SnapToRoadResponse{}
	if p, ok := s.pool.SnapToNearestRoad(in.Vehicle, in.Position); ok {
		ret.Position = &p
	}
	return connect.NewResponse(ret), nil
}

func (s *MobilityServer) Admit(
	ctx context.Context,
	req *connect.Request[AdmitRequest],
) (*connect.Response[AdmitResponse], error) {
	in := req.Msg
	p, err := s.env.Admit(in.ID, in.Position)
	switch {
	case err == nil:
		return connect.NewResponse(&AdmitResponse{Admitted: true, Position: &p}), nil
	case errors.Is(err, mobility.ErrAgentRejected):
		return connect.NewResponse(&AdmitResponse{Reason: err.Error()}), nil
	case errors.Is(err, mobility.ErrAgentExists):
		return nil, connect.NewError(connect.CodeAlreadyExists, err)
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
}

func (s *MobilityServer) GetPosition(
	ctx context.Context,
	req *connect.Request[GetPositionRequest],
) (*connect.Response[GetPositionResponse], error) {
	in := req.Msg
	var query func(int, float64) (geo.Position, error)
	switch in.Kind {
	case POSITION_AT, "":
		query = s.env.PositionAt
	case POSITION_NEXT:
		query = s.env.NextPosition
	case POSITION_PREVIOUS:
		query = s.env.PreviousPosition
	case POSITION_EXPECTED:
		query = s.env.ExpectedPosition
	default:
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("unknown position kind: %q", in.Kind),
		)
	}
	p, err := query(in.ID, in.Time)
	if err != nil {
		if errors.Is(err, mobility.ErrUnknownAgent) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	state, _ := s.env.State(in.ID)
	return connect.NewResponse(&GetPositionResponse{
		Position: p,
		Traced:   state == mobility.STATE_TRACED,
	}), nil
}

// 服务路由前缀和处理器
func (s *MobilityServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GET_ROUTE_PROCEDURE, connect.NewUnaryHandler(GET_ROUTE_PROCEDURE, s.GetRoute, opts...))
	mux.Handle(SNAP_TO_ROAD_PROCEDURE, connect.NewUnaryHandler(SNAP_TO_ROAD_PROCEDURE, s.SnapToRoad, opts...))
	mux.Handle(ADMIT_PROCEDURE, connect.NewUnaryHandler(ADMIT_PROCEDURE, s.Admit, opts...))
	mux.Handle(GET_POSITION_PROCEDURE, connect.NewUnaryHandler(GET_POSITION_PROCEDURE, s.GetPosition, opts...))
	return "/" + MOBILITY_SERVICE_NAME + "/", mux
}

func (s *MobilityServer) Close() {
	s.cancel()
	stats := s.cache.Stats()
	log.Infof("route cache: %d entries, %d hits, %d misses, %d evictions, %d computations",
		stats.Entries, stats.Hits, stats.Misses, stats.Evictions, stats.Computations)
}

// 服务客户端
type MobilityClient struct {
	getRoute    *connect.Client[GetRouteRequest, GetRouteResponse]
	snapToRoad  *connect.Client[SnapToRoadRequest, SnapToRoadResponse]
	admit       *connect.Client[AdmitRequest, AdmitResponse]
	getPosition *connect.Client[GetPositionRequest, GetPositionResponse]
}

func NewMobilityClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *MobilityClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &MobilityClient{
		getRoute:    connect.NewClient[GetRouteRequest, GetRouteResponse](httpClient, baseURL+GET_ROUTE_PROCEDURE, opts...),
		snapToRoad:  connect.NewClient[SnapToRoadRequest, SnapToRoadResponse](httpClient, baseURL+SNAP_TO_ROAD_PROCEDURE, opts...),
		admit:       connect.NewClient[AdmitRequest, AdmitResponse](httpClient, baseURL+ADMIT_PROCEDURE, opts...),
		getPosition: connect.NewClient[GetPositionRequest, GetPositionResponse](httpClient, baseURL+GET_POSITION_PROCEDURE, opts...),
	}
}

func (c *MobilityClient) GetRoute(ctx context.Context, req *GetRouteRequest) (*GetRouteResponse, error) {
	res, err := c.getRoute.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *MobilityClient) SnapToRoad(ctx context.Context, req *SnapToRoadRequest) (*SnapToRoadResponse, error) {
	res, err := c.snapToRoad.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *MobilityClient) Admit(ctx context.Context, req *AdmitRequest) (*AdmitResponse, error) {
	res, err := c.admit.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *MobilityClient) GetPosition(ctx context.Context, req *GetPositionRequest) (*GetPositionResponse, error) {
	res, err := c.getPosition.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
