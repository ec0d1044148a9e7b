package trace

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"git.fiblab.net/sim/mobility/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() *Trace {
	return NewTrace(1, []Sample{
		{Time: 20, Position: geo.NewPosition(45.001, 9.001)},
		{Time: 0, Position: geo.NewPosition(45.0, 9.0)},
		{Time: 10, Position: geo.NewPosition(45.001, 9.0)},
	})
}

func TestTraceSorted(t *testing.T) {
	tr := square()
	assert.Equal(t, 1, tr.ID())
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, 0.0, tr.Start())
	assert.Equal(t, 20.0, tr.End())
	samples := tr.Samples()
	samples[0].Time = 100
	// 返回副本
	assert.Equal(t, 0.0, tr.Start())
}

func TestTracePositionAt(t *testing.T) {
	tr := square()
	a, b, c := geo.NewPosition(45.0, 9.0), geo.NewPosition(45.001, 9.0), geo.NewPosition(45.001, 9.001)
	assert.Equal(t, a, tr.PositionAt(-5))
	assert.Equal(t, a, tr.PositionAt(0))
	assert.Equal(t, a, tr.PositionAt(9.9))
	assert.Equal(t, b, tr.PositionAt(10))
	assert.Equal(t, c, tr.PositionAt(20))
	assert.Equal(t, c, tr.PositionAt(1000))
}

func TestTraceNextPrevious(t *testing.T) {
	tr := square()
	a, b, c := geo.NewPosition(45.0, 9.0), geo.NewPosition(45.001, 9.0), geo.NewPosition(45.001, 9.001)
	assert.Equal(t, a, tr.NextPositionAfter(-1))
	assert.Equal(t, b, tr.NextPositionAfter(0))
	assert.Equal(t, c, tr.NextPositionAfter(10))
	assert.Equal(t, c, tr.NextPositionAfter(20))
	assert.Equal(t, c, tr.NextPositionAfter(50))

	assert.Equal(t, a, tr.PreviousPositionBefore(-1))
	assert.Equal(t, a, tr.PreviousPositionBefore(0))
	assert.Equal(t, a, tr.PreviousPositionBefore(10))
	assert.Equal(t, b, tr.PreviousPositionBefore(10.5))
	assert.Equal(t, c, tr.PreviousPositionBefore(50))
}

func TestTraceInterpolated(t *testing.T) {
	tr := square()
	assert.Equal(t, geo.NewPosition(45.0, 9.0), tr.InterpolatedPositionAt(-3))
	assert.Equal(t, geo.NewPosition(45.001, 9.001), tr.InterpolatedPositionAt(30))
	assert.Equal(t, geo.NewPosition(45.001, 9.0), tr.InterpolatedPositionAt(10))

	p := tr.InterpolatedPositionAt(5)
	assert.InDelta(t, 45.0005, p.Lat, 1e-12)
	assert.InDelta(t, 9.0, p.Lon, 1e-12)
	p = tr.InterpolatedPositionAt(17.5)
	assert.InDelta(t, 45.001, p.Lat, 1e-12)
	assert.InDelta(t, 9.00075, p.Lon, 1e-12)
	// 幂等
	assert.Equal(t, tr.InterpolatedPositionAt(13.37), tr.InterpolatedPositionAt(13.37))
	// NaN时刻返回首个采样
	assert.Equal(t, geo.NewPosition(45.0, 9.0), tr.InterpolatedPositionAt(math.NaN()))
}

func TestPlayerNaNTime(t *testing.T) {
	p, err := NewPlayer([]Record{{ID: 0, Samples: []Sample{
		{Time: 0, Position: geo.NewPosition(45.0, 9.0)},
		{Time: 10, Position: geo.NewPosition(45.0, 9.001)},
	}}}, 0, false)
	require.NoError(t, err)
	for _, query := range []func(int, float64) (geo.Position, error){
		p.PositionAt, p.NextPositionAfter, p.PreviousPositionBefore, p.InterpolatedPositionAt,
	} {
		assert.NotPanics(t, func() {
			_, err := query(0, math.NaN())
			assert.NoError(t, err)
		})
	}
}

func TestTraceDropsInvalidSamples(t *testing.T) {
	tr := NewTrace(1, []Sample{
		{Time: 10, Position: geo.NewPosition(45.0, 9.0)},
		{Time: math.NaN(), Position: geo.NewPosition(45.0, 9.0)},
		{Time: math.Inf(1), Position: geo.NewPosition(45.0, 9.0)},
		{Time: 5, Position: geo.NewPosition(math.NaN(), 9.0)},
		{Time: 0, Position: geo.NewPosition(45.001, 9.0)},
	})
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, 0.0, tr.Start())
	assert.Equal(t, 10.0, tr.End())

	// 全部无效的轨迹被丢弃
	p, err := NewPlayer([]Record{
		{ID: 3, Samples: []Sample{{Time: math.NaN(), Position: geo.NewPosition(45.0, 9.0)}}},
		{ID: 4, Samples: []Sample{{Time: 1, Position: geo.NewPosition(45.0, 9.0)}}},
	}, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, p.IDs())
}

func TestTraceFilter(t *testing.T) {
	tr := square().Filter(10)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 10.0, tr.Start())
	assert.Equal(t, 0, square().Filter(21).Len())
	assert.Equal(t, 3, square().Filter(-1).Len())
}

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader("# comment\n1, 0, 45.0, 9.0\n1,5,45.1,9.1\n2,0,46,10\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].ID)
	assert.Len(t, records[0].Samples, 2)
	assert.Equal(t, geo.NewPosition(45.1, 9.1), records[0].Samples[1].Position)
	assert.Equal(t, 2, records[1].ID)

	_, err = ReadCSV(strings.NewReader("x,0,45,9\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("1,0,45\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("1,0,45,abc\n"))
	assert.Error(t, err)

	// 非有限值带行号报错
	for _, doc := range []string{
		"0,10,45,9\n0,NaN,45,9\n",
		"0,10,45,9\n0,+Inf,45,9\n",
		"0,10,45,9\n0,0,NaN,9\n",
		"0,10,45,9\n0,0,45,-Inf\n",
	} {
		_, err = ReadCSV(strings.NewReader(doc))
		if assert.Error(t, err, doc) {
			assert.Contains(t, err.Error(), "line 2")
		}
	}
}

func loadFile(t *testing.T, path string, minTime float64, useIDs bool) (*Player, error) {
	records, err := FileSource{Path: path}.Records(context.Background())
	require.NoError(t, err)
	return NewPlayer(records, minTime, useIDs)
}

func TestPlayerDuplicateIDs(t *testing.T) {
	_, err := loadFile(t, "testdata/traces.csv", 0, true)
	assert.ErrorIs(t, err, ErrDuplicateTraceID)

	// 顺序分配ID时不冲突
	p, err := loadFile(t, "testdata/traces.csv", 0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, p.IDs())
	tr, ok := p.Trace(0)
	require.True(t, ok)
	assert.Equal(t, 3, tr.Len())
	tr, ok = p.Trace(2)
	require.True(t, ok)
	assert.Equal(t, 2, tr.ID())
	assert.Equal(t, 1, tr.Len())
}

func TestPlayerEmbeddedIDs(t *testing.T) {
	p, err := loadFile(t, "testdata/unique.csv", 0, true)
	require.NoError(t, err)
	// ID 2的采样点都早于0，整条轨迹被丢弃
	assert.Equal(t, []int{4, 9}, p.IDs())
	assert.True(t, p.HasTrace(4))
	assert.False(t, p.HasTrace(2))

	pos, err := p.PositionAt(4, 15)
	require.NoError(t, err)
	assert.Equal(t, geo.NewPosition(45.001, 9.0), pos)
	pos, err = p.NextPositionAfter(4, 15)
	require.NoError(t, err)
	assert.Equal(t, geo.NewPosition(45.001, 9.001), pos)
	pos, err = p.PreviousPositionBefore(4, 10)
	require.NoError(t, err)
	assert.Equal(t, geo.NewPosition(45.0, 9.0), pos)
	pos, err = p.InterpolatedPositionAt(9, 0)
	require.NoError(t, err)
	assert.Equal(t, geo.NewPosition(45.002, 9.002), pos)

	_, err = p.PositionAt(2, 0)
	assert.ErrorIs(t, err, ErrNoTraceForAgent)
	_, err = p.NextPositionAfter(2, 0)
	assert.ErrorIs(t, err, ErrNoTraceForAgent)
	_, err = p.PreviousPositionBefore(2, 0)
	assert.ErrorIs(t, err, ErrNoTraceForAgent)
	_, err = p.InterpolatedPositionAt(2, 0)
	assert.ErrorIs(t, err, ErrNoTraceForAgent)
}

func TestPlayerSequentialIDs(t *testing.T) {
	p, err := loadFile(t, "testdata/unique.csv", 0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, p.IDs())
	tr, ok := p.Trace(1)
	require.True(t, ok)
	assert.Equal(t, 1, tr.ID())
	assert.Equal(t, 100.0, tr.Start())
}

type countingSource struct {
	key   string
	calls atomic.Int64
	err   error
}

func (s *countingSource) Key() string {
	return s.key
}

func (s *countingSource) Records(ctx context.Context) ([]Record, error) {
	s.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	if s.err != nil {
		return nil, s.err
	}
	return []Record{{ID: 1, Samples: []Sample{{Time: 0, Position: geo.NewPosition(45, 9)}}}}, nil
}

func TestLoaderOnce(t *testing.T) {
	l := NewLoader()
	src := &countingSource{key: "a"}
	var wg sync.WaitGroup
	players := make([]*Player, 8)
	wg.Add(len(players))
	for i := range players {
		go func(i int) {
			defer wg.Done()
			p, err := l.Load(context.Background(), src, 0, true)
			assert.NoError(t, err)
			players[i] = p
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, src.calls.Load())
	for _, p := range players {
		assert.Same(t, players[0], p)
	}

	// 失败不缓存
	bad := &countingSource{key: "b", err: errors.New("unreachable")}
	_, err := l.Load(context.Background(), bad, 0, true)
	assert.Error(t, err)
	_, err = l.Load(context.Background(), bad, 0, true)
	assert.Error(t, err)
	assert.EqualValues(t, 2, bad.calls.Load())
}

func TestLoadFile(t *testing.T) {
	p1, err := Load(context.Background(), FileSource{Path: "testdata/unique.csv"}, 0, true)
	require.NoError(t, err)
	p2, err := Load(context.Background(), FileSource{Path: "./testdata/unique.csv"}, 0, true)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	_, err = Load(context.Background(), FileSource{Path: "testdata/missing.csv"}, 0, true)
	assert.Error(t, err)
}
