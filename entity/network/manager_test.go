package network_test

import (
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/network"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

func pt(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

func lane(id string, index int, pts ...geometry.Point) *input.Lane {
	return &input.Lane{ID: id, Index: index, Speed: 13.89, Width: 3.2, Shape: pts}
}

// J1 -E1-> J2 <-E3- J3，J2 -E2-> J3，J2 -E4-> J1，外加一条路口内边与一条两端悬空的边
func buildNet() *input.Network {
	return &input.Network{
		Junctions: []*input.Junction{
			{ID: "J1", X: 0, Y: 0},
			{ID: "J2", X: 100, Y: 0},
			{ID: "J3", X: 100, Y: 80},
		},
		Edges: []*input.Edge{
			{ID: "E1", From: "J1", To: "J2", Lanes: []*input.Lane{lane("E1_0", 0, pt(0, 0), pt(100, 0))}},
			{ID: "E2", From: "J2", To: "J3", Lanes: []*input.Lane{lane("E2_0", 0, pt(100, 0), pt(100, 80))}},
			{ID: "E3", From: "J3", To: "J2", Lanes: []*input.Lane{lane("E3_0", 0, pt(100, 80), pt(100, 0))}},
			{ID: "E4", From: "J2", To: "J1", Lanes: []*input.Lane{lane("E4_0", 0, pt(100, 0), pt(0, 0))}},
			{ID: ":J2_0", Function: "internal", Lanes: []*input.Lane{lane(":J2_0_0", 0, pt(99, 0), pt(101, 1))}},
			{ID: "E5", Lanes: []*input.Lane{lane("E5_0", 0, pt(200, 0), pt(300, 0))}},
		},
	}
}

func roadIDs(roads []entity.IRoad) []string {
	return lo.Map(roads, func(r entity.IRoad, _ int) string { return r.ID() })
}

func TestManagerInit(t *testing.T) {
	m := network.NewManager(nil)
	m.Init(buildNet())

	assert.Len(t, m.Junctions(), 3)
	assert.Len(t, m.Roads(), 6)
	assert.Len(t, m.Lanes(), 6)

	// test: road to junction wiring
	r, err := m.GetRoadOrError("E1")
	require.NoError(t, err)
	assert.Equal(t, "J1", r.From().ID())
	assert.Equal(t, "J2", r.To().ID())
	assert.False(t, r.IsInternal())

	j2 := m.GetJunction("J2")
	assert.ElementsMatch(t, []string{"E1", "E3"}, roadIDs(j2.Incoming()))
	assert.ElementsMatch(t, []string{"E2", "E4"}, roadIDs(j2.Outgoing()))

	// test: internal roads are kept but not linked to junctions
	internal, err := m.GetRoadOrError(":J2_0")
	require.NoError(t, err)
	assert.True(t, internal.IsInternal())
	assert.Nil(t, internal.From())
	assert.Nil(t, internal.To())

	// test: lane lookup and parent pointers
	l, err := m.GetLaneOrError("E2_0")
	require.NoError(t, err)
	assert.Equal(t, "E2", l.ParentRoad().ID())

	_, err = m.GetRoadOrError("nope")
	assert.Error(t, err)
	assert.Panics(t, func() { m.GetJunction("nope") })
}

func TestClassify(t *testing.T) {
	m := network.NewManager(nil)
	m.Init(buildNet())

	// E1起点无进入道路，E3起点只有1条进入道路，E5两端悬空
	assert.ElementsMatch(t, []string{"E1", "E3", "E5"}, roadIDs(m.EntryRoads()))
	// E2、E4终点只有1条离开道路
	assert.ElementsMatch(t, []string{"E2", "E4", "E5"}, roadIDs(m.ExitRoads()))

	r, err := m.GetRoadOrError("E1")
	require.NoError(t, err)
	assert.True(t, r.IsEntry())
	assert.False(t, r.IsExit())
}

func TestClassifyFallback(t *testing.T) {
	// 三路口双向全连接，每个路口进出都是2条，正常分类为空，回退为全部外部道路
	net := &input.Network{
		Junctions: []*input.Junction{
			{ID: "A", X: 0, Y: 0},
			{ID: "B", X: 100, Y: 0},
			{ID: "C", X: 50, Y: 80},
		},
	}
	pairs := [][2]string{{"A", "B"}, {"B", "A"}, {"B", "C"}, {"C", "B"}, {"C", "A"}, {"A", "C"}}
	for i, p := range pairs {
		id := string(rune('a' + i))
		net.Edges = append(net.Edges, &input.Edge{
			ID: id, From: p[0], To: p[1],
			Lanes: []*input.Lane{lane(id+"_0", 0, pt(0, 0), pt(1, 1))},
		})
	}

	m := network.NewManager(nil)
	m.Init(net)
	assert.Len(t, m.EntryRoads(), 6)
	assert.Len(t, m.ExitRoads(), 6)
}

func TestBounds(t *testing.T) {
	m := network.NewManager(nil)
	m.Init(buildNet())

	min, max, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, pt(0, 0), min)
	assert.Equal(t, pt(100, 80), max)

	empty := network.NewManager(nil)
	empty.Init(nil)
	_, _, ok = empty.Bounds()
	assert.False(t, ok)
}

func TestLaneGeometry(t *testing.T) {
	m := network.NewManager(nil)
	m.Init(buildNet())

	l, err := m.GetLaneOrError("E2_0")
	require.NoError(t, err)
	// 长度属性缺失时回退为中心线几何长度
	assert.InDelta(t, 80.0, l.Length(), 1e-9)

	mid := l.GetPositionByS(40)
	assert.InDelta(t, 100.0, mid.X, 1e-9)
	assert.InDelta(t, 40.0, mid.Y, 1e-9)

	// 超出范围的里程收缩到端点
	end := l.GetPositionByS(1e6)
	assert.InDelta(t, 80.0, end.Y, 1e-9)
}
