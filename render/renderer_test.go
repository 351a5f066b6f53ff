package render_test

import (
	"fmt"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/trafficvis-oss/clock"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/network"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/signal"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
	"github.com/tsinghua-fib-lab/trafficvis-oss/viewport"
)

const longJunctionID = "J2_very_long_junction"

type fakeCtx struct {
	clk        *clock.Clock
	sw         *clock.Stopwatch
	vp         *viewport.Viewport
	nm         entity.INetworkManager
	vm         entity.IVehicleManager
	sm         entity.ISignalManager
	showLabels bool
}

func (c *fakeCtx) Clock() *clock.Clock                    { return c.clk }
func (c *fakeCtx) Stopwatch() *clock.Stopwatch            { return c.sw }
func (c *fakeCtx) View() *viewport.Viewport               { return c.vp }
func (c *fakeCtx) NetworkManager() entity.INetworkManager { return c.nm }
func (c *fakeCtx) VehicleManager() entity.IVehicleManager { return c.vm }
func (c *fakeCtx) SignalManager() entity.ISignalManager   { return c.sm }
func (c *fakeCtx) RuntimeConfig() *config.RuntimeConfig   { return nil }
func (c *fakeCtx) ShowLabels() bool                       { return c.showLabels }

type vehAPI struct {
	ids  []string
	x, y float64
}

func (f *vehAPI) IDList() ([]string, error)                 { return f.ids, nil }
func (f *vehAPI) Position(string) (float64, float64, error) { return f.x, f.y, nil }
func (f *vehAPI) Speed(string) (float64, error)             { return 5, nil }
func (f *vehAPI) RoadID(string) (string, error)             { return "E1", nil }
func (f *vehAPI) LaneID(string) (string, error)             { return "E1_0", nil }
func (f *vehAPI) LanePosition(string) (float64, error)      { return 50, nil }
func (f *vehAPI) TypeID(string) (string, error)             { return "car", nil }

type sigAPI struct {
	ids   []string
	state string
}

func (f *sigAPI) IDList() ([]string, error)       { return f.ids, nil }
func (f *sigAPI) State(string) (string, error)    { return f.state, nil }
func (f *sigAPI) Phase(string) (int32, error)     { return 0, nil }
func (f *sigAPI) Program(string) (string, error)  { return "0", nil }
func (f *sigAPI) SetState(string, string) error   { return nil }
func (f *sigAPI) SetPhase(string, int32) error    { return nil }
func (f *sigAPI) SetProgram(string, string) error { return nil }

func newCtx(t *testing.T) (*fakeCtx, *vehAPI, *sigAPI) {
	nm := network.NewManager(nil)
	nm.Init(&input.Network{
		Junctions: []*input.Junction{
			{ID: "J1", X: 0, Y: 0},
			{ID: longJunctionID, X: 100, Y: 0},
		},
		Edges: []*input.Edge{
			{ID: "E1", From: "J1", To: longJunctionID, Lanes: []*input.Lane{
				{ID: "E1_0", Index: 0, Speed: 13.89, Width: 3.2,
					Shape: []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}},
			}},
		},
	})

	vm := vehicle.NewManager(nil)
	vapi := &vehAPI{ids: []string{"veh0"}, x: 50, y: 10}
	require.NoError(t, vm.Update(vapi, 0))

	sm := signal.NewManager(nil)
	sapi := &sigAPI{ids: []string{longJunctionID}, state: "GrGr"}
	require.NoError(t, sm.Init(sapi, nm))

	return &fakeCtx{
		clk:        clock.New(1),
		sw:         &clock.Stopwatch{},
		vp:         viewport.New(1000, 700),
		nm:         nm,
		vm:         vm,
		sm:         sm,
		showLabels: true,
	}, vapi, sapi
}

func TestFrameDefaultZoom(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)

	f := r.Frame(7, true, "Running", nil)
	assert.Equal(t, uint64(7), f.Seq)
	assert.True(t, f.Running)
	assert.Equal(t, "Running", f.Status)
	assert.Equal(t, "00:00:00", f.Clock)
	assert.Equal(t, 1.0, f.Viewport.Zoom)
	assert.Equal(t, 1000.0, f.Viewport.Width)

	// test: 道路逐车道成线，屏幕坐标按Y翻转
	require.Len(t, f.Layers.Roads, 1)
	assert.Equal(t, []float64{0, 700, 100, 700}, f.Layers.Roads[0].Points)
	assert.InDelta(t, 3.2, f.Layers.Roads[0].Width, 1e-9)

	// test: 默认倍率下画节点但不画虚线与标注
	assert.Len(t, f.Layers.Nodes, 2)
	assert.InDelta(t, 1.2, f.Layers.Nodes[0].R, 1e-9)
	assert.Empty(t, f.Layers.Markings)
	assert.Empty(t, f.Layers.Labels)

	// test: 信号灯取路口坐标，放行显示绿色
	require.Len(t, f.Layers.Signals, 1)
	assert.Equal(t, 100.0, f.Layers.Signals[0].X)
	assert.Equal(t, 700.0, f.Layers.Signals[0].Y)
	assert.Equal(t, "#2ecc40", f.Layers.Signals[0].Color)

	assert.Equal(t, 1, f.Stats.Current)
	assert.Equal(t, int64(1), f.Stats.Spawned)
	assert.Equal(t, 1, f.Stats.Signals)
}

func TestFrameLowZoom(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)
	ctx.vp.SetZoom(0.5)

	f := r.Frame(0, false, "Idle", nil)
	assert.NotEmpty(t, f.Layers.Roads)
	assert.Empty(t, f.Layers.Nodes)
	assert.Empty(t, f.Layers.Markings)
	assert.Empty(t, f.Layers.Labels)
}

func TestFrameHighZoomLabels(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)
	ctx.vp.SetZoom(3)

	f := r.Frame(0, false, "Idle", nil)
	require.NotEmpty(t, f.Layers.Markings)
	assert.Equal(t, []float64{6, 6}, f.Layers.Markings[0].Dash)

	texts := make([]string, 0, len(f.Layers.Labels))
	for _, l := range f.Layers.Labels {
		texts = append(texts, l.Text)
	}
	// 道路、信号灯（截断）、车辆标注
	assert.Contains(t, texts, "E1")
	assert.Contains(t, texts, longJunctionID[:10])
	assert.Contains(t, texts, "veh0")
	assert.NotContains(t, texts, longJunctionID)

	// test: 关闭标注开关后全部消失
	ctx.showLabels = false
	f = r.Frame(0, false, "Idle", nil)
	assert.Empty(t, f.Layers.Labels)
}

func TestFrameMidZoomLabels(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)
	ctx.vp.SetZoom(1.5)

	f := r.Frame(0, false, "Idle", nil)
	texts := make([]string, 0, len(f.Layers.Labels))
	for _, l := range f.Layers.Labels {
		texts = append(texts, l.Text)
	}
	// test: 1~2倍之间画车辆与道路标注，不画信号灯标注
	assert.Contains(t, texts, "veh0")
	assert.Contains(t, texts, "E1")
	assert.NotContains(t, texts, longJunctionID[:10])
	assert.Empty(t, f.Layers.Markings)
}

func TestFrameThroughViewport(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)
	ctx.vp.SetZoom(2)
	ctx.vp.Pan(40, -20)

	f := r.Frame(0, false, "Idle", nil)

	// test: 所有图层坐标等于视口标量变换的结果
	require.Len(t, f.Layers.Roads, 1)
	assert.Equal(t, ctx.vp.WorldToScreenX(0), f.Layers.Roads[0].Points[0])
	assert.Equal(t, ctx.vp.WorldToScreenY(0), f.Layers.Roads[0].Points[1])
	assert.Equal(t, ctx.vp.WorldToScreenX(100), f.Layers.Roads[0].Points[2])

	require.Len(t, f.Layers.Signals, 1)
	assert.Equal(t, ctx.vp.WorldToScreenX(100), f.Layers.Signals[0].X)
	assert.Equal(t, ctx.vp.WorldToScreenY(0), f.Layers.Signals[0].Y)

	require.Len(t, f.Layers.Nodes, 2)
	for _, n := range f.Layers.Nodes {
		if n.ID == "J1" {
			assert.Equal(t, ctx.vp.WorldToScreenX(0), n.X)
			assert.Equal(t, ctx.vp.WorldToScreenY(0), n.Y)
		}
	}

	require.Len(t, f.Layers.Vehicles, 1)
	var cx, cy float64
	for i := 0; i < 8; i += 2 {
		cx += f.Layers.Vehicles[0].Points[i]
		cy += f.Layers.Vehicles[0].Points[i+1]
	}
	assert.InDelta(t, ctx.vp.WorldToScreenX(50), cx/4, 1e-9)
	assert.InDelta(t, ctx.vp.WorldToScreenY(10), cy/4, 1e-9)
}

func TestVehicleQuad(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)

	f := r.Frame(0, false, "Idle", nil)
	require.Len(t, f.Layers.Vehicles, 1)
	q := f.Layers.Vehicles[0]
	assert.Equal(t, "veh0", q.ID)
	assert.Equal(t, ctx.vm.Get("veh0").Color(), q.Color)

	// 四边形中心等于车辆位置的屏幕坐标
	var cx, cy float64
	for i := 0; i < 8; i += 2 {
		cx += q.Points[i]
		cy += q.Points[i+1]
	}
	assert.InDelta(t, 50.0, cx/4, 1e-9)
	assert.InDelta(t, 690.0, cy/4, 1e-9)
}

func TestSignalColors(t *testing.T) {
	ctx, _, sapi := newCtx(t)
	r := render.New(ctx)

	sapi.state = "rrrr"
	require.NoError(t, ctx.sm.Update(sapi))
	f := r.Frame(0, false, "Idle", nil)
	assert.Equal(t, "#ff4136", f.Layers.Signals[0].Color)

	sapi.state = "yyrr"
	require.NoError(t, ctx.sm.Update(sapi))
	f = r.Frame(0, false, "Idle", nil)
	assert.Equal(t, "#ffdc00", f.Layers.Signals[0].Color)
}

func TestStaticLayerCache(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)

	a := r.Frame(0, false, "Idle", nil)
	b := r.Frame(1, false, "Idle", nil)
	// 视图不变时复用缓存的静态图层
	assert.Same(t, &a.Layers.Roads[0], &b.Layers.Roads[0])

	ctx.vp.Pan(10, 0)
	c := r.Frame(2, false, "Idle", nil)
	assert.NotEqual(t, a.Layers.Roads[0].Points, c.Layers.Roads[0].Points)

	r.InvalidateNetwork()
	d := r.Frame(3, false, "Idle", nil)
	assert.NotSame(t, &c.Layers.Roads[0], &d.Layers.Roads[0])
}

func TestSelectionPassthrough(t *testing.T) {
	ctx, _, _ := newCtx(t)
	r := render.New(ctx)

	sel := &render.Selection{Kind: "vehicle", ID: "veh0", Lines: []string{fmt.Sprintf("speed %.1f m/s", 5.0)}}
	f := r.Frame(0, false, "Idle", sel)
	assert.Equal(t, sel, f.Selection)

	f = r.Frame(1, false, "Idle", nil)
	assert.Nil(t, f.Selection)
}
