package task

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils"
)

// 对外操作接口。每个操作都被投递到控制循环协程上串行执行，
// 调用方（HTTP处理协程等）只拿到返回值，从不直接触碰内部状态。

// LoadNetwork 加载路网文件并重建路网
func (ctx *Context) LoadNetwork(path string) error {
	return ctx.call("load_network", func() error { return ctx.loadNetwork(path) })
}

// LoadRoutes 加载路由/车型文件
func (ctx *Context) LoadRoutes(path string) error {
	return ctx.call("load_routes", func() error { return ctx.loadRoutes(path) })
}

// LoadConfig 加载组合配置文件
func (ctx *Context) LoadConfig(path string) error {
	return ctx.call("load_config", func() error { return ctx.loadConfig(path) })
}

// Start 开始连续模拟
func (ctx *Context) Start() error {
	return ctx.call("start", func() error { return ctx.start() })
}

// Stop 停止模拟并释放仿真器连接
func (ctx *Context) Stop() error {
	return ctx.call("stop", func() error { return ctx.stop() })
}

// StepOnce 执行单步
func (ctx *Context) StepOnce() error {
	return ctx.call("step", func() error { return ctx.stepOnce() })
}

// Pan 按屏幕像素位移平移视图
func (ctx *Context) Pan(dx, dy float64) error {
	return ctx.call("pan", func() error {
		ctx.view.Pan(dx, dy)
		ctx.publishFrame()
		return nil
	})
}

// ZoomBy 按倍数缩放视图
func (ctx *Context) ZoomBy(factor float64) error {
	return ctx.call("zoom", func() error {
		if factor <= 0 {
			return fmt.Errorf("zoom factor must be positive")
		}
		ctx.view.ZoomBy(factor)
		ctx.publishFrame()
		return nil
	})
}

// ZoomTo 设置缩放倍率
// 说明：不高于0.1的值与视口约定一致，静默忽略
func (ctx *Context) ZoomTo(zoom float64) error {
	return ctx.call("zoom", func() error {
		ctx.view.SetZoom(zoom)
		ctx.publishFrame()
		return nil
	})
}

// Fit 自适应视图至当前路网
func (ctx *Context) Fit() error {
	return ctx.call("fit", func() error {
		ctx.fit()
		return nil
	})
}

// SetCanvasSize 更新画布像素尺寸
func (ctx *Context) SetCanvasSize(w, h float64) error {
	return ctx.call("canvas", func() error {
		if w <= 0 || h <= 0 {
			return fmt.Errorf("canvas size must be positive")
		}
		ctx.view.SetCanvasSize(w, h)
		ctx.publishFrame()
		return nil
	})
}

// Select 点选屏幕坐标处的对象
// 返回：选中对象详情，未命中时为nil
func (ctx *Context) Select(x, y float64) (*render.Selection, error) {
	var sel *render.Selection
	err := ctx.call("select", func() error {
		sel = ctx.selectAt(x, y)
		return nil
	})
	return sel, err
}

// ApplySettings 更新界面设置，nil字段保持不变
func (ctx *Context) ApplySettings(showLabels *bool, spawnInterval *int) error {
	return ctx.call("settings", func() error { return ctx.applySettings(showLabels, spawnInterval) })
}

// SetSignal 转发信号灯控制命令，nil字段不下发
func (ctx *Context) SetSignal(id string, state *string, phase *int32, program *string) error {
	return ctx.call("signal", func() error { return ctx.setSignal(id, state, phase, program) })
}

// StatsPayload 运行状态汇总
type StatsPayload struct {
	State         string   `json:"state"` // idle或running
	Connected     bool     `json:"connected"`
	Step          int64    `json:"step"`
	SimTime       float64  `json:"simTime"`
	Clock         string   `json:"clock"`
	Wall          string   `json:"wall"`
	Current       int      `json:"current"`
	Spawned       int64    `json:"spawned"`
	Arrived       int64    `json:"arrived"`
	Signals       int      `json:"signals"`
	ShowLabels    bool     `json:"showLabels"`
	SpawnInterval int      `json:"spawnInterval"`
	VehicleTypes  []string `json:"vehicleTypes,omitempty"`
	Status        string   `json:"status"`
}

// Stats 获取运行状态汇总
func (ctx *Context) Stats() (StatsPayload, error) {
	var p StatsPayload
	err := ctx.do("stats", func() {
		state := "idle"
		if ctx.running {
			state = "running"
		}
		p = StatsPayload{
			State:         state,
			Connected:     ctx.client != nil,
			Step:          ctx.clock.Step,
			SimTime:       ctx.clock.T,
			Clock:         ctx.clock.String(),
			Wall:          ctx.stopwatch.String(),
			Current:       ctx.vehicleManager.Count(),
			Spawned:       ctx.vehicleManager.Spawned(),
			Arrived:       ctx.vehicleManager.Arrived(),
			Signals:       ctx.signalManager.Count(),
			ShowLabels:    ctx.showLabels,
			SpawnInterval: ctx.spawnInterval,
			VehicleTypes:  ctx.typeIDs,
			Status:        ctx.statusText(),
		}
	})
	return p, err
}

// StatusHistory 获取最近的状态消息，从旧到新
func (ctx *Context) StatusHistory() ([]StatusEntry, error) {
	var entries []StatusEntry
	err := ctx.do("status", func() { entries = ctx.status.Items() })
	return entries, err
}

// TopoJunction 路口的世界坐标描述
type TopoJunction struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TopoLane 车道的世界坐标描述，中心线为扁平化坐标[x0,y0,x1,y1,...]
type TopoLane struct {
	ID     string    `json:"id"`
	Index  int       `json:"index"`
	Width  float64   `json:"width"`
	Length float64   `json:"length"`
	Shape  []float64 `json:"shape"`
}

// TopoRoad 道路的世界坐标描述
type TopoRoad struct {
	ID       string     `json:"id"`
	From     string     `json:"from,omitempty"`
	To       string     `json:"to,omitempty"`
	Internal bool       `json:"internal"`
	Entry    bool       `json:"entry"`
	Exit     bool       `json:"exit"`
	Lanes    []TopoLane `json:"lanes"`
}

// TopologyPayload 世界坐标下的路网描述与出入口分类结果
type TopologyPayload struct {
	Junctions  []TopoJunction `json:"junctions"`
	Roads      []TopoRoad     `json:"roads"`
	EntryRoads []string       `json:"entryRoads"`
	ExitRoads  []string       `json:"exitRoads"`
}

// Topology 获取当前路网描述
// 参数：roadIDs-只返回指定道路，为空则返回全部
func (ctx *Context) Topology(roadIDs []string) (TopologyPayload, error) {
	var p TopologyPayload
	err := ctx.call("topology", func() error {
		nm := ctx.networkManager
		roadMap := nm.Roads()
		roads, failed := utils.Find(roadMap, lo.Values(roadMap), roadIDs)
		if len(failed) > 0 {
			return fmt.Errorf("unknown road ids: %v", failed)
		}

		p.Junctions = lo.Map(lo.Values(nm.Junctions()), func(j entity.IJunction, _ int) TopoJunction {
			return TopoJunction{ID: j.ID(), X: j.Position().X, Y: j.Position().Y}
		})
		sort.Slice(p.Junctions, func(i, j int) bool { return p.Junctions[i].ID < p.Junctions[j].ID })

		p.Roads = lo.Map(roads, func(r entity.IRoad, _ int) TopoRoad {
			out := TopoRoad{
				ID:       r.ID(),
				Internal: r.IsInternal(),
				Entry:    r.IsEntry(),
				Exit:     r.IsExit(),
				Lanes:    make([]TopoLane, 0, len(r.Lanes())),
			}
			if r.From() != nil {
				out.From = r.From().ID()
			}
			if r.To() != nil {
				out.To = r.To().ID()
			}
			for _, l := range r.Lanes() {
				shape := make([]float64, 0, 2*len(l.CenterLine()))
				for _, pt := range l.CenterLine() {
					shape = append(shape, pt.X, pt.Y)
				}
				out.Lanes = append(out.Lanes, TopoLane{
					ID:     l.ID(),
					Index:  l.Index(),
					Width:  l.Width(),
					Length: l.Length(),
					Shape:  shape,
				})
			}
			return out
		})
		sort.Slice(p.Roads, func(i, j int) bool { return p.Roads[i].ID < p.Roads[j].ID })

		p.EntryRoads = lo.Map(nm.EntryRoads(), func(r entity.IRoad, _ int) string { return r.ID() })
		p.ExitRoads = lo.Map(nm.ExitRoads(), func(r entity.IRoad, _ int) string { return r.ID() })
		sort.Strings(p.EntryRoads)
		sort.Strings(p.ExitRoads)
		return nil
	})
	return p, err
}
