package render

import (
	"math"
	"strings"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
)

// 图层配色与细节层级阈值
const (
	roadColor    = "#505050"
	markingColor = "#ffff00"
	nodeColor    = "#ff0000"

	// 车辆绘制宽度（米），车长由车型决定
	vehicleWidth = 2.0

	markingMinZoom      = 2.0 // 放大超过该倍率绘制道路中心虚线
	nodeMinZoom         = 1.0 // 放大不低于该倍率绘制路口节点
	roadLabelMinZoom    = 1.0 // 放大超过该倍率绘制道路标注
	vehicleLabelMinZoom = 1.0 // 放大超过该倍率绘制车辆标注
	signalLabelMinZoom  = 2.0 // 放大超过该倍率绘制信号灯标注

	nodeRadiusScale   = 1.2
	signalRadiusScale = 1.5
	signalRadiusMin   = 4.0
	signalRadiusMax   = 12.0

	roadLabelSize     = 12.0
	signalLabelSize   = 11.0
	vehicleLabelSize  = 10.0
	signalLabelMaxLen = 10
	labelOffset       = 6.0
)

// signalColor 按相位状态串推断信号灯显示颜色
// 说明：任一连接放行显示绿色，仅剩黄灯显示黄色，全部禁行显示红色
func signalColor(state string) string {
	switch {
	case strings.ContainsAny(state, "Gg"):
		return "#2ecc40"
	case strings.ContainsAny(state, "Yy"):
		return "#ffdc00"
	case state != "":
		return "#ff4136"
	default:
		return "#aaaaaa"
	}
}

// staticKey 静态图层缓存键，任一字段变化触发重建
type staticKey struct {
	zoom       float64
	offsetX    float64
	offsetY    float64
	width      float64
	height     float64
	showLabels bool
	netGen     uint64
}

// staticLayers 仅随视图与路网变化的图层
type staticLayers struct {
	key      staticKey
	roads    []Polyline
	markings []Polyline
	nodes    []Circle
	labels   []Label
}

// Renderer 帧生成器
// 功能：将路网、车辆、信号灯与视图状态组装为一帧绘制指令
// 说明：道路等静态图层按视图状态缓存，连续播放时只需重算动态图层
type Renderer struct {
	ctx entity.ITaskContext

	netGen uint64
	cache  *staticLayers
}

// New 创建帧生成器
func New(ctx entity.ITaskContext) *Renderer {
	return &Renderer{ctx: ctx}
}

// InvalidateNetwork 路网变化后使静态图层缓存失效
func (r *Renderer) InvalidateNetwork() {
	r.netGen++
	r.cache = nil
}

// Frame 生成一帧画面
// 参数：seq-帧序号，running-是否连续播放中，status-状态栏文本，sel-当前选中详情
func (r *Renderer) Frame(seq uint64, running bool, status string, sel *Selection) *Frame {
	view := r.ctx.View()
	ox, oy := view.Offset()
	w, h := view.CanvasSize()
	st := r.static()

	labels := st.labels
	if dyn := r.dynamicLabels(); len(dyn) > 0 {
		labels = append(append([]Label{}, st.labels...), dyn...)
	}
	return &Frame{
		Seq:     seq,
		SimTime: r.ctx.Clock().T,
		Clock:   r.ctx.Clock().String(),
		Wall:    r.ctx.Stopwatch().String(),
		Running: running,
		Status:  status,
		Stats: Stats{
			Current: r.ctx.VehicleManager().Count(),
			Spawned: r.ctx.VehicleManager().Spawned(),
			Arrived: r.ctx.VehicleManager().Arrived(),
			Signals: r.ctx.SignalManager().Count(),
		},
		Viewport: ViewportState{Zoom: view.Zoom(), OffsetX: ox, OffsetY: oy, Width: w, Height: h},
		Layers: Layers{
			Roads:    st.roads,
			Markings: st.markings,
			Nodes:    st.nodes,
			Vehicles: r.vehicleLayer(),
			Signals:  r.signalLayer(),
			Labels:   labels,
		},
		Selection: sel,
	}
}

func (r *Renderer) static() *staticLayers {
	view := r.ctx.View()
	ox, oy := view.Offset()
	w, h := view.CanvasSize()
	key := staticKey{
		zoom:       view.Zoom(),
		offsetX:    ox,
		offsetY:    oy,
		width:      w,
		height:     h,
		showLabels: r.ctx.ShowLabels(),
		netGen:     r.netGen,
	}
	if r.cache != nil && r.cache.key == key {
		return r.cache
	}
	r.cache = r.build(key)
	return r.cache
}

// build 重建静态图层
// 算法说明：
// 1. 道路逐车道画折线，线宽为车道宽度乘以缩放倍率
// 2. 放大超过阈值时补画外部道路的中心虚线与路口节点
// 3. 标注开关打开且放大足够时生成道路ID标注，锚点取首车道中点
func (r *Renderer) build(key staticKey) *staticLayers {
	view := r.ctx.View()
	zoom := key.zoom
	nm := r.ctx.NetworkManager()
	st := &staticLayers{key: key}

	roads := lo.Values(nm.Roads())
	laneLines := parallel.GoMap(roads, func(road entity.IRoad) []Polyline {
		out := make([]Polyline, 0, len(road.Lanes()))
		for _, l := range road.Lanes() {
			out = append(out, Polyline{
				Points: r.screenPoints(l.CenterLine()),
				Width:  l.Width() * zoom,
				Color:  roadColor,
			})
		}
		return out
	})
	st.roads = lo.Flatten(laneLines)

	if zoom > markingMinZoom {
		external := lo.Filter(roads, func(road entity.IRoad, _ int) bool {
			return !road.IsInternal() && len(road.Lanes()) > 0
		})
		st.markings = parallel.GoMap(external, func(road entity.IRoad) Polyline {
			return Polyline{
				Points: r.screenPoints(road.Lanes()[0].CenterLine()),
				Width:  1,
				Color:  markingColor,
				Dash:   []float64{6, 6},
			}
		})
	}

	if zoom >= nodeMinZoom {
		for _, j := range nm.Junctions() {
			p := view.WorldToScreen(j.Position())
			st.nodes = append(st.nodes, Circle{
				ID: j.ID(), X: p.X, Y: p.Y,
				R:     nodeRadiusScale * zoom,
				Color: nodeColor,
			})
		}
	}

	if key.showLabels && zoom > roadLabelMinZoom {
		for _, road := range nm.Roads() {
			if road.IsInternal() || len(road.Lanes()) == 0 {
				continue
			}
			l := road.Lanes()[0]
			p := view.WorldToScreen(l.GetPositionByS(l.Length() / 2))
			st.labels = append(st.labels, Label{X: p.X, Y: p.Y, Text: road.ID(), Size: roadLabelSize})
		}
	}

	log.Debugf("rebuilt static layers: %d road polylines at zoom %.2f", len(st.roads), zoom)
	return st
}

func (r *Renderer) vehicleLayer() []Quad {
	view := r.ctx.View()
	vehicles := lo.Values(r.ctx.VehicleManager().Vehicles())
	return parallel.GoMap(vehicles, func(v entity.IVehicle) Quad {
		rad := v.Angle() * math.Pi / 180
		dirX, dirY := math.Cos(rad), math.Sin(rad)
		halfL, halfW := v.Length()/2, vehicleWidth/2
		c := v.XY()
		corners := [4]geometry.Point{
			{X: c.X + dirX*halfL - dirY*halfW, Y: c.Y + dirY*halfL + dirX*halfW},
			{X: c.X + dirX*halfL + dirY*halfW, Y: c.Y + dirY*halfL - dirX*halfW},
			{X: c.X - dirX*halfL + dirY*halfW, Y: c.Y - dirY*halfL - dirX*halfW},
			{X: c.X - dirX*halfL - dirY*halfW, Y: c.Y - dirY*halfL + dirX*halfW},
		}
		q := Quad{ID: v.ID(), Color: v.Color()}
		for i, p := range corners {
			sp := view.WorldToScreen(p)
			q.Points[2*i] = sp.X
			q.Points[2*i+1] = sp.Y
		}
		return q
	})
}

func (r *Renderer) signalLayer() []Circle {
	view := r.ctx.View()
	zoom := view.Zoom()
	out := make([]Circle, 0, r.ctx.SignalManager().Count())
	for _, s := range r.ctx.SignalManager().Signals() {
		p := view.WorldToScreen(s.Position())
		out = append(out, Circle{
			ID: s.ID(), X: p.X, Y: p.Y,
			R:     lo.Clamp(signalRadiusScale*zoom, signalRadiusMin, signalRadiusMax),
			Color: signalColor(s.State()),
		})
	}
	return out
}

// dynamicLabels 信号灯与车辆的ID标注，随对象状态逐帧生成
// 说明：车辆标注与信号灯标注阈值不同，车辆在较低倍率下就可辨认
func (r *Renderer) dynamicLabels() []Label {
	if !r.ctx.ShowLabels() {
		return nil
	}
	view := r.ctx.View()
	zoom := view.Zoom()
	var out []Label
	if zoom > signalLabelMinZoom {
		for _, s := range r.ctx.SignalManager().Signals() {
			text := s.ID()
			if len(text) > signalLabelMaxLen {
				text = text[:signalLabelMaxLen]
			}
			p := view.WorldToScreen(s.Position())
			out = append(out, Label{X: p.X, Y: p.Y - labelOffset, Text: text, Size: signalLabelSize})
		}
	}
	if zoom > vehicleLabelMinZoom {
		for _, v := range r.ctx.VehicleManager().Vehicles() {
			p := view.WorldToScreen(v.XY())
			out = append(out, Label{X: p.X, Y: p.Y - labelOffset, Text: v.ID(), Size: vehicleLabelSize})
		}
	}
	return out
}

func (r *Renderer) screenPoints(line []geometry.Point) []float64 {
	view := r.ctx.View()
	out := make([]float64, 0, 2*len(line))
	for _, p := range line {
		sp := view.WorldToScreen(p)
		out = append(out, sp.X, sp.Y)
	}
	return out
}
