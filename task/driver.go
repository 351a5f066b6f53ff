package task

import (
	"fmt"
	"math"
	"sort"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/trafficvis-oss/clock"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

const (
	// 点选信号灯的容差（世界坐标，米）
	signalPickTolerance = 15.0
	// 点选车辆的容差（屏幕像素，换算为世界坐标时除以缩放倍率）
	vehiclePickTolerance = 10.0
)

// connect 建立连接并完成初始同步
// 算法说明：
// 1. 通过Dialer启动或连接仿真器，设置多客户端指令顺序号
// 2. 重置时钟、计时器与车辆状态后做初始车辆同步
// 3. 将仿真器信号灯与路网路口关联并拉取初始状态
// 4. 任一步失败立即断开连接并清空已写入的状态，不保留部分结果
func (ctx *Context) connect() error {
	if ctx.netPath == "" && ctx.cfgPath == "" {
		return fmt.Errorf("no network loaded")
	}
	client, err := ctx.dial(ctx.runtimeConfig.Sim, ctx.cfgPath, ctx.netPath, ctx.routePath)
	if err != nil {
		return fmt.Errorf("connect simulator: %w", err)
	}
	if err := client.SetOrder(ctx.runtimeConfig.Sim.Order); err != nil {
		_ = client.Close()
		return fmt.Errorf("set order: %w", err)
	}
	ctx.clock.Reset()
	ctx.stopwatch.Reset()
	ctx.vehicleManager.Reset()
	if err := ctx.vehicleManager.Update(client.Vehicle(), ctx.clock.T); err != nil {
		_ = client.Close()
		ctx.vehicleManager.Reset()
		return fmt.Errorf("initial vehicle sync: %w", err)
	}
	if err := ctx.signalManager.Init(client.TrafficLight(), ctx.networkManager); err != nil {
		_ = client.Close()
		ctx.vehicleManager.Reset()
		ctx.signalManager.Reset()
		return fmt.Errorf("initial signal sync: %w", err)
	}
	ctx.client = client
	ctx.collector.Connected.Set(1)
	ctx.collector.Signals.Set(float64(ctx.signalManager.Count()))
	return nil
}

// start 进入Running状态
// 说明：未连接时先建立连接并完成初始同步，连接失败则保持Idle
func (ctx *Context) start() error {
	if ctx.running {
		return fmt.Errorf("simulation already running")
	}
	if ctx.client == nil {
		if err := ctx.connect(); err != nil {
			ctx.setStatus("start failed: %v", err)
			return err
		}
	}
	ctx.running = true
	ctx.stopwatch.Start()
	ctx.setStatus("simulation running")
	ctx.publishFrame()
	return nil
}

// stop 转入Idle状态
func (ctx *Context) stop() error {
	if !ctx.running && ctx.client == nil {
		return nil
	}
	ctx.stopSimulation("simulation stopped")
	return nil
}

// stepOnce 执行单步
// 说明：完整执行一次推进-同步-重绘迭代，但不进入Running；
// 未连接时先建立连接并完成初始同步
func (ctx *Context) stepOnce() error {
	if ctx.running {
		return fmt.Errorf("simulation already running")
	}
	if ctx.client == nil {
		if err := ctx.connect(); err != nil {
			ctx.setStatus("step failed: %v", err)
			return err
		}
		ctx.setStatus("simulator connected")
	}
	return ctx.tick()
}

// stopSimulation 转入Idle状态并释放仿真器连接
func (ctx *Context) stopSimulation(reason string) {
	if !ctx.running && ctx.client == nil {
		return
	}
	ctx.running = false
	ctx.stopwatch.Pause()
	if ctx.client != nil {
		if err := ctx.client.Close(); err != nil {
			log.Warnf("close simulator: %v", err)
		}
		ctx.client = nil
		ctx.collector.Connected.Set(0)
	}
	ctx.setStatus("%s: %d vehicles on road, %d spawned, %d arrived in %s",
		reason,
		ctx.vehicleManager.Count(),
		ctx.vehicleManager.Spawned(),
		ctx.vehicleManager.Arrived(),
		ctx.stopwatch,
	)
	ctx.publishFrame()
}

// tick 执行一次仿真迭代
// 算法说明：推进一步→车辆同步→信号灯刷新→更新指标→发布帧与记录；
// 任一环节出错即转入Idle并释放连接，错误折叠为状态栏文本，不自动重试
func (ctx *Context) tick() error {
	begin := time.Now()
	if err := ctx.syncOnce(); err != nil {
		ctx.collector.TickErrors.Inc()
		log.Errorf("tick failed at step %d: %v", ctx.clock.Step, err)
		ctx.stopSimulation(fmt.Sprintf("simulation error: %v", err))
		return err
	}
	ctx.collector.TicksTotal.Inc()
	ctx.collector.TickDuration.Observe(time.Since(begin).Seconds())
	ctx.publishFrame()
	ctx.recordTick()
	return nil
}

func (ctx *Context) syncOnce() error {
	if err := ctx.client.Step(); err != nil {
		return fmt.Errorf("advance step: %w", err)
	}
	ctx.clock.Tick()
	if err := ctx.vehicleManager.Update(ctx.client.Vehicle(), ctx.clock.T); err != nil {
		return fmt.Errorf("vehicle sync: %w", err)
	}
	if err := ctx.signalManager.Update(ctx.client.TrafficLight()); err != nil {
		return fmt.Errorf("signal sync: %w", err)
	}
	ctx.collector.Vehicles.Set(float64(ctx.vehicleManager.Count()))
	ctx.collector.Spawned.Set(float64(ctx.vehicleManager.Spawned()))
	ctx.collector.Arrived.Set(float64(ctx.vehicleManager.Arrived()))
	ctx.collector.Signals.Set(float64(ctx.signalManager.Count()))
	return nil
}

// publishFrame 生成一帧画面并交给所有帧输出端
func (ctx *Context) publishFrame() {
	ctx.seq++
	ctx.collector.FramesBuilt.Inc()
	f := ctx.renderer.Frame(ctx.seq, ctx.running, ctx.statusText(), ctx.currentSelection())
	for _, s := range ctx.frameSinks {
		s.PublishFrame(f)
	}
}

// recordTick 生成一条仿真步记录并交给所有记录输出端
func (ctx *Context) recordTick() {
	if len(ctx.tickSinks) == 0 {
		return
	}
	vehicles := ctx.vehicleManager.Vehicles()
	records := make([]VehicleRecord, 0, len(vehicles))
	for _, v := range vehicles {
		records = append(records, VehicleRecord{
			ID:     v.ID(),
			TypeID: v.TypeID(),
			X:      v.XY().X,
			Y:      v.XY().Y,
			Speed:  v.V(),
			Angle:  v.Angle(),
			RoadID: v.RoadID(),
			LaneID: v.LaneID(),
			S:      v.S(),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	rec := TickRecord{
		Step:     ctx.clock.Step,
		T:        ctx.clock.T,
		Current:  ctx.vehicleManager.Count(),
		Spawned:  ctx.vehicleManager.Spawned(),
		Arrived:  ctx.vehicleManager.Arrived(),
		Signals:  ctx.signalManager.Count(),
		Vehicles: records,
	}
	for _, s := range ctx.tickSinks {
		s.RecordTick(rec)
	}
}

// loadNetwork 加载路网文件
// 说明：解析失败时不应用任何状态；成功后重建路网、清空实体并自适应视图
func (ctx *Context) loadNetwork(path string) error {
	if ctx.running || ctx.client != nil {
		return fmt.Errorf("stop the simulation before loading files")
	}
	net, err := input.LoadNetwork(path)
	if err != nil {
		ctx.setStatus("load network failed: %v", err)
		return err
	}
	ctx.applyNetwork(net, path)
	// 单独加载的文件优先于此前的组合配置
	ctx.cfgPath = ""
	ctx.setStatus("network loaded: %d junctions, %d edges", len(net.Junctions), len(net.Edges))
	ctx.publishFrame()
	return nil
}

func (ctx *Context) applyNetwork(net *input.Network, path string) {
	ctx.networkManager.Init(net)
	ctx.vehicleManager.Reset()
	ctx.signalManager.Reset()
	ctx.renderer.InvalidateNetwork()
	ctx.selKind, ctx.selID = "", ""
	ctx.netPath = path
	if min, max, ok := ctx.networkManager.Bounds(); ok {
		ctx.view.FitBounds(min, max)
	}
}

// loadRoutes 加载路由/车型文件
func (ctx *Context) loadRoutes(path string) error {
	if ctx.running || ctx.client != nil {
		return fmt.Errorf("stop the simulation before loading files")
	}
	routes, err := input.LoadRoutes(path)
	if err != nil {
		ctx.setStatus("load routes failed: %v", err)
		return err
	}
	ctx.applyRoutes(routes, path)
	ctx.cfgPath = ""
	ctx.setStatus("routes loaded: %d vehicle types", len(routes.VehicleTypes))
	return nil
}

func (ctx *Context) applyRoutes(routes *input.Routes, path string) {
	ctx.typeIDs = routes.TypeIDs()
	ctx.vehicleManager.Init(routes.VehicleTypes)
	ctx.routePath = path
}

// loadConfig 加载组合配置文件并解析其中的路网与路由
func (ctx *Context) loadConfig(path string) error {
	if ctx.running || ctx.client != nil {
		return fmt.Errorf("stop the simulation before loading files")
	}
	sc, err := input.LoadSumoConfig(path)
	if err != nil {
		ctx.setStatus("load config failed: %v", err)
		return err
	}
	if sc.NetFile != "" {
		if err := ctx.loadNetwork(sc.NetFile); err != nil {
			return err
		}
	}
	if len(sc.RouteFiles) > 0 {
		if err := ctx.loadRoutes(sc.RouteFiles[0]); err != nil {
			return err
		}
	}
	ctx.cfgPath = path
	ctx.setStatus("config loaded: %s", path)
	return nil
}

// fit 自适应视图
// 说明：路网为空时不做任何修改
func (ctx *Context) fit() {
	if min, max, ok := ctx.networkManager.Bounds(); ok {
		ctx.view.FitBounds(min, max)
	}
	ctx.publishFrame()
}

// selectAt 点选屏幕坐标处的对象
// 算法说明：屏幕坐标换算为世界坐标后，先在15米容差内找最近的信号灯，
// 未命中再在10/zoom容差内找最近的车辆，都未命中则清除选中
func (ctx *Context) selectAt(sx, sy float64) *render.Selection {
	p := ctx.view.ScreenToWorld(sx, sy)
	if s := ctx.nearestSignal(p, signalPickTolerance); s != nil {
		ctx.selKind, ctx.selID = "signal", s.ID()
	} else if v := ctx.nearestVehicle(p, vehiclePickTolerance/ctx.view.Zoom()); v != nil {
		ctx.selKind, ctx.selID = "vehicle", v.ID()
	} else {
		ctx.selKind, ctx.selID = "", ""
	}
	sel := ctx.currentSelection()
	ctx.publishFrame()
	return sel
}

func (ctx *Context) nearestSignal(p geometry.Point, tolerance float64) entity.ISignal {
	var best entity.ISignal
	bestD := tolerance
	for _, s := range ctx.signalManager.Signals() {
		pos := s.Position()
		if d := math.Hypot(pos.X-p.X, pos.Y-p.Y); d <= bestD {
			best, bestD = s, d
		}
	}
	return best
}

func (ctx *Context) nearestVehicle(p geometry.Point, tolerance float64) entity.IVehicle {
	var best entity.IVehicle
	bestD := tolerance
	for _, v := range ctx.vehicleManager.Vehicles() {
		pos := v.XY()
		if d := math.Hypot(pos.X-p.X, pos.Y-p.Y); d <= bestD {
			best, bestD = v, d
		}
	}
	return best
}

// currentSelection 生成当前选中对象的详情
// 说明：详情每帧由本地状态重建；选中对象已不存在时退化为一条错误文本，
// 不中断循环
func (ctx *Context) currentSelection() *render.Selection {
	switch ctx.selKind {
	case "vehicle":
		v, err := ctx.vehicleManager.GetOrError(ctx.selID)
		if err != nil {
			return &render.Selection{Kind: "vehicle", ID: ctx.selID, Lines: []string{"error retrieving details"}}
		}
		alive := time.Duration((ctx.clock.T - v.SpawnedAt()) * float64(time.Second))
		return &render.Selection{Kind: "vehicle", ID: v.ID(), Lines: []string{
			fmt.Sprintf("type: %s", v.TypeID()),
			fmt.Sprintf("speed: %.2f m/s (%.1f km/h)", v.V(), v.V()*3.6),
			fmt.Sprintf("road: %s", v.RoadID()),
			fmt.Sprintf("lane: %s (s=%.1f m)", v.LaneID(), v.S()),
			fmt.Sprintf("alive: %s", clock.FormatDuration(alive)),
		}}
	case "signal":
		s, err := ctx.signalManager.GetOrError(ctx.selID)
		if err != nil {
			return &render.Selection{Kind: "signal", ID: ctx.selID, Lines: []string{"error retrieving details"}}
		}
		return &render.Selection{Kind: "signal", ID: s.ID(), Lines: []string{
			fmt.Sprintf("state: %s", s.State()),
			fmt.Sprintf("phase: %d", s.Phase()),
			fmt.Sprintf("program: %s", s.Program()),
			fmt.Sprintf("position: (%.1f, %.1f)", s.Position().X, s.Position().Y),
		}}
	}
	return nil
}

// applySettings 更新界面设置
// 说明：发车间隔仅做范围校验与记录，未接入任何发车逻辑
func (ctx *Context) applySettings(showLabels *bool, spawnInterval *int) error {
	if spawnInterval != nil && (*spawnInterval < 1 || *spawnInterval > 10) {
		return fmt.Errorf("spawn interval must be between 1 and 10")
	}
	if showLabels != nil {
		ctx.showLabels = *showLabels
		ctx.publishFrame()
	}
	if spawnInterval != nil {
		ctx.spawnInterval = *spawnInterval
	}
	return nil
}

// setSignal 将信号灯控制命令转发给仿真器
// 说明：转发成功后立即刷新全部信号灯状态，使下一帧反映生效结果
func (ctx *Context) setSignal(id string, state *string, phase *int32, program *string) error {
	if ctx.client == nil {
		return fmt.Errorf("not connected to a simulator")
	}
	if _, err := ctx.signalManager.GetOrError(id); err != nil {
		return err
	}
	api := ctx.client.TrafficLight()
	if state != nil {
		if err := api.SetState(id, *state); err != nil {
			return fmt.Errorf("set state of %s: %w", id, err)
		}
	}
	if phase != nil {
		if err := api.SetPhase(id, *phase); err != nil {
			return fmt.Errorf("set phase of %s: %w", id, err)
		}
	}
	if program != nil {
		if err := api.SetProgram(id, *program); err != nil {
			return fmt.Errorf("set program of %s: %w", id, err)
		}
	}
	if err := ctx.signalManager.Update(api); err != nil {
		return fmt.Errorf("signal refresh: %w", err)
	}
	ctx.publishFrame()
	return nil
}
