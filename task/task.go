package task

import (
	"context"
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/trafficvis-oss/clock"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/network"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/signal"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
	"github.com/tsinghua-fib-lab/trafficvis-oss/traci"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/container"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
	"github.com/tsinghua-fib-lab/trafficvis-oss/viewport"
)

// 状态消息历史条数
const statusHistorySize = 64

// Dialer 建立与外部仿真器的连接
// 参数：sim-仿真器配置，cfgPath-组合配置文件路径，netPath/routePath-输入文件路径（均可为空）
// 返回：就绪的远程控制客户端
type Dialer func(sim config.Simulator, cfgPath, netPath, routePath string) (entity.ISimClient, error)

// StatusEntry 一条状态消息
type StatusEntry struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Context 可视化任务上下文
// 功能：包含一次可视化会话的所有变量和状态，替代原来的全局变量
// 说明：管理系统的所有组件，包括时钟、视口、管理器、渲染器与仿真器连接；
// 所有可变状态只在Run所在的控制循环协程上读写，外部通过命令投递访问
type Context struct {
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 运行指标
	collector *metrics.Collector

	// 模拟时钟
	clock *clock.Clock
	// 墙上时钟计时器
	stopwatch *clock.Stopwatch
	// 视口变换
	view *viewport.Viewport

	// 路网管理器
	networkManager entity.INetworkManager
	// 车辆管理器
	vehicleManager entity.IVehicleManager
	// 信号灯管理器
	signalManager entity.ISignalManager

	// 帧生成器
	renderer *render.Renderer

	// 连接建立方式，可在Run之前替换
	dial Dialer
	// 仿真器连接，Idle且未连接时为nil，由控制循环独占持有
	client entity.ISimClient
	// 是否处于Running状态
	running bool

	// 当前加载的输入文件路径
	cfgPath   string
	netPath   string
	routePath string
	// 路由文件声明的车型ID列表
	typeIDs []string

	// 是否绘制ID标注
	showLabels bool
	// 发车间隔控制值，仅记录，尚无消费方
	spawnInterval int

	// 当前选中对象
	selKind string
	selID   string

	// 帧序号
	seq uint64
	// 状态消息历史
	status *container.Ring[StatusEntry]

	// 输出端
	frameSinks []FrameSink
	tickSinks  []TickSink

	// 命令队列
	commands chan command
	// 控制循环退出后关闭
	stopped chan struct{}
}

// NewContext 创建新的可视化任务上下文
// 功能：初始化系统的所有组件和配置
// 参数：
//   - c: 配置对象
//   - collector: 运行指标集合
//
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 补全配置默认值并创建时钟、计时器与视口
// 2. 创建各管理器与帧生成器
// 3. 按配置加载启动输入（路网、路由），加载成功后自适应视图
// 4. 状态初始化为Idle，连接在首次start或step时建立
func NewContext(c config.Config, collector *metrics.Collector) *Context {
	ctx := &Context{
		collector: collector,
		dial:      defaultDial,
		status:    container.NewRing[StatusEntry](statusHistorySize),
		commands:  make(chan command, commandQueueCap),
		stopped:   make(chan struct{}),
	}
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	rc := ctx.runtimeConfig

	ctx.clock = clock.New(rc.Sim.StepLength)
	ctx.stopwatch = &clock.Stopwatch{}
	ctx.view = viewport.New(rc.All.Canvas.Width, rc.All.Canvas.Height)

	ctx.networkManager = network.NewManager(ctx)
	ctx.vehicleManager = vehicle.NewManager(ctx)
	ctx.signalManager = signal.NewManager(ctx)
	ctx.renderer = render.New(ctx)

	ctx.showLabels = rc.C.ShowLabels
	ctx.spawnInterval = rc.C.SpawnInterval

	// 启动输入
	ctx.cfgPath = rc.All.Input.SumoConfig
	in := input.Init(rc.All)
	if in.Net != nil {
		ctx.applyNetwork(in.Net, in.NetPath)
	}
	if in.Routes != nil {
		ctx.applyRoutes(in.Routes, in.RoutePath)
	}
	ctx.setStatus("ready")

	return ctx
}

// SetDialer 替换连接建立方式
// 说明：须在Run之前调用，用于连接已运行实例之外的特殊部署或测试替身
func (ctx *Context) SetDialer(d Dialer) {
	ctx.dial = d
}

// AddFrameSink 登记画面帧输出端
// 说明：须在Run之前调用
func (ctx *Context) AddFrameSink(s FrameSink) {
	ctx.frameSinks = append(ctx.frameSinks, s)
}

// AddTickSink 登记仿真步记录输出端
// 说明：须在Run之前调用
func (ctx *Context) AddTickSink(s TickSink) {
	ctx.tickSinks = append(ctx.tickSinks, s)
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Stopwatch() *clock.Stopwatch {
	return ctx.stopwatch
}

func (ctx *Context) View() *viewport.Viewport {
	return ctx.view
}

func (ctx *Context) NetworkManager() entity.INetworkManager {
	return ctx.networkManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) SignalManager() entity.ISignalManager {
	return ctx.signalManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) ShowLabels() bool {
	return ctx.showLabels
}

// simClient 将traci.Client适配到entity.ISimClient
type simClient struct {
	c *traci.Client
}

func (s simClient) Step() error                        { return s.c.Step() }
func (s simClient) SetOrder(order int32) error         { return s.c.SetOrder(order) }
func (s simClient) Close() error                       { return s.c.Close() }
func (s simClient) Vehicle() entity.ISimVehicleAPI     { return s.c.Vehicle() }
func (s simClient) TrafficLight() entity.ISimSignalAPI { return s.c.TrafficLight() }

// defaultDial 默认的连接建立方式
// 算法说明：配置了address则直接连接已运行的实例；
// 否则按当前输入文件启动仿真器子进程，再按重试参数连接其远程控制端口
func defaultDial(sim config.Simulator, cfgPath, netPath, routePath string) (entity.ISimClient, error) {
	opt := traci.DialOptions{
		Retries:       sim.ConnectRetries,
		RetryInterval: time.Duration(sim.RetryIntervalMS) * time.Millisecond,
		IOTimeout:     time.Duration(sim.IOTimeoutMS) * time.Millisecond,
	}
	if sim.Address != "" {
		c, err := traci.Connect(context.Background(), sim.Address, opt)
		if err != nil {
			return nil, err
		}
		return simClient{c: c}, nil
	}

	var routes []string
	if routePath != "" {
		routes = []string{routePath}
	}
	proc, addr, err := traci.Launch(traci.LaunchOptions{
		Binary:       sim.Binary,
		ConfigFile:   cfgPath,
		NetFile:      netPath,
		RouteFiles:   routes,
		Port:         sim.Port,
		StepLength:   sim.StepLength,
		LogFile:      sim.LogFile,
		Warnings:     sim.Warnings,
		StrictRoutes: sim.StrictRoutes,
	})
	if err != nil {
		return nil, err
	}
	c, err := traci.Connect(context.Background(), addr, opt)
	if err != nil {
		if stopErr := proc.Stop(3 * time.Second); stopErr != nil {
			log.Warnf("stop simulator after failed connect: %v", stopErr)
		}
		return nil, err
	}
	c.AdoptProcess(proc)
	return simClient{c: c}, nil
}

// setStatus 追加一条状态消息
func (ctx *Context) setStatus(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	ctx.status.Push(StatusEntry{At: time.Now(), Text: text})
	log.Info(text)
}

// statusText 最近一条状态消息
func (ctx *Context) statusText() string {
	if e, ok := ctx.status.Last(); ok {
		return e.Text
	}
	return ""
}
