package entity

import (
	"github.com/tsinghua-fib-lab/trafficvis-oss/clock"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
	"github.com/tsinghua-fib-lab/trafficvis-oss/viewport"
)

// 仿真器车辆查询接口
type ISimVehicleAPI interface {
	IDList() ([]string, error)                    // 在网车辆ID列表
	Position(id string) (x, y float64, err error) // 车辆位置
	Speed(id string) (float64, error)             // 车辆速度
	RoadID(id string) (string, error)             // 车辆所在道路
	LaneID(id string) (string, error)             // 车辆所在车道
	LanePosition(id string) (float64, error)      // 车辆沿车道里程
	TypeID(id string) (string, error)             // 车辆类型
}

// 仿真器信号灯查询与控制接口
type ISimSignalAPI interface {
	IDList() ([]string, error)             // 信号灯ID列表
	State(id string) (string, error)       // 相位状态串
	Phase(id string) (int32, error)        // 相位序号
	Program(id string) (string, error)     // 控制程序ID
	SetState(id, state string) error       // 覆写相位状态串
	SetPhase(id string, phase int32) error // 切换相位
	SetProgram(id, program string) error   // 切换控制程序
}

// 仿真器远程控制接口
type ISimClient interface {
	Step() error                 // 推进一个仿真步
	SetOrder(order int32) error  // 设置多客户端执行序号
	Close() error                // 断开连接并回收仿真器
	Vehicle() ISimVehicleAPI     // 车辆查询接口
	TrafficLight() ISimSignalAPI // 信号灯查询与控制接口
}

type ITaskContext interface {
	Clock() *clock.Clock
	Stopwatch() *clock.Stopwatch
	View() *viewport.Viewport
	NetworkManager() INetworkManager
	VehicleManager() IVehicleManager
	SignalManager() ISignalManager
	RuntimeConfig() *config.RuntimeConfig
	ShowLabels() bool // 是否绘制ID标注
}
