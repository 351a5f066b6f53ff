package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

// Manager依赖倒置

// entity/network/manager.go的依赖倒置
type INetworkManager interface {
	Init(net *input.Network) // 初始化

	// 输入Junction ID，查找Junction，如果不存在则panic
	GetJunction(id string) IJunction
	// 输入Junction ID，查找Junction，如果不存在则返回error
	GetJunctionOrError(id string) (IJunction, error)
	// 输入Road ID，查找Road，如果不存在则返回error
	GetRoadOrError(id string) (IRoad, error)
	// 输入Lane ID，查找Lane，如果不存在则返回error
	GetLaneOrError(id string) (ILane, error)

	Junctions() map[string]IJunction // 获取所有Junction（ID -> Junction）
	Roads() map[string]IRoad         // 获取所有Road（ID -> Road）
	Lanes() map[string]ILane         // 获取所有Lane（ID -> Lane）
	EntryRoads() []IRoad             // 获取路网入口道路
	ExitRoads() []IRoad              // 获取路网出口道路

	// 获取路网包围盒，路网为空时ok为false
	Bounds() (min, max geometry.Point, ok bool)
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	Init(types []input.VehicleType) // 初始化车辆类型表

	// 输入车辆ID，查找车辆，如果不存在则panic
	Get(id string) IVehicle
	// 输入车辆ID，查找车辆，如果不存在则返回error
	GetOrError(id string) (IVehicle, error)

	// 从仿真器同步一帧车辆状态，t为当前仿真时刻
	Update(api ISimVehicleAPI, t float64) error

	Vehicles() map[string]IVehicle // 获取所有在网车辆（ID -> Vehicle）
	Count() int                    // 统计在网车辆数
	Spawned() int64                // 累计进入路网的车辆数
	Arrived() int64                // 累计到达并离开路网的车辆数

	Reset() // 清空车辆与统计
}

// entity/signal/manager.go的依赖倒置
type ISignalManager interface {
	// 初始化，按Junction ID关联信号灯与路口
	Init(api ISimSignalAPI, networkManager INetworkManager) error

	// 输入信号灯ID，查找信号灯，如果不存在则panic
	Get(id string) ISignal
	// 输入信号灯ID，查找信号灯，如果不存在则返回error
	GetOrError(id string) (ISignal, error)

	// 从仿真器刷新全部信号灯状态
	Update(api ISimSignalAPI) error

	Signals() map[string]ISignal // 获取所有信号灯（ID -> Signal）
	Count() int                  // 统计信号灯数

	Reset() // 清空信号灯
}
