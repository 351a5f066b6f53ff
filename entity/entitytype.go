package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
)

// entity/network/junction.go的依赖倒置
type IJunction interface {
	String() string

	ID() string               // 获取Junction ID
	Position() geometry.Point // 获取Junction坐标
	Incoming() []IRoad        // 获取进入本Junction的道路
	Outgoing() []IRoad        // 获取离开本Junction的道路
	Signal() ISignal          // 获取关联的信号灯，无信号灯时为nil

	SetSignalWhenInit(s ISignal) // 初始化时关联信号灯
	AddIncomingWhenInit(r IRoad) // 初始化时登记进入道路
	AddOutgoingWhenInit(r IRoad) // 初始化时登记离开道路
}

// entity/network/road.go的依赖倒置
type IRoad interface {
	String() string

	ID() string         // 获取Road ID
	From() IJunction    // 获取起点Junction，路口内道路为nil
	To() IJunction      // 获取终点Junction，路口内道路为nil
	IsInternal() bool   // 检查是否为路口内道路
	Lanes() []ILane     // 获取Road的所有Lane，按车道序号排列
	Length() float64    // 获取Road长度（最长车道的长度）
	IsEntry() bool      // 检查是否为路网入口道路
	IsExit() bool       // 检查是否为路网出口道路
	MarkEntryWhenInit() // 初始化时标记为入口道路
	MarkExitWhenInit()  // 初始化时标记为出口道路
}

// entity/network/lane.go的依赖倒置
type ILane interface {
	String() string

	ID() string                              // 获取Lane ID
	Index() int                              // 获取Lane在Road中的序号
	MaxV() float64                           // 获取车道限速
	Length() float64                         // 获取Lane长度
	Width() float64                          // 获取Lane宽度
	CenterLine() []geometry.Point            // 获取Lane的中心线
	GetPositionByS(s float64) geometry.Point // 将车道s坐标转换为xy坐标
	ParentRoad() IRoad                       // 获取Lane所在的Road

	SetParentRoadWhenInit(parent IRoad) // 初始化时设置所在Road
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	String() string

	ID() string         // 获取车辆ID
	XY() geometry.Point // 获取车辆位置坐标
	V() float64         // 获取车辆速度（m/s）
	Angle() float64     // 获取车辆朝向角（度，东为0逆时针）
	RoadID() string     // 获取车辆所在道路ID
	LaneID() string     // 获取车辆所在车道ID
	S() float64         // 获取车辆沿车道里程
	TypeID() string     // 获取车辆类型ID
	Length() float64    // 获取车长（米），由车型解析
	Color() string      // 获取车辆显示颜色（十六进制）
	SpawnedAt() float64 // 获取车辆进入路网的仿真时刻
}

// entity/signal/signal.go的依赖倒置
type ISignal interface {
	String() string

	ID() string               // 获取信号灯ID
	Junction() IJunction      // 获取信号灯所在的Junction
	Position() geometry.Point // 获取信号灯坐标（即所在Junction坐标）
	State() string            // 获取当前相位状态串
	Phase() int32             // 获取当前相位序号
	Program() string          // 获取当前控制程序ID
}
