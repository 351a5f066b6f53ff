package task

import (
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
)

// FrameSink 画面帧输出端
// 功能：接收每次重绘产生的画面帧
// 说明：在控制循环协程上同步调用，帧对象发布后不再修改，实现方可直接持有；
// 实现方不得长时间阻塞，慢速消费者应自行排队或丢弃
type FrameSink interface {
	PublishFrame(f *render.Frame)
}

// TickSink 仿真步记录输出端
// 功能：接收每个成功仿真步之后的状态记录
// 说明：调用约定与FrameSink相同
type TickSink interface {
	RecordTick(rec TickRecord)
}

// VehicleRecord 单辆车的运动快照
type VehicleRecord struct {
	ID     string  `json:"id" bson:"id"`
	TypeID string  `json:"typeId" bson:"type_id"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Speed  float64 `json:"speed" bson:"speed"`
	Angle  float64 `json:"angle" bson:"angle"`
	RoadID string  `json:"roadId" bson:"road_id"`
	LaneID string  `json:"laneId" bson:"lane_id"`
	S      float64 `json:"s" bson:"s"`
}

// TickRecord 单个仿真步完成后的状态记录
type TickRecord struct {
	Step    int64   `json:"step"`
	T       float64 `json:"t"`
	Current int     `json:"current"`
	Spawned int64   `json:"spawned"`
	Arrived int64   `json:"arrived"`
	Signals int     `json:"signals"`

	// 车辆快照，按ID排序
	Vehicles []VehicleRecord `json:"vehicles"`
}
