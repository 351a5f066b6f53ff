package vehicle

import (
	"fmt"
	"hash/fnv"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/randengine"
)

// 车长未知时的默认车长（米）
const defaultLength = 4.5

// 位移小于该阈值时不更新朝向角，过滤停车时的坐标抖动
const headingEpsilon = 0.01

// 车辆显示颜色池，按车辆ID哈希固定取色
var palette = [...]string{
	"#e6194b",
	"#3cb44b",
	"#4363d8",
	"#f58231",
	"#911eb4",
	"#42d4f4",
	"#f032e6",
	"#9a6324",
}

// pickColor 根据车辆ID选择显示颜色
// 说明：以ID哈希为种子随机取色一次，同一ID总是得到同一颜色，与加入顺序无关
func pickColor(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return randengine.Choice(randengine.New(h.Sum64()), palette[:])
}

// Vehicle 车辆实体
// 功能：保存单辆车的最近一次同步状态与创建时确定的展示属性
type Vehicle struct {
	id        string
	typeID    string
	length    float64
	color     string
	spawnedAt float64

	xy     geometry.Point
	v      float64
	angle  float64
	roadID string
	laneID string
	s      float64
}

// newVehicle 创建车辆并记录首帧快照
// 功能：车辆首次出现时创建对象，颜色、车型与进入时刻此后不再变化
// 参数：id-车辆ID，typeID-车型ID，length-车长，t-当前仿真时刻
func newVehicle(id, typeID string, length, t float64) *Vehicle {
	if length <= 0 {
		length = defaultLength
	}
	return &Vehicle{
		id:        id,
		typeID:    typeID,
		length:    length,
		color:     pickColor(id),
		spawnedAt: t,
	}
}

// place 写入首帧快照，朝向角保持初始值
func (v *Vehicle) place(pos geometry.Point, speed float64, roadID, laneID string, s float64) {
	v.xy = pos
	v.v = speed
	v.roadID = roadID
	v.laneID = laneID
	v.s = s
}

// move 写入后续帧快照
// 算法说明：朝向角由相邻两帧位移计算，位移过小时保持上一帧朝向
func (v *Vehicle) move(pos geometry.Point, speed float64, roadID, laneID string, s float64) {
	dx := pos.X - v.xy.X
	dy := pos.Y - v.xy.Y
	if mathutil.Abs(dx) > headingEpsilon || mathutil.Abs(dy) > headingEpsilon {
		v.angle = math.Atan2(dy, dx) * 180 / math.Pi
	}
	v.place(pos, speed, roadID, laneID, s)
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle %s", v.id)
}

// 获取车辆ID
func (v *Vehicle) ID() string {
	return v.id
}

// 获取车辆位置坐标
func (v *Vehicle) XY() geometry.Point {
	return v.xy
}

// 获取车辆速度（m/s）
func (v *Vehicle) V() float64 {
	return v.v
}

// 获取车辆朝向角（度，东为0逆时针）
func (v *Vehicle) Angle() float64 {
	return v.angle
}

// 获取车辆所在道路ID
func (v *Vehicle) RoadID() string {
	return v.roadID
}

// 获取车辆所在车道ID
func (v *Vehicle) LaneID() string {
	return v.laneID
}

// 获取车辆沿车道里程
func (v *Vehicle) S() float64 {
	return v.s
}

// 获取车辆类型ID
func (v *Vehicle) TypeID() string {
	return v.typeID
}

// 获取车长（米）
func (v *Vehicle) Length() float64 {
	return v.length
}

// 获取车辆显示颜色（十六进制）
func (v *Vehicle) Color() string {
	return v.color
}

// 获取车辆进入路网的仿真时刻
func (v *Vehicle) SpawnedAt() float64 {
	return v.spawnedAt
}
