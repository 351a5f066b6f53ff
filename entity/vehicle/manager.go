package vehicle

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

// VehicleManager 车辆管理器
// 功能：以仿真器为准维护在网车辆集合，按帧同步运动状态并维护进出统计
type VehicleManager struct {
	ctx entity.ITaskContext

	data  map[string]*Vehicle
	iface map[string]entity.IVehicle
	types map[string]input.VehicleType

	spawned int64
	arrived int64
}

// NewManager 创建车辆管理器实例
// 功能：初始化车辆管理器，创建内部数据结构
// 参数：ctx-任务上下文
// 返回：新创建的车辆管理器实例
func NewManager(ctx entity.ITaskContext) *VehicleManager {
	return &VehicleManager{
		ctx:   ctx,
		data:  make(map[string]*Vehicle),
		iface: make(map[string]entity.IVehicle),
		types: make(map[string]input.VehicleType),
	}
}

// Init 初始化车辆类型表
// 功能：登记路由文件声明的车型，创建车辆时据此解析车长
// 参数：types-车型列表
func (m *VehicleManager) Init(types []input.VehicleType) {
	m.types = lo.SliceToMap(types, func(t input.VehicleType) (string, input.VehicleType) {
		return t.ID, t
	})
}

// Get 根据ID获取车辆实例
// 功能：通过车辆ID查找对应的对象，如果不存在则panic
func (m *VehicleManager) Get(id string) entity.IVehicle {
	if v, ok := m.data[id]; !ok {
		log.Panicf("no id %s in vehicle data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取车辆实例（带错误处理）
func (m *VehicleManager) GetOrError(id string) (entity.IVehicle, error) {
	if v, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in vehicle data", id)
	} else {
		return v, nil
	}
}

// Update 从仿真器同步一帧车辆状态
// 功能：查询在网车辆ID列表，移除已离开的车辆，逐车刷新运动状态
// 参数：api-仿真器车辆查询接口，t-当前仿真时刻
// 算法说明：
// 1. 以ID列表为准：列表外的本地车辆视为已到达并移除
// 2. 新出现的ID创建车辆，颜色、车型、进入时刻在创建时确定
// 3. 已存在的ID刷新位置、速度、道路、车道、里程，朝向角由位移推算
// 说明：任一查询失败立即中止本帧同步并返回错误
func (m *VehicleManager) Update(api entity.ISimVehicleAPI, t float64) error {
	ids, err := api.IDList()
	if err != nil {
		return fmt.Errorf("list vehicles: %w", err)
	}
	alive := lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
	for id := range m.data {
		if _, ok := alive[id]; !ok {
			delete(m.data, id)
			delete(m.iface, id)
			m.arrived++
		}
	}

	for _, id := range ids {
		x, y, err := api.Position(id)
		if err != nil {
			return fmt.Errorf("vehicle %s position: %w", id, err)
		}
		speed, err := api.Speed(id)
		if err != nil {
			return fmt.Errorf("vehicle %s speed: %w", id, err)
		}
		roadID, err := api.RoadID(id)
		if err != nil {
			return fmt.Errorf("vehicle %s road: %w", id, err)
		}
		laneID, err := api.LaneID(id)
		if err != nil {
			return fmt.Errorf("vehicle %s lane: %w", id, err)
		}
		s, err := api.LanePosition(id)
		if err != nil {
			return fmt.Errorf("vehicle %s lane position: %w", id, err)
		}
		pos := geometry.Point{X: x, Y: y}

		if v, ok := m.data[id]; ok {
			v.move(pos, speed, roadID, laneID, s)
			continue
		}
		typeID, err := api.TypeID(id)
		if err != nil {
			return fmt.Errorf("vehicle %s type: %w", id, err)
		}
		v := newVehicle(id, typeID, m.types[typeID].Length, t)
		v.place(pos, speed, roadID, laneID, s)
		m.data[id] = v
		m.iface[id] = v
		m.spawned++
	}
	return nil
}

// 获取所有在网车辆（ID -> Vehicle）
func (m *VehicleManager) Vehicles() map[string]entity.IVehicle {
	return m.iface
}

// 统计在网车辆数
func (m *VehicleManager) Count() int {
	return len(m.data)
}

// 累计进入路网的车辆数
func (m *VehicleManager) Spawned() int64 {
	return m.spawned
}

// 累计到达并离开路网的车辆数
func (m *VehicleManager) Arrived() int64 {
	return m.arrived
}

// Reset 清空车辆与统计
func (m *VehicleManager) Reset() {
	m.data = make(map[string]*Vehicle)
	m.iface = make(map[string]entity.IVehicle)
	m.spawned = 0
	m.arrived = 0
}
