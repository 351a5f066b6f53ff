package network

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

// NetworkManager 路网管理器
// 功能：管理所有Junction、Road、Lane实体，提供创建、查找、出入口分类、包围盒等功能
type NetworkManager struct {
	ctx entity.ITaskContext

	junctions map[string]*Junction
	roads     map[string]*Road
	lanes     map[string]*Lane

	ifaceJunctions map[string]entity.IJunction
	ifaceRoads     map[string]entity.IRoad
	ifaceLanes     map[string]entity.ILane

	entryRoads []entity.IRoad
	exitRoads  []entity.IRoad
}

// NewManager 创建路网管理器实例
// 功能：初始化路网管理器，创建内部数据结构
// 参数：ctx-任务上下文
// 返回：新创建的路网管理器实例
func NewManager(ctx entity.ITaskContext) *NetworkManager {
	m := &NetworkManager{ctx: ctx}
	m.reset()
	return m
}

func (m *NetworkManager) reset() {
	m.junctions = make(map[string]*Junction)
	m.roads = make(map[string]*Road)
	m.lanes = make(map[string]*Lane)
	m.ifaceJunctions = make(map[string]entity.IJunction)
	m.ifaceRoads = make(map[string]entity.IRoad)
	m.ifaceLanes = make(map[string]entity.ILane)
	m.entryRoads = nil
	m.exitRoads = nil
}

// Init 初始化路网
// 功能：根据路网文件数据构建所有实体，建立道路与路口的连接关系并完成出入口分类
// 参数：net-解析后的路网文件数据
// 说明：使用并行处理提高初始化效率，net为nil时清空路网
func (m *NetworkManager) Init(net *input.Network) {
	m.reset()
	if net == nil {
		return
	}

	junctions := parallel.GoMap(net.Junctions, func(pb *input.Junction) *Junction {
		return newJunction(pb)
	})
	m.junctions = lo.SliceToMap(junctions, func(j *Junction) (string, *Junction) {
		return j.id, j
	})

	roads := parallel.GoMap(net.Edges, func(pb *input.Edge) *Road {
		return newRoad(pb)
	})
	m.roads = lo.SliceToMap(roads, func(r *Road) (string, *Road) {
		return r.id, r
	})
	for _, r := range roads {
		r.initAfterJunction(m)
		for _, l := range r.lanes {
			m.lanes[l.ID()] = l.(*Lane)
		}
	}
	m.classify(roads)

	for id, j := range m.junctions {
		m.ifaceJunctions[id] = j
	}
	for id, r := range m.roads {
		m.ifaceRoads[id] = r
	}
	for id, l := range m.lanes {
		m.ifaceLanes[id] = l
	}
	log.Infof("network loaded: %d junctions, %d roads, %d lanes, %d entries, %d exits",
		len(m.junctions), len(m.roads), len(m.lanes), len(m.entryRoads), len(m.exitRoads))
}

// classify 出入口分类
// 功能：识别路网边界上的入口道路与出口道路
// 算法说明：
// 1. 起点路口缺失或进入道路不超过1条的道路视为入口
// 2. 终点路口缺失或离开道路不超过1条的道路视为出口
// 3. 任一侧为空时回退为全部非路口内道路
func (m *NetworkManager) classify(roads []*Road) {
	external := lo.Filter(roads, func(r *Road, _ int) bool { return !r.internal })
	for _, r := range external {
		if r.from == nil || len(r.from.Incoming()) <= 1 {
			r.MarkEntryWhenInit()
			m.entryRoads = append(m.entryRoads, r)
		}
		if r.to == nil || len(r.to.Outgoing()) <= 1 {
			r.MarkExitWhenInit()
			m.exitRoads = append(m.exitRoads, r)
		}
	}
	if len(m.entryRoads) == 0 {
		for _, r := range external {
			r.MarkEntryWhenInit()
			m.entryRoads = append(m.entryRoads, r)
		}
	}
	if len(m.exitRoads) == 0 {
		for _, r := range external {
			r.MarkExitWhenInit()
			m.exitRoads = append(m.exitRoads, r)
		}
	}
}

// GetJunction 根据ID获取Junction实例
// 功能：通过Junction ID查找对应的对象，如果不存在则panic
func (m *NetworkManager) GetJunction(id string) entity.IJunction {
	if j, ok := m.junctions[id]; !ok {
		log.Panicf("no id %s in junction data", id)
		return nil
	} else {
		return j
	}
}

// GetJunctionOrError 根据ID获取Junction实例（带错误处理）
func (m *NetworkManager) GetJunctionOrError(id string) (entity.IJunction, error) {
	if j, ok := m.junctions[id]; !ok {
		return nil, fmt.Errorf("no id %s in junction data", id)
	} else {
		return j, nil
	}
}

// GetRoadOrError 根据ID获取Road实例（带错误处理）
func (m *NetworkManager) GetRoadOrError(id string) (entity.IRoad, error) {
	if r, ok := m.roads[id]; !ok {
		return nil, fmt.Errorf("no id %s in road data", id)
	} else {
		return r, nil
	}
}

// GetLaneOrError 根据ID获取Lane实例（带错误处理）
func (m *NetworkManager) GetLaneOrError(id string) (entity.ILane, error) {
	if l, ok := m.lanes[id]; !ok {
		return nil, fmt.Errorf("no id %s in lane data", id)
	} else {
		return l, nil
	}
}

// 获取所有Junction（ID -> Junction）
func (m *NetworkManager) Junctions() map[string]entity.IJunction {
	return m.ifaceJunctions
}

// 获取所有Road（ID -> Road）
func (m *NetworkManager) Roads() map[string]entity.IRoad {
	return m.ifaceRoads
}

// 获取所有Lane（ID -> Lane）
func (m *NetworkManager) Lanes() map[string]entity.ILane {
	return m.ifaceLanes
}

// 获取路网入口道路
func (m *NetworkManager) EntryRoads() []entity.IRoad {
	return m.entryRoads
}

// 获取路网出口道路
func (m *NetworkManager) ExitRoads() []entity.IRoad {
	return m.exitRoads
}

// Bounds 获取路网包围盒
// 功能：计算所有Junction坐标的最小包围盒
// 返回：包围盒对角点，路网为空时ok为false
func (m *NetworkManager) Bounds() (min, max geometry.Point, ok bool) {
	if len(m.junctions) == 0 {
		return geometry.Point{}, geometry.Point{}, false
	}
	min = geometry.Point{X: mathutil.INF, Y: mathutil.INF}
	max = geometry.Point{X: -mathutil.INF, Y: -mathutil.INF}
	for _, j := range m.junctions {
		if j.pos.X < min.X {
			min.X = j.pos.X
		}
		if j.pos.Y < min.Y {
			min.Y = j.pos.Y
		}
		if j.pos.X > max.X {
			max.X = j.pos.X
		}
		if j.pos.Y > max.Y {
			max.Y = j.pos.Y
		}
	}
	return min, max, true
}
