package network

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

// Road 道路实体
// 功能：表示路网中的一段道路，包含车道集合与两端路口的连接关系
// 说明：初始化完成后只读
type Road struct {
	id       string
	fromID   string
	toID     string
	internal bool
	lanes    []entity.ILane
	length   float64

	from entity.IJunction
	to   entity.IJunction

	entry bool
	exit  bool
}

// newRoad 创建并初始化一个新的Road实例
// 功能：根据路网文件数据创建Road对象，构建车道并建立车道到道路的反向指针
// 参数：base-道路的路网文件数据
// 返回：初始化完成的Road实例
// 说明：车道按序号从小到大排序，道路长度取最长车道的长度
func newRoad(base *input.Edge) *Road {
	r := &Road{
		id:       base.ID,
		fromID:   base.From,
		toID:     base.To,
		internal: base.IsInternal(),
	}
	lanes := lo.Map(base.Lanes, func(pb *input.Lane, _ int) *Lane {
		return newLane(pb)
	})
	sort.Slice(lanes, func(i, j int) bool { return lanes[i].index < lanes[j].index })
	for _, l := range lanes {
		l.SetParentRoadWhenInit(r)
		r.lanes = append(r.lanes, l)
		if l.length > r.length {
			r.length = l.length
		}
	}
	return r
}

// initAfterJunction 在Junction初始化后设置Road的路口连接关系
// 功能：解析from/to路口ID并在两端路口登记本道路
// 参数：m-路网管理器
// 说明：路口内道路不参与路口连接关系
func (r *Road) initAfterJunction(m *NetworkManager) {
	if r.internal {
		return
	}
	if j, ok := m.junctions[r.fromID]; ok {
		r.from = j
		j.AddOutgoingWhenInit(r)
	}
	if j, ok := m.junctions[r.toID]; ok {
		r.to = j
		j.AddIncomingWhenInit(r)
	}
}

func (r *Road) String() string {
	return fmt.Sprintf("Road %s", r.id)
}

// 获取Road ID
func (r *Road) ID() string {
	return r.id
}

// 获取起点Junction，路口内道路为nil
func (r *Road) From() entity.IJunction {
	return r.from
}

// 获取终点Junction，路口内道路为nil
func (r *Road) To() entity.IJunction {
	return r.to
}

// 检查是否为路口内道路
func (r *Road) IsInternal() bool {
	return r.internal
}

// 获取Road的所有Lane，按车道序号排列
func (r *Road) Lanes() []entity.ILane {
	return r.lanes
}

// 获取Road长度（最长车道的长度）
func (r *Road) Length() float64 {
	return r.length
}

// 检查是否为路网入口道路
func (r *Road) IsEntry() bool {
	return r.entry
}

// 检查是否为路网出口道路
func (r *Road) IsExit() bool {
	return r.exit
}

// 初始化时标记为入口道路
func (r *Road) MarkEntryWhenInit() {
	r.entry = true
}

// 初始化时标记为出口道路
func (r *Road) MarkExitWhenInit() {
	r.exit = true
}
