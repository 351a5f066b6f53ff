package network

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

// Junction 路口实体
// 功能：表示路网中的一个路口节点，记录位置与进出道路
// 说明：初始化完成后只读
type Junction struct {
	id  string
	pos geometry.Point

	incoming []entity.IRoad
	outgoing []entity.IRoad
	signal   entity.ISignal
}

// newJunction 创建并初始化一个新的Junction实例
func newJunction(base *input.Junction) *Junction {
	return &Junction{
		id:  base.ID,
		pos: geometry.Point{X: base.X, Y: base.Y},
	}
}

func (j *Junction) String() string {
	return fmt.Sprintf("Junction %s", j.id)
}

// 获取Junction ID
func (j *Junction) ID() string {
	return j.id
}

// 获取Junction坐标
func (j *Junction) Position() geometry.Point {
	return j.pos
}

// 获取进入本Junction的道路
func (j *Junction) Incoming() []entity.IRoad {
	return j.incoming
}

// 获取离开本Junction的道路
func (j *Junction) Outgoing() []entity.IRoad {
	return j.outgoing
}

// 获取关联的信号灯，无信号灯时为nil
func (j *Junction) Signal() entity.ISignal {
	return j.signal
}

// 初始化时关联信号灯
func (j *Junction) SetSignalWhenInit(s entity.ISignal) {
	j.signal = s
}

// 初始化时登记进入道路
func (j *Junction) AddIncomingWhenInit(r entity.IRoad) {
	j.incoming = append(j.incoming, r)
}

// 初始化时登记离开道路
func (j *Junction) AddOutgoingWhenInit(r entity.IRoad) {
	j.outgoing = append(j.outgoing, r)
}
