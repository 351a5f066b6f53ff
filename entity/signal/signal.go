package signal

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
)

// Signal 信号灯实体
// 功能：表示一组路口信号灯，保存最近一次同步的相位状态
// 说明：信号灯与路口按ID一一对应，位置取所在路口的坐标
type Signal struct {
	id       string
	junction entity.IJunction

	state   string
	phase   int32
	program string
}

func newSignal(id string, junction entity.IJunction) *Signal {
	return &Signal{id: id, junction: junction}
}

// refresh 写入最近一次同步的相位状态
func (s *Signal) refresh(state string, phase int32, program string) {
	s.state = state
	s.phase = phase
	s.program = program
}

func (s *Signal) String() string {
	return fmt.Sprintf("Signal %s", s.id)
}

// 获取信号灯ID
func (s *Signal) ID() string {
	return s.id
}

// 获取信号灯所在的Junction
func (s *Signal) Junction() entity.IJunction {
	return s.junction
}

// 获取信号灯坐标（即所在Junction坐标）
func (s *Signal) Position() geometry.Point {
	return s.junction.Position()
}

// 获取当前相位状态串
func (s *Signal) State() string {
	return s.state
}

// 获取当前相位序号
func (s *Signal) Phase() int32 {
	return s.phase
}

// 获取当前控制程序ID
func (s *Signal) Program() string {
	return s.program
}
