package network

import (
	"fmt"
	"sort"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

// Lane 车道实体
// 功能：表示道路中的一条车道，包含中心线几何、限速、宽度等静态信息
// 说明：初始化完成后只读
type Lane struct {
	parent entity.IRoad

	id          string
	index       int
	maxV        float64
	length      float64
	width       float64
	line        []geometry.Point
	lineLengths []float64
}

// newLane 创建并初始化一个新的Lane实例
// 功能：根据路网文件数据创建Lane对象，预计算中心线累计长度
// 参数：base-车道的路网文件数据
// 返回：初始化完成的Lane实例
// 说明：长度缺失时退化为中心线几何长度
func newLane(base *input.Lane) *Lane {
	l := &Lane{
		id:     base.ID,
		index:  base.Index,
		maxV:   base.Speed,
		length: base.Length,
		width:  base.Width,
		line:   base.Shape,
	}
	if len(l.line) == 0 {
		l.line = []geometry.Point{{}}
	}
	l.lineLengths = geometry.GetPolylineLengths2D(l.line)
	if l.length <= 0 {
		l.length = l.lineLengths[len(l.lineLengths)-1]
	}
	return l
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane %s", l.id)
}

// 获取Lane ID
func (l *Lane) ID() string {
	return l.id
}

// 获取Lane在Road中的序号
func (l *Lane) Index() int {
	return l.index
}

// 获取车道限速
func (l *Lane) MaxV() float64 {
	return l.maxV
}

// 获取Lane长度
func (l *Lane) Length() float64 {
	return l.length
}

// 获取Lane宽度
func (l *Lane) Width() float64 {
	return l.width
}

// 获取Lane的中心线
func (l *Lane) CenterLine() []geometry.Point {
	return l.line
}

// 获取Lane所在的Road
func (l *Lane) ParentRoad() entity.IRoad {
	return l.parent
}

// 初始化时设置所在Road
func (l *Lane) SetParentRoadWhenInit(parent entity.IRoad) {
	l.parent = parent
}

// GetPositionByS 将车道s坐标转换为xy坐标
// 功能：沿中心线插值计算里程s对应的坐标
// 参数：s-车道里程
// 返回：对应的坐标点
// 说明：s超出范围时收缩到[0, 长度]
func (l *Lane) GetPositionByS(s float64) (pos geometry.Point) {
	if s < l.lineLengths[0] || s > l.lineLengths[len(l.lineLengths)-1] {
		log.Debugf("get position with s %v out of range{%v,%v}",
			s, l.lineLengths[0], l.lineLengths[len(l.lineLengths)-1])
		s = lo.Clamp(s, l.lineLengths[0], l.lineLengths[len(l.lineLengths)-1])
	}
	if i := sort.SearchFloat64s(l.lineLengths, s); i == 0 {
		pos = l.line[0]
	} else {
		sHigh, sLow := l.lineLengths[i], l.lineLengths[i-1]
		k := (s - sLow) / (sHigh - sLow)
		pos = geometry.Blend(l.line[i-1], l.line[i], k)
	}
	return
}
