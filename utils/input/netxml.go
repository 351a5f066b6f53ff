package input

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"git.fiblab.net/general/common/v2/geometry"
)

// 未显式给出宽度时的车道默认宽度（米），与模拟器默认值一致
const defaultLaneWidth = 3.2

// InternalPrefix 内部（路口内）边的ID前缀
const InternalPrefix = ":"

// Junction 路网节点
type Junction struct {
	ID string  // 节点ID
	X  float64 // 世界坐标X（米）
	Y  float64 // 世界坐标Y（米）
}

// Lane 车道
type Lane struct {
	ID     string           // 车道ID
	Index  int              // 在所属边内的序号
	Speed  float64          // 限速（米/秒）
	Length float64          // 长度（米）
	Width  float64          // 宽度（米）
	Shape  []geometry.Point // 中心线折线
}

// Edge 有向边（道路段）
type Edge struct {
	ID       string  // 边ID
	From     string  // 起点节点ID
	To       string  // 终点节点ID
	Function string  // 功能标记（internal等）
	Lanes    []*Lane // 车道列表，按index排序
}

// IsInternal 是否为路口内部边
// 说明：内部边以":"作为ID前缀，同时带有function="internal"标记，
// 两者任一命中即视为内部边，参与绘制但不参与出入口分析
func (e *Edge) IsInternal() bool {
	return strings.HasPrefix(e.ID, InternalPrefix) || e.Function == "internal"
}

// Network 解析后的路网
// 说明：加载后不可变，重新加载时整体替换
type Network struct {
	Junctions []*Junction // 节点列表
	Edges     []*Edge     // 边列表（含内部边）
}

// 路网XML文件结构
type netXML struct {
	XMLName   xml.Name      `xml:"net"`
	Junctions []junctionXML `xml:"junction"`
	Edges     []edgeXML     `xml:"edge"`
}

type junctionXML struct {
	ID   string  `xml:"id,attr"`
	Type string  `xml:"type,attr"`
	X    float64 `xml:"x,attr"`
	Y    float64 `xml:"y,attr"`
}

type edgeXML struct {
	ID       string    `xml:"id,attr"`
	From     string    `xml:"from,attr"`
	To       string    `xml:"to,attr"`
	Function string    `xml:"function,attr"`
	Lanes    []laneXML `xml:"lane"`
}

type laneXML struct {
	ID     string  `xml:"id,attr"`
	Index  int     `xml:"index,attr"`
	Speed  float64 `xml:"speed,attr"`
	Length float64 `xml:"length,attr"`
	Width  float64 `xml:"width,attr"`
	Shape  string  `xml:"shape,attr"`
}

// LoadNetwork 从文件加载路网
// 功能：解析.net.xml路网文件
// 参数：path-文件路径
// 返回：路网数据与错误信息
// 算法说明：
// 1. 读取文件并解析XML
// 2. 过滤internal类型的节点（路口内部合成节点）
// 3. 逐边逐车道转换，解析shape折线，宽度缺省按默认值填充
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network %s: %w", path, err)
	}
	return ParseNetwork(data)
}

// ParseNetwork 解析路网XML数据
func ParseNetwork(data []byte) (*Network, error) {
	var raw netXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse network xml: %w", err)
	}

	net := &Network{}
	for _, j := range raw.Junctions {
		if j.Type == "internal" {
			continue
		}
		net.Junctions = append(net.Junctions, &Junction{ID: j.ID, X: j.X, Y: j.Y})
	}
	for _, e := range raw.Edges {
		edge := &Edge{
			ID:       e.ID,
			From:     e.From,
			To:       e.To,
			Function: e.Function,
			Lanes:    make([]*Lane, 0, len(e.Lanes)),
		}
		for _, l := range e.Lanes {
			shape, err := parseShape(l.Shape)
			if err != nil {
				return nil, fmt.Errorf("edge %s lane %s: %w", e.ID, l.ID, err)
			}
			width := l.Width
			if width <= 0 {
				width = defaultLaneWidth
			}
			edge.Lanes = append(edge.Lanes, &Lane{
				ID:     l.ID,
				Index:  l.Index,
				Speed:  l.Speed,
				Length: l.Length,
				Width:  width,
				Shape:  shape,
			})
		}
		net.Edges = append(net.Edges, edge)
	}
	return net, nil
}

// 解析shape属性，格式为空格分隔的"x,y"或"x,y,z"坐标对
func parseShape(s string) ([]geometry.Point, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	points := make([]geometry.Point, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, fmt.Errorf("bad shape point %q", f)
		}
		coords := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("bad shape coordinate %q", p)
			}
			coords[i] = v
		}
		p := geometry.Point{X: coords[0], Y: coords[1]}
		if len(coords) == 3 {
			p.Z = coords[2]
		}
		points = append(points, p)
	}
	return points, nil
}
