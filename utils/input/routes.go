package input

import (
	"encoding/xml"
	"fmt"
	"os"
)

// VehicleType 车型声明
// 说明：仅取ID及少量物理参数用于展示，其余参数由模拟器自行消费
type VehicleType struct {
	ID       string  // 车型ID
	Accel    float64 // 最大加速度（米/秒²）
	Decel    float64 // 最大减速度（米/秒²）
	Length   float64 // 车长（米）
	MaxSpeed float64 // 最大速度（米/秒）
}

// Routes 解析后的路由文件内容
type Routes struct {
	VehicleTypes []VehicleType // 车型列表
}

// TypeIDs 返回全部车型ID
func (r *Routes) TypeIDs() []string {
	ids := make([]string, 0, len(r.VehicleTypes))
	for _, t := range r.VehicleTypes {
		ids = append(ids, t.ID)
	}
	return ids
}

type routesXML struct {
	XMLName xml.Name   `xml:"routes"`
	VTypes  []vTypeXML `xml:"vType"`
}

type vTypeXML struct {
	ID       string  `xml:"id,attr"`
	Accel    float64 `xml:"accel,attr"`
	Decel    float64 `xml:"decel,attr"`
	Length   float64 `xml:"length,attr"`
	MaxSpeed float64 `xml:"maxSpeed,attr"`
}

// LoadRoutes 从文件加载路由/车型声明
// 功能：解析.rou.xml文件中的vType元素
// 参数：path-文件路径
// 返回：路由数据与错误信息
func LoadRoutes(path string) (*Routes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes %s: %w", path, err)
	}
	return ParseRoutes(data)
}

// ParseRoutes 解析路由XML数据
func ParseRoutes(data []byte) (*Routes, error) {
	var raw routesXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse routes xml: %w", err)
	}
	r := &Routes{VehicleTypes: make([]VehicleType, 0, len(raw.VTypes))}
	for _, t := range raw.VTypes {
		r.VehicleTypes = append(r.VehicleTypes, VehicleType{
			ID:       t.ID,
			Accel:    t.Accel,
			Decel:    t.Decel,
			Length:   t.Length,
			MaxSpeed: t.MaxSpeed,
		})
	}
	return r, nil
}
