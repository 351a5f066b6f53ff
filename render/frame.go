package render

// 画面帧的JSON结构，屏幕坐标已完成世界坐标到画布像素的变换，
// 前端按图层顺序原样绘制即可

// Frame 一帧画面
type Frame struct {
	Seq       uint64        `json:"seq"`
	SimTime   float64       `json:"simTime"`
	Clock     string        `json:"clock"`
	Wall      string        `json:"wall"`
	Running   bool          `json:"running"`
	Status    string        `json:"status"`
	Stats     Stats         `json:"stats"`
	Viewport  ViewportState `json:"viewport"`
	Layers    Layers        `json:"layers"`
	Selection *Selection    `json:"selection,omitempty"`
}

// Stats 状态栏统计数字
type Stats struct {
	Current int   `json:"current"` // 在网车辆数
	Spawned int64 `json:"spawned"` // 累计进入
	Arrived int64 `json:"arrived"` // 累计到达
	Signals int   `json:"signals"` // 信号灯数
}

// ViewportState 当前视图参数
type ViewportState struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Layers 按绘制顺序排列的图层
type Layers struct {
	Roads    []Polyline `json:"roads"`
	Markings []Polyline `json:"markings"`
	Nodes    []Circle   `json:"nodes"`
	Vehicles []Quad     `json:"vehicles"`
	Signals  []Circle   `json:"signals"`
	Labels   []Label    `json:"labels"`
}

// Polyline 折线，点序列为扁平化屏幕坐标[x0,y0,x1,y1,...]
type Polyline struct {
	Points []float64 `json:"points"`
	Width  float64   `json:"width"`
	Color  string    `json:"color"`
	Dash   []float64 `json:"dash,omitempty"`
}

// Circle 圆点
type Circle struct {
	ID    string  `json:"id,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Color string  `json:"color"`
}

// Quad 任意四边形，顶点为扁平化屏幕坐标，用于绘制带朝向的车辆矩形
type Quad struct {
	ID     string     `json:"id"`
	Points [8]float64 `json:"points"`
	Color  string     `json:"color"`
}

// Label 文本标注
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
	Size float64 `json:"size"`
}

// Selection 当前选中对象的详情
type Selection struct {
	Kind  string   `json:"kind"` // vehicle或signal
	ID    string   `json:"id"`
	Lines []string `json:"lines"` // 详情面板逐行文本
}
