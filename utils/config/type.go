package config

// Simulator 外部模拟器的启动与连接配置
// 功能：描述如何启动（或连接）SUMO兼容模拟器进程及其远程控制端口
// 说明：binary与address二选一：address非空时连接已运行的实例，否则由本程序启动子进程
type Simulator struct {
	Binary          string  `yaml:"binary"`                      // 模拟器可执行文件路径（可被环境变量SUMO_BINARY覆盖）
	Address         string  `yaml:"address,omitempty"`           // 已运行实例的地址（为空则启动子进程）
	Port            int     `yaml:"port,omitempty"`              // 远程控制端口，0表示自动选择空闲端口
	StepLength      float64 `yaml:"step_length,omitempty"`       // 每步模拟时长（秒），默认1.0
	LogFile         string  `yaml:"log_file,omitempty"`          // 模拟器日志文件，默认sumo.log
	Warnings        bool    `yaml:"warnings,omitempty"`          // 是否保留模拟器警告输出（默认抑制）
	StrictRoutes    bool    `yaml:"strict_routes,omitempty"`     // 是否将路由错误视为致命错误（默认忽略）
	Order           int32   `yaml:"order,omitempty"`             // 多客户端模式下的指令顺序号，默认1
	ConnectRetries  int     `yaml:"connect_retries,omitempty"`   // 连接重试次数，默认30
	RetryIntervalMS int     `yaml:"retry_interval_ms,omitempty"` // 连接重试间隔（毫秒），默认100
	IOTimeoutMS     int     `yaml:"io_timeout_ms,omitempty"`     // 单次协议读写超时（毫秒），默认30000，0表示不设超时
}

// Input 指定启动时加载的输入文件
// 说明：均可为空，运行期可通过API加载；sumocfg优先于单独的network/routes
type Input struct {
	Network    string `yaml:"network,omitempty"` // 路网文件（.net.xml）
	Routes     string `yaml:"routes,omitempty"`  // 路由/车型文件（.rou.xml）
	SumoConfig string `yaml:"sumocfg,omitempty"` // 组合配置文件（.sumocfg）
}

// Control 模拟循环控制配置
type Control struct {
	TickIntervalMS int  `yaml:"tick_interval_ms,omitempty"` // 周期触发间隔（毫秒），默认100
	SpawnInterval  int  `yaml:"spawn_interval,omitempty"`   // 发车间隔控制值（1~10），默认2，仅记录不生效
	ShowLabels     bool `yaml:"show_labels,omitempty"`      // 是否默认显示实体标签
}

// Canvas 渲染画布的初始像素尺寸
type Canvas struct {
	Width  float64 `yaml:"width,omitempty"`  // 画布宽度（像素），默认1000
	Height float64 `yaml:"height,omitempty"` // 画布高度（像素），默认700
}

// Web HTTP/WebSocket服务配置
type Web struct {
	Listen         string   `yaml:"listen,omitempty"`          // 监听地址，默认:8080
	StaticDir      string   `yaml:"static_dir,omitempty"`      // 前端静态文件目录，为空则不提供
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"` // CORS允许的来源，默认["*"]
}

// Mongo 每步快照写入MongoDB的配置
type Mongo struct {
	URI             string `yaml:"uri"`                         // MongoDB连接字符串（可被环境变量MONGO_URI覆盖）
	DB              string `yaml:"db"`                          // 数据库名
	Col             string `yaml:"col"`                         // 集合名
	RecordPositions bool   `yaml:"record_positions,omitempty"`  // 是否记录每辆车的位置（数据量大）
	BatchSize       int    `yaml:"batch_size,omitempty"`        // 批量写入条数，默认100
	FlushIntervalMS int    `yaml:"flush_interval_ms,omitempty"` // 批量写入间隔（毫秒），默认1000
}

// NATS 每步位置消息发布配置
type NATS struct {
	URL           string `yaml:"url"`                      // NATS服务地址（可被环境变量NATS_URL覆盖）
	SubjectPrefix string `yaml:"subject_prefix,omitempty"` // 主题前缀，默认trafficvis
}

// Output 可选输出通道配置
// 说明：未配置的通道不启用
type Output struct {
	Mongo *Mongo `yaml:"mongo,omitempty"` // MongoDB快照
	NATS  *NATS  `yaml:"nats,omitempty"`  // NATS位置流
}

// Config YAML配置文件的根结构
type Config struct {
	Simulator Simulator `yaml:"simulator"`         // 外部模拟器
	Input     Input     `yaml:"input,omitempty"`   // 输入文件
	Control   Control   `yaml:"control,omitempty"` // 循环控制
	Canvas    Canvas    `yaml:"canvas,omitempty"`  // 画布
	Web       Web       `yaml:"web,omitempty"`     // Web服务
	Output    Output    `yaml:"output,omitempty"`  // 可选输出
}
