package traci

// 远程控制协议的命令与类型常量
// 说明：协议与取值由外部模拟器定义，这里只列出本客户端用到的子集

// 控制命令
const (
	cmdGetVersion byte = 0x00 // 版本握手
	cmdSimStep    byte = 0x02 // 推进模拟时间
	cmdSetOrder   byte = 0x03 // 设置多客户端指令顺序
	cmdClose      byte = 0x7f // 关闭连接
)

// 取值命令与对应的响应命令（响应ID=命令ID+0x10）
const (
	cmdGetTrafficLightVariable  byte = 0xa2
	respGetTrafficLightVariable byte = 0xb2
	cmdGetVehicleVariable       byte = 0xa4
	respGetVehicleVariable      byte = 0xb4
	cmdSetTrafficLightVariable  byte = 0xc2
)

// 变量ID
const (
	varIDList byte = 0x00 // 对象ID列表

	varSpeed        byte = 0x40 // 速度（米/秒）
	varPosition     byte = 0x42 // 平面位置
	varAngle        byte = 0x43 // 航向角（度）
	varTypeID       byte = 0x4f // 车型ID
	varRoadID       byte = 0x50 // 所在道路ID
	varLaneID       byte = 0x51 // 所在车道ID
	varLanePosition byte = 0x56 // 车道内里程（米）

	varTLState        byte = 0x20 // 信号灯状态字符串（每连接一个字符）
	varTLPhaseIndex   byte = 0x22 // 设置相位序号
	varTLProgram      byte = 0x23 // 设置信控方案
	varTLCurrentPhase byte = 0x28 // 当前相位序号
	varTLCurrentProg  byte = 0x29 // 当前信控方案ID
)

// 数据类型标记
const (
	typePosition2D byte = 0x01
	typeUByte      byte = 0x07
	typeByte       byte = 0x08
	typeInt32      byte = 0x09
	typeDouble     byte = 0x0b
	typeString     byte = 0x0c
	typeStringList byte = 0x0e
	typeCompound   byte = 0x0f
	typeColor      byte = 0x11
)

// 状态结果码
const (
	rtypeOK             byte = 0x00
	rtypeNotImplemented byte = 0x01
	rtypeErr            byte = 0xff
)

// 响应消息体的上限（字节），超过视为协议错误
const maxMessageSize = 64 << 20
