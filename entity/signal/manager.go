package signal

import (
	"fmt"

	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
)

// SignalManager 信号灯管理器
// 功能：在连接建立时将仿真器信号灯与路网路口按ID关联，按帧刷新相位状态
type SignalManager struct {
	ctx entity.ITaskContext

	data  map[string]*Signal
	iface map[string]entity.ISignal
}

// NewManager 创建信号灯管理器实例
// 功能：初始化信号灯管理器，创建内部数据结构
// 参数：ctx-任务上下文
// 返回：新创建的信号灯管理器实例
func NewManager(ctx entity.ITaskContext) *SignalManager {
	return &SignalManager{
		ctx:   ctx,
		data:  make(map[string]*Signal),
		iface: make(map[string]entity.ISignal),
	}
}

// Init 初始化信号灯
// 功能：查询仿真器的信号灯ID列表，与路网路口按ID精确匹配并建立双向关联
// 参数：api-仿真器信号灯接口，networkManager-路网管理器
// 说明：无同名路口的信号灯丢弃并告警；完成关联后立即拉取一次初始状态
func (m *SignalManager) Init(api entity.ISimSignalAPI, networkManager entity.INetworkManager) error {
	m.Reset()
	ids, err := api.IDList()
	if err != nil {
		return fmt.Errorf("list traffic lights: %w", err)
	}
	for _, id := range ids {
		j, err := networkManager.GetJunctionOrError(id)
		if err != nil {
			log.Warnf("traffic light %s has no matching junction, dropped", id)
			continue
		}
		s := newSignal(id, j)
		j.SetSignalWhenInit(s)
		m.data[id] = s
		m.iface[id] = s
	}
	log.Infof("traffic lights: %d of %d matched to junctions", len(m.data), len(ids))
	return m.Update(api)
}

// Get 根据ID获取信号灯实例
// 功能：通过信号灯ID查找对应的对象，如果不存在则panic
func (m *SignalManager) Get(id string) entity.ISignal {
	if s, ok := m.data[id]; !ok {
		log.Panicf("no id %s in signal data", id)
		return nil
	} else {
		return s
	}
}

// GetOrError 根据ID获取信号灯实例（带错误处理）
func (m *SignalManager) GetOrError(id string) (entity.ISignal, error) {
	if s, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in signal data", id)
	} else {
		return s, nil
	}
}

// Update 从仿真器刷新全部信号灯状态
// 功能：逐灯查询相位状态串、相位序号与控制程序并写入本地对象
// 参数：api-仿真器信号灯接口
// 说明：任一查询失败立即中止本帧刷新并返回错误
func (m *SignalManager) Update(api entity.ISimSignalAPI) error {
	for id, s := range m.data {
		state, err := api.State(id)
		if err != nil {
			return fmt.Errorf("traffic light %s state: %w", id, err)
		}
		phase, err := api.Phase(id)
		if err != nil {
			return fmt.Errorf("traffic light %s phase: %w", id, err)
		}
		program, err := api.Program(id)
		if err != nil {
			return fmt.Errorf("traffic light %s program: %w", id, err)
		}
		s.refresh(state, phase, program)
	}
	return nil
}

// 获取所有信号灯（ID -> Signal）
func (m *SignalManager) Signals() map[string]entity.ISignal {
	return m.iface
}

// 统计信号灯数
func (m *SignalManager) Count() int {
	return len(m.data)
}

// Reset 清空信号灯
func (m *SignalManager) Reset() {
	m.data = make(map[string]*Signal)
	m.iface = make(map[string]entity.ISignal)
}
