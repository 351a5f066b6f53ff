package traci

// TrafficLightDomain 信号灯变量查询与控制接口
type TrafficLightDomain struct {
	c *Client
}

// IDList 全部信号灯ID列表
func (d *TrafficLightDomain) IDList() ([]string, error) {
	r, err := d.c.getVariable(cmdGetTrafficLightVariable, respGetTrafficLightVariable, varIDList, "")
	if err != nil {
		return nil, err
	}
	return readTypedStringList(r)
}

// State 当前相位状态串，每字符对应一个受控连接
func (d *TrafficLightDomain) State(id string) (string, error) {
	r, err := d.c.getVariable(cmdGetTrafficLightVariable, respGetTrafficLightVariable, varTLState, id)
	if err != nil {
		return "", err
	}
	return readTypedString(r)
}

// Phase 当前相位序号
func (d *TrafficLightDomain) Phase(id string) (int32, error) {
	r, err := d.c.getVariable(cmdGetTrafficLightVariable, respGetTrafficLightVariable, varTLCurrentPhase, id)
	if err != nil {
		return 0, err
	}
	return readTypedInt32(r)
}

// Program 当前控制程序ID
func (d *TrafficLightDomain) Program(id string) (string, error) {
	r, err := d.c.getVariable(cmdGetTrafficLightVariable, respGetTrafficLightVariable, varTLCurrentProg, id)
	if err != nil {
		return "", err
	}
	return readTypedString(r)
}

// SetState 覆写相位状态串，信号灯保持该状态直到下次覆写或切换程序
func (d *TrafficLightDomain) SetState(id, state string) error {
	return d.c.setVariable(cmdSetTrafficLightVariable, varTLState, id, func(w *writer) {
		w.writeUByte(typeString)
		w.writeString(state)
	})
}

// SetPhase 切换到指定相位序号
func (d *TrafficLightDomain) SetPhase(id string, phase int32) error {
	return d.c.setVariable(cmdSetTrafficLightVariable, varTLPhaseIndex, id, func(w *writer) {
		w.writeUByte(typeInt32)
		w.writeInt32(phase)
	})
}

// SetProgram 切换到指定控制程序
func (d *TrafficLightDomain) SetProgram(id, program string) error {
	return d.c.setVariable(cmdSetTrafficLightVariable, varTLProgram, id, func(w *writer) {
		w.writeUByte(typeString)
		w.writeString(program)
	})
}
