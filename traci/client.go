package traci

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// CommandError 仿真器拒绝命令时返回的错误
type CommandError struct {
	Command byte
	Result  byte
	Desc    string
}

func (e *CommandError) Error() string {
	if e.Result == rtypeNotImplemented {
		return fmt.Sprintf("command 0x%02x not implemented: %s", e.Command, e.Desc)
	}
	return fmt.Sprintf("command 0x%02x failed: %s", e.Command, e.Desc)
}

// DialOptions 连接参数
type DialOptions struct {
	// 连接失败后的重试次数
	Retries int
	// 重试间隔
	RetryInterval time.Duration
	// 单次读写超时，0表示不限
	IOTimeout time.Duration
}

// Client 仿真器远程控制客户端
//
// 说明：客户端不做内部加锁，调用方需保证串行访问
type Client struct {
	t    *conn
	proc *Process

	apiVersion    int32
	engineVersion string

	vehicle      *VehicleDomain
	trafficLight *TrafficLightDomain
}

// Connect 连接仿真器并完成版本握手
//
// 参数:
//   - ctx: 控制重试等待的上下文
//   - addr: 仿真器TCP地址
//   - opt: 连接参数
//
// 返回:
//   - 就绪的客户端
func Connect(ctx context.Context, addr string, opt DialOptions) (*Client, error) {
	var lastErr error
	for attempt := 0; attempt <= opt.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opt.RetryInterval):
			}
		}
		d := net.Dialer{Timeout: opt.IOTimeout}
		raw, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		c := &Client{t: newConn(raw, opt.IOTimeout)}
		if err := c.handshake(); err != nil {
			_ = raw.Close()
			lastErr = err
			continue
		}
		c.vehicle = &VehicleDomain{c: c}
		c.trafficLight = &TrafficLightDomain{c: c}
		log.Infof("connected to simulator at %s (api %d, %s)", addr, c.apiVersion, c.engineVersion)
		return c, nil
	}
	return nil, fmt.Errorf("connect %s: %w", addr, lastErr)
}

func (c *Client) handshake() error {
	rest, err := c.execute(cmdGetVersion, nil)
	if err != nil {
		return fmt.Errorf("version handshake: %w", err)
	}
	cmds, err := splitCommands(rest)
	if err != nil {
		return fmt.Errorf("version handshake: %w", err)
	}
	if len(cmds) != 1 || cmds[0].id != cmdGetVersion {
		return fmt.Errorf("version handshake: unexpected response")
	}
	r := cmds[0].r
	c.apiVersion = r.readInt32()
	c.engineVersion = r.readString()
	if err := r.Err(); err != nil {
		return fmt.Errorf("version handshake: %w", err)
	}
	return nil
}

// APIVersion 协议版本号
func (c *Client) APIVersion() int32 {
	return c.apiVersion
}

// EngineVersion 仿真器版本描述
func (c *Client) EngineVersion() string {
	return c.engineVersion
}

// Vehicle 车辆查询接口
func (c *Client) Vehicle() *VehicleDomain {
	return c.vehicle
}

// TrafficLight 信号灯查询与控制接口
func (c *Client) TrafficLight() *TrafficLightDomain {
	return c.trafficLight
}

// Step 推进一个仿真步
func (c *Client) Step() error {
	var w writer
	w.writeFloat64(0)
	rest, err := c.execute(cmdSimStep, w.bytes())
	if err != nil {
		return err
	}
	// 响应尾部为订阅结果数量，未注册任何订阅时恒为0
	if len(rest) >= 4 {
		if n := int32(binary.BigEndian.Uint32(rest[:4])); n != 0 {
			log.Warnf("ignoring %d unexpected subscription results", n)
		}
	}
	return nil
}

// SetOrder 设置多客户端执行序号
func (c *Client) SetOrder(order int32) error {
	var w writer
	w.writeInt32(order)
	_, err := c.execute(cmdSetOrder, w.bytes())
	return err
}

// Close 通知仿真器退出并释放连接
//
// 说明：若仿真器进程由本客户端启动，等待其退出，超时后强制终止
func (c *Client) Close() error {
	_, closeErr := c.execute(cmdClose, nil)
	if err := c.t.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	if c.proc != nil {
		if err := c.proc.Stop(3 * time.Second); err != nil && closeErr == nil {
			closeErr = err
		}
		c.proc = nil
	}
	return closeErr
}

// AdoptProcess 托管仿真器子进程，Close时负责回收
func (c *Client) AdoptProcess(p *Process) {
	c.proc = p
}

// execute 发送命令并校验状态响应，返回状态之后的剩余字节
func (c *Client) execute(id byte, content []byte) ([]byte, error) {
	msg, err := c.t.roundTrip(packCommand(id, content))
	if err != nil {
		return nil, err
	}
	return parseStatus(msg, id)
}

func parseStatus(msg []byte, id byte) ([]byte, error) {
	if len(msg) == 0 {
		return nil, fmt.Errorf("empty response to command 0x%02x", id)
	}
	length := int(msg[0])
	header := 1
	if length == 0 {
		if len(msg) < 5 {
			return nil, fmt.Errorf("truncated status header for command 0x%02x", id)
		}
		length = int(int32(binary.BigEndian.Uint32(msg[1:5])))
		header = 5
	}
	if length < header+1 || length > len(msg) {
		return nil, fmt.Errorf("malformed status length %d for command 0x%02x", length, id)
	}
	got := msg[header]
	r := newReader(msg[header+1 : length])
	result := r.readUByte()
	desc := r.readString()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parse status of command 0x%02x: %w", id, err)
	}
	if got != id {
		return nil, fmt.Errorf("status echoes command 0x%02x, want 0x%02x", got, id)
	}
	if result != rtypeOK {
		return nil, &CommandError{Command: id, Result: result, Desc: desc}
	}
	return msg[length:], nil
}

// getVariable 执行变量查询命令并校验回显，返回指向取值的读取器
func (c *Client) getVariable(cmd, resp, variable byte, objectID string) (*reader, error) {
	var w writer
	w.writeUByte(variable)
	w.writeString(objectID)
	rest, err := c.execute(cmd, w.bytes())
	if err != nil {
		return nil, err
	}
	cmds, err := splitCommands(rest)
	if err != nil {
		return nil, err
	}
	if len(cmds) != 1 || cmds[0].id != resp {
		return nil, fmt.Errorf("unexpected response layout for command 0x%02x variable 0x%02x", cmd, variable)
	}
	r := cmds[0].r
	gotVar := r.readUByte()
	gotID := r.readString()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if gotVar != variable || gotID != objectID {
		return nil, fmt.Errorf("response echoes variable 0x%02x object %q, want 0x%02x %q", gotVar, gotID, variable, objectID)
	}
	return r, nil
}

// setVariable 执行变量修改命令
func (c *Client) setVariable(cmd, variable byte, objectID string, value func(*writer)) error {
	var w writer
	w.writeUByte(variable)
	w.writeString(objectID)
	value(&w)
	_, err := c.execute(cmd, w.bytes())
	return err
}

func readTypedDouble(r *reader) (float64, error) {
	if t := r.readUByte(); r.Err() == nil && t != typeDouble {
		return 0, fmt.Errorf("unexpected value type 0x%02x, want double", t)
	}
	v := r.readFloat64()
	return v, r.Err()
}

func readTypedInt32(r *reader) (int32, error) {
	if t := r.readUByte(); r.Err() == nil && t != typeInt32 {
		return 0, fmt.Errorf("unexpected value type 0x%02x, want int32", t)
	}
	v := r.readInt32()
	return v, r.Err()
}

func readTypedString(r *reader) (string, error) {
	if t := r.readUByte(); r.Err() == nil && t != typeString {
		return "", fmt.Errorf("unexpected value type 0x%02x, want string", t)
	}
	v := r.readString()
	return v, r.Err()
}

func readTypedStringList(r *reader) ([]string, error) {
	if t := r.readUByte(); r.Err() == nil && t != typeStringList {
		return nil, fmt.Errorf("unexpected value type 0x%02x, want string list", t)
	}
	v := r.readStringList()
	return v, r.Err()
}

func readTypedPosition2D(r *reader) (x, y float64, err error) {
	if t := r.readUByte(); r.Err() == nil && t != typePosition2D {
		return 0, 0, fmt.Errorf("unexpected value type 0x%02x, want 2D position", t)
	}
	x = r.readFloat64()
	y = r.readFloat64()
	return x, y, r.Err()
}
