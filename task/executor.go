package task

import (
	"errors"
	"time"
)

// 命令队列容量，排队超出时拒绝新命令而不是阻塞HTTP处理协程
const commandQueueCap = 16

var (
	// ErrQueueFull 命令队列已满
	ErrQueueFull = errors.New("command queue full")
	// ErrStopped 控制循环已退出
	ErrStopped = errors.New("control loop stopped")
)

// command 投递到控制循环的一条命令
type command struct {
	op   string
	fn   func()
	done chan struct{}
}

// Run 运行控制循环
// 功能：在单一协程上交替处理周期触发与外部命令，直到stop关闭
// 参数：stop-关闭信号
// 算法说明：
// 1. 按配置的周期触发间隔创建定时器
// 2. Running状态下每次触发执行一次tick；Idle状态下忽略触发
// 3. 外部命令逐个执行，与tick在同一协程串行，互不重叠
// 4. stop关闭后停止模拟、释放连接并退出
// 说明：所有可变状态只被本协程触碰，tick之间不会重叠，
// 停止命令与tick在同一协程处理，不会与进行中的tick竞争
func (ctx *Context) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(ctx.runtimeConfig.TickInterval())
	defer ticker.Stop()
	log.Infof("control loop started, tick interval %s", ctx.runtimeConfig.TickInterval())
	for {
		select {
		case <-stop:
			ctx.stopSimulation("shutting down")
			close(ctx.stopped)
			log.Info("control loop stopped")
			return
		case cmd := <-ctx.commands:
			ctx.collector.CommandsTotal.WithLabelValues(cmd.op).Inc()
			cmd.fn()
			close(cmd.done)
		case <-ticker.C:
			if ctx.running {
				_ = ctx.tick()
			}
		}
	}
}

// do 将操作投递到控制循环并等待执行完成
func (ctx *Context) do(op string, fn func()) error {
	cmd := command{op: op, fn: fn, done: make(chan struct{})}
	select {
	case <-ctx.stopped:
		return ErrStopped
	default:
	}
	select {
	case ctx.commands <- cmd:
	default:
		return ErrQueueFull
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.stopped:
		return ErrStopped
	}
}

// call 投递一个带错误返回的操作
func (ctx *Context) call(op string, fn func() error) error {
	var opErr error
	if err := ctx.do(op, func() { opErr = fn() }); err != nil {
		return err
	}
	return opErr
}
