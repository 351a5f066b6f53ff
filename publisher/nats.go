package publisher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
	"github.com/tsinghua-fib-lab/trafficvis-oss/task"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
)

// vehicleMessage 单辆车的位置消息
type vehicleMessage struct {
	Step int64   `json:"step"`
	T    float64 `json:"t"`
	task.VehicleRecord
}

// tickMessage 每步的汇总消息
type tickMessage struct {
	Step    int64   `json:"step"`
	T       float64 `json:"t"`
	Current int     `json:"current"`
	Spawned int64   `json:"spawned"`
	Arrived int64   `json:"arrived"`
}

// Publisher NATS位置流发布器
// 功能：把每个仿真步的车辆位置与汇总统计发布为JSON消息
// 说明：车辆消息主题为<prefix>.vehicle.<id>，汇总主题为<prefix>.tick；
// 连接状态变化通过指标暴露，发布失败只计数不中断
type Publisher struct {
	nc     *nats.Conn
	prefix string
	col    *metrics.Collector
}

// New 创建发布器并建立NATS连接
// 参数：c-NATS配置，col-运行指标集合
func New(c config.NATS, col *metrics.Collector) (*Publisher, error) {
	nc, err := nats.Connect(c.URL,
		nats.Name("trafficvis"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			col.NATSConnected.Set(0)
			log.Warnf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			col.NATSConnected.Set(1)
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			col.NATSConnected.Set(0)
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", c.URL, err)
	}
	col.NATSConnected.Set(1)
	log.Infof("publishing to %s under subject %s", c.URL, c.SubjectPrefix)
	return &Publisher{nc: nc, prefix: c.SubjectPrefix, col: col}, nil
}

// RecordTick 实现task.TickSink
func (p *Publisher) RecordTick(rec task.TickRecord) {
	for _, v := range rec.Vehicles {
		subject := fmt.Sprintf("%s.vehicle.%s", p.prefix, subjectToken(v.ID))
		p.publish(subject, vehicleMessage{Step: rec.Step, T: rec.T, VehicleRecord: v})
	}
	p.publish(p.prefix+".tick", tickMessage{
		Step:    rec.Step,
		T:       rec.T,
		Current: rec.Current,
		Spawned: rec.Spawned,
		Arrived: rec.Arrived,
	})
}

func (p *Publisher) publish(subject string, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		p.col.PublishErrors.Inc()
		log.Errorf("encode message for %s: %v", subject, err)
		return
	}
	if err := p.nc.Publish(subject, b); err != nil {
		p.col.PublishErrors.Inc()
		log.Warnf("publish %s: %v", subject, err)
		return
	}
	p.col.Published.Inc()
}

// Close 清空待发消息并关闭连接
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warnf("drain nats: %v", err)
	}
	p.nc.Close()
}

// subjectToken 清洗主题片段中NATS不允许的字符
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
