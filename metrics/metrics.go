package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 运行指标集合
// 功能：聚合可视化端的运行指标，注册到独立的registry并提供HTTP输出
type Collector struct {
	reg *prometheus.Registry

	Vehicles prometheus.Gauge
	Spawned  prometheus.Gauge
	Arrived  prometheus.Gauge
	Signals  prometheus.Gauge

	Connected prometheus.Gauge
	WSClients prometheus.Gauge

	NATSConnected prometheus.Gauge
	Published     prometheus.Counter
	PublishErrors prometheus.Counter

	TicksTotal   prometheus.Counter
	TickErrors   prometheus.Counter
	TickDuration prometheus.Histogram
	FramesBuilt  prometheus.Counter

	CommandsTotal *prometheus.CounterVec
}

// NewCollector 创建并注册全部指标
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Vehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_vehicles",
			Help: "Number of vehicles currently in the network.",
		}),
		Spawned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_vehicles_spawned",
			Help: "Vehicles that entered the network since the simulation started.",
		}),
		Arrived: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_vehicles_arrived",
			Help: "Vehicles that reached their destination since the simulation started.",
		}),
		Signals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_signals",
			Help: "Traffic lights matched to junctions.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_simulator_connected",
			Help: "1 if the simulator connection is established, 0 otherwise.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_ws_clients",
			Help: "Connected websocket viewers.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trafficvis_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trafficvis_nats_published_total",
			Help: "Messages published to NATS.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trafficvis_nats_publish_errors_total",
			Help: "Messages that failed to publish to NATS.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trafficvis_ticks_total",
			Help: "Total simulation steps driven.",
		}),
		TickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trafficvis_tick_errors_total",
			Help: "Total simulation steps that failed and stopped the run.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trafficvis_tick_duration_seconds",
			Help:    "Duration of one step plus state sync and frame build.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		FramesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trafficvis_frames_total",
			Help: "Frames built and published.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficvis_commands_total",
			Help: "UI commands processed by the control loop.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.Vehicles, c.Spawned, c.Arrived, c.Signals,
		c.Connected, c.WSClients,
		c.NATSConnected, c.Published, c.PublishErrors,
		c.TicksTotal, c.TickErrors, c.TickDuration, c.FramesBuilt,
		c.CommandsTotal,
	)
	return c
}

// Handler /metrics的HTTP处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
