package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
	"github.com/tsinghua-fib-lab/trafficvis-oss/task"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
)

// Server HTTP/WebSocket服务
// 功能：对外提供用户操作入口（文件加载、启停、视图、选中）与画面帧输出
// 说明：所有操作经task.Context投递到控制循环执行，本层不持有可变模拟状态；
// 最新帧通过原子指针保存，WebSocket推送由Hub完成
type Server struct {
	ctx *task.Context
	col *metrics.Collector
	hub *Hub

	latest atomic.Pointer[render.Frame]
	srv    *http.Server
}

// New 创建HTTP服务
// 参数：c-Web配置，ctx-任务上下文，col-运行指标集合
func New(c config.Web, ctx *task.Context, col *metrics.Collector) *Server {
	s := &Server{ctx: ctx, col: col, hub: NewHub(col)}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/frame", s.handleFrame)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/topology", s.handleTopology)
	r.Get("/api/status", s.handleStatus)

	r.Post("/api/control", s.handleControl)
	r.Post("/api/load/network", s.handleLoadNetwork)
	r.Post("/api/load/routes", s.handleLoadRoutes)
	r.Post("/api/load/config", s.handleLoadConfig)

	r.Post("/api/view/pan", s.handlePan)
	r.Post("/api/view/zoom", s.handleZoom)
	r.Post("/api/view/fit", s.handleFit)
	r.Post("/api/view/canvas", s.handleCanvas)

	r.Post("/api/select", s.handleSelect)
	r.Post("/api/settings", s.handleSettings)
	r.Post("/api/signal/{id}", s.handleSignal)

	r.Get("/ws", s.hub.Handle)
	r.Handle("/metrics", col.Handler())

	if c.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(c.StaticDir)))
	}

	s.srv = &http.Server{Addr: c.Listen, Handler: r}
	return s
}

// Handler HTTP处理器，供测试直接挂载
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start 启动监听
func (s *Server) Start() {
	go func() {
		log.Infof("listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
		}
	}()
}

// Shutdown 断开所有观看端并优雅关闭监听
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

// PublishFrame 实现task.FrameSink
// 说明：保存最新帧供/api/frame拉取，同时编码一次并广播到所有WebSocket客户端
func (s *Server) PublishFrame(f *render.Frame) {
	s.latest.Store(f)
	b, err := json.Marshal(f)
	if err != nil {
		log.Errorf("encode frame: %v", err)
		return
	}
	s.hub.Broadcast(b)
}
