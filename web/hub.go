package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
)

// 单个客户端的写超时，超时视为慢速消费者并断开
const writeWait = 5 * time.Second

// 单个客户端的待发帧队列长度，排队超出时跳帧
const sendQueueCap = 16

// viewer 一个已连接的观看端
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub WebSocket帧推送集线器
// 功能：维护已连接的观看端集合，把每帧广播给所有客户端
// 说明：广播只向每个客户端的队列投递，从不等待网络写；
// 每个客户端由独立的写协程消费队列，队列满时跳过该帧；
// 客户端只接收，入站消息一律忽略；写失败或超时即移除该客户端
type Hub struct {
	upgrader websocket.Upgrader
	col      *metrics.Collector

	mu      sync.Mutex
	clients map[*viewer]struct{}
	closed  bool
}

// NewHub 创建集线器
func NewHub(col *metrics.Collector) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 跨域约束由HTTP层的CORS中间件统一处理
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		col:     col,
		clients: make(map[*viewer]struct{}),
	}
}

// Handle 处理WebSocket升级请求
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade: %v", err)
		return
	}
	v := &viewer{conn: conn, send: make(chan []byte, sendQueueCap)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[v] = struct{}{}
	h.mu.Unlock()
	h.col.WSClients.Inc()
	log.Infof("viewer connected from %s", r.RemoteAddr)

	// 写协程独占网络写，消费待发队列
	go func() {
		for data := range v.send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warnf("drop slow viewer: %v", err)
				h.drop(v)
				return
			}
		}
	}()

	// 读协程只用于感知断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(v)
				return
			}
		}
	}()
}

// Broadcast 向所有客户端广播一条消息
// 说明：从不阻塞调用方，队列已满的客户端跳过本条
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.clients {
		select {
		case v.send <- data:
		default:
		}
	}
}

// Count 当前客户端数
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(v *viewer) {
	h.mu.Lock()
	_, ok := h.clients[v]
	if ok {
		delete(h.clients, v)
	}
	h.mu.Unlock()
	if ok {
		close(v.send)
		_ = v.conn.Close()
		h.col.WSClients.Dec()
	}
}

// Close 断开所有客户端并拒绝新连接
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	viewers := make([]*viewer, 0, len(h.clients))
	for v := range h.clients {
		viewers = append(viewers, v)
	}
	h.clients = make(map[*viewer]struct{})
	h.mu.Unlock()
	for _, v := range viewers {
		close(v.send)
		_ = v.conn.Close()
		h.col.WSClients.Dec()
	}
}
