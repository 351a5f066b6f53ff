package web_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
	"github.com/tsinghua-fib-lab/trafficvis-oss/web"
)

func newTestHub(t *testing.T) (*web.Hub, string) {
	t.Helper()
	hub := web.NewHub(metrics.NewCollector())
	ts := httptest.NewServer(http.HandlerFunc(hub.Handle))
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return hub, strings.Replace(ts.URL, "http://", "ws://", 1)
}

func TestHubDeliver(t *testing.T) {
	hub, url := newTestHub(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte(`{"seq":1}`))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"seq":1}`, string(msg))
}

func TestHubSlowViewerDoesNotBlockBroadcast(t *testing.T) {
	hub, url := newTestHub(t)

	// 从不读取的观看端
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 5*time.Millisecond)

	// test: 持续广播大帧时调用方不被慢速观看端拖住，超出队列的帧被跳过
	payload := bytes.Repeat([]byte("x"), 64*1024)
	begin := time.Now()
	for i := 0; i < 500; i++ {
		hub.Broadcast(payload)
	}
	assert.Less(t, time.Since(begin), time.Second)
}

func TestHubDisconnect(t *testing.T) {
	hub, url := newTestHub(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	// test: 断开后从集合移除
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
}
