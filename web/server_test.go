package web_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/trafficvis-oss/entity"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
	"github.com/tsinghua-fib-lab/trafficvis-oss/render"
	"github.com/tsinghua-fib-lab/trafficvis-oss/task"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
	"github.com/tsinghua-fib-lab/trafficvis-oss/web"
)

const testNet = `<?xml version="1.0" encoding="UTF-8"?>
<net version="1.16">
    <junction id="J1" type="priority" x="0.00" y="0.00"/>
    <junction id="J2" type="priority" x="100.00" y="0.00"/>
    <edge id="E1" from="J1" to="J2" priority="-1">
        <lane id="E1_0" index="0" speed="13.89" length="100.00" shape="0.00,0.00 100.00,0.00"/>
    </edge>
</net>`

// nullClient 空载仿真器替身，无车辆无信号灯
type nullClient struct{}

func (nullClient) Step() error                        { return nil }
func (nullClient) SetOrder(order int32) error         { return nil }
func (nullClient) Close() error                       { return nil }
func (nullClient) Vehicle() entity.ISimVehicleAPI     { return nullVehicleAPI{} }
func (nullClient) TrafficLight() entity.ISimSignalAPI { return nullSignalAPI{} }

type nullVehicleAPI struct{}

func (nullVehicleAPI) IDList() ([]string, error)                    { return nil, nil }
func (nullVehicleAPI) Position(id string) (float64, float64, error) { return 0, 0, fmt.Errorf("unknown") }
func (nullVehicleAPI) Speed(id string) (float64, error)             { return 0, fmt.Errorf("unknown") }
func (nullVehicleAPI) RoadID(id string) (string, error)             { return "", fmt.Errorf("unknown") }
func (nullVehicleAPI) LaneID(id string) (string, error)             { return "", fmt.Errorf("unknown") }
func (nullVehicleAPI) LanePosition(id string) (float64, error)      { return 0, fmt.Errorf("unknown") }
func (nullVehicleAPI) TypeID(id string) (string, error)             { return "", fmt.Errorf("unknown") }

type nullSignalAPI struct{}

func (nullSignalAPI) IDList() ([]string, error)             { return nil, nil }
func (nullSignalAPI) State(id string) (string, error)       { return "", fmt.Errorf("unknown") }
func (nullSignalAPI) Phase(id string) (int32, error)        { return 0, fmt.Errorf("unknown") }
func (nullSignalAPI) Program(id string) (string, error)     { return "", fmt.Errorf("unknown") }
func (nullSignalAPI) SetState(id, state string) error       { return fmt.Errorf("unknown") }
func (nullSignalAPI) SetPhase(id string, phase int32) error { return fmt.Errorf("unknown") }
func (nullSignalAPI) SetProgram(id, program string) error   { return fmt.Errorf("unknown") }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	netPath := filepath.Join(t.TempDir(), "grid.net.xml")
	require.NoError(t, os.WriteFile(netPath, []byte(testNet), 0o644))

	var c config.Config
	c.Control.TickIntervalMS = 5
	c.Input.Network = netPath
	c.Web.AllowedOrigins = []string{"*"}

	col := metrics.NewCollector()
	ctx := task.NewContext(c, col)
	ctx.SetDialer(func(config.Simulator, string, string, string) (entity.ISimClient, error) {
		return nullClient{}, nil
	})
	s := web.New(c.Web, ctx, col)
	ctx.AddFrameSink(s)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		ctx.Run(stop)
		close(done)
	}()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		close(stop)
		<-done
	})
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats task.StatsPayload
	decodeBody(t, resp, &stats)
	assert.Equal(t, "idle", stats.State)
	assert.Equal(t, "ready", stats.Status)
}

func TestFrameLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// test: 尚无帧时404
	resp, err := http.Get(ts.URL + "/api/frame")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/view/fit", `{}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/frame")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var f render.Frame
	decodeBody(t, resp, &f)
	assert.GreaterOrEqual(t, f.Seq, uint64(1))
	assert.False(t, f.Running)
	assert.NotEmpty(t, f.Layers.Roads)
}

func TestControl(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/control", `{"action":"step"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// test: 未知动作400
	resp = postJSON(t, ts.URL+"/api/control", `{"action":"fly"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// test: 请求体不合法400
	resp = postJSON(t, ts.URL+"/api/control", `{`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// test: 重复start为409
	resp = postJSON(t, ts.URL+"/api/control", `{"action":"start"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = postJSON(t, ts.URL+"/api/control", `{"action":"start"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/control", `{"action":"stop"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadValidation(t *testing.T) {
	ts := newTestServer(t)

	// test: 缺少path为400
	resp := postJSON(t, ts.URL+"/api/load/network", `{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// test: 文件不存在为409
	resp = postJSON(t, ts.URL+"/api/load/network", `{"path":"missing.net.xml"}`)
	var e map[string]string
	decodeBody(t, resp, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, e["error"])
}

func TestTopologyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/topology?roads=E1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var topo task.TopologyPayload
	decodeBody(t, resp, &topo)
	require.Len(t, topo.Roads, 1)
	assert.Equal(t, "E1", topo.Roads[0].ID)
	assert.Len(t, topo.Junctions, 2)

	resp, err = http.Get(ts.URL + "/api/topology?roads=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestViewAndSelect(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/view/pan", `{"dx":10,"dy":-5}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/view/zoom", `{"direction":"in"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// test: factor/zoom/direction都缺失为400
	resp = postJSON(t, ts.URL+"/api/view/zoom", `{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/view/canvas", `{"width":0,"height":10}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// test: 空白处点选返回null选中
	resp = postJSON(t, ts.URL+"/api/select", `{"x":10,"y":10}`)
	var sel map[string]*render.Selection
	decodeBody(t, resp, &sel)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, sel["selection"])
}

func TestSettingsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/settings", `{"showLabels":true,"spawnInterval":3}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/settings", `{"spawnInterval":0}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var stats task.StatsPayload
	getResp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	decodeBody(t, getResp, &stats)
	assert.True(t, stats.ShowLabels)
	assert.Equal(t, 3, stats.SpawnInterval)
}

func TestSignalEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// test: state/phase/program都缺失为400
	resp := postJSON(t, ts.URL+"/api/signal/J2", `{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// test: 未连接仿真器为409
	resp = postJSON(t, ts.URL+"/api/signal/J2", `{"phase":1}`)
	var e map[string]string
	decodeBody(t, resp, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, e["error"], "not connected")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "trafficvis_vehicles")
	assert.Contains(t, string(body), "trafficvis_ws_clients")
}

func TestWebSocketBroadcast(t *testing.T) {
	ts := newTestServer(t)
	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// 连接注册与广播异步，持续触发重绘直到收到一帧
	stopPost := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopPost:
				return
			case <-ticker.C:
				r, err := http.Post(ts.URL+"/api/view/fit", "application/json", bytes.NewBufferString(`{}`))
				if err == nil {
					r.Body.Close()
				}
			}
		}
	}()
	defer close(stopPost)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var f render.Frame
	require.NoError(t, json.Unmarshal(msg, &f))
	assert.GreaterOrEqual(t, f.Seq, uint64(1))
}
