package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tsinghua-fib-lab/trafficvis-oss/task"
)

// 各处理器把操作转交给控制循环，并把错误折叠为对用户可读的文本。
// 错误分级：请求体不合法为400，操作被拒绝或失败为409，控制循环不可用为503。

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusConflict
	if errors.Is(err, task.ErrQueueFull) || errors.Is(err, task.ErrStopped) {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	f := s.latest.Load()
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no frame available"})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ctx.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("roads"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	topo, err := s.ctx.Topology(ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topo)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ctx.StatusHistory()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	var err error
	switch req.Action {
	case "start":
		err = s.ctx.Start()
	case "stop":
		err = s.ctx.Stop()
	case "step":
		err = s.ctx.StepOnce()
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown action %q", req.Action)})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request, load func(path string) error) {
	var req struct {
		Path string `json:"path"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path is required"})
		return
	}
	if err := load(req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleLoadNetwork(w http.ResponseWriter, r *http.Request) {
	s.handleLoad(w, r, s.ctx.LoadNetwork)
}

func (s *Server) handleLoadRoutes(w http.ResponseWriter, r *http.Request) {
	s.handleLoad(w, r, s.ctx.LoadRoutes)
}

func (s *Server) handleLoadConfig(w http.ResponseWriter, r *http.Request) {
	s.handleLoad(w, r, s.ctx.LoadConfig)
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.ctx.Pan(req.DX, req.DY); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// 滚轮与按钮缩放倍数
const (
	wheelZoomFactor = 1.1
)

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Factor    float64 `json:"factor,omitempty"`    // 相对倍数
		Zoom      float64 `json:"zoom,omitempty"`      // 绝对倍率
		Direction string  `json:"direction,omitempty"` // in/out，滚轮缩放
	}
	if !readJSON(w, r, &req) {
		return
	}
	var err error
	switch {
	case req.Factor != 0:
		err = s.ctx.ZoomBy(req.Factor)
	case req.Zoom != 0:
		err = s.ctx.ZoomTo(req.Zoom)
	case req.Direction == "in":
		err = s.ctx.ZoomBy(wheelZoomFactor)
	case req.Direction == "out":
		err = s.ctx.ZoomBy(1 / wheelZoomFactor)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "factor, zoom or direction is required"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	if err := s.ctx.Fit(); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.ctx.SetCanvasSize(req.Width, req.Height); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	sel, err := s.ctx.Select(req.X, req.Y)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selection": sel})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShowLabels    *bool `json:"showLabels,omitempty"`
		SpawnInterval *int  `json:"spawnInterval,omitempty"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.ctx.ApplySettings(req.ShowLabels, req.SpawnInterval); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		State   *string `json:"state,omitempty"`
		Phase   *int32  `json:"phase,omitempty"`
		Program *string `json:"program,omitempty"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.State == nil && req.Phase == nil && req.Program == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state, phase or program is required"})
		return
	}
	if err := s.ctx.SetSignal(id, req.State, req.Phase, req.Program); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}
