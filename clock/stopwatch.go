package clock

import (
	"fmt"
	"time"
)

// Stopwatch 墙上时钟计时器
// 功能：累计模拟运行的真实耗时，支持暂停后继续累计
// 说明：用于界面上的运行时长显示，与模拟时间无关
type Stopwatch struct {
	running     bool          // 是否在计时
	startedAt   time.Time     // 本段计时的起点
	accumulated time.Duration // 之前各段累计的时长
}

// Start 开始或继续计时
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.running = true
	s.startedAt = time.Now()
}

// Pause 暂停计时并累计已运行时长
func (s *Stopwatch) Pause() {
	if !s.running {
		return
	}
	s.accumulated += time.Since(s.startedAt)
	s.running = false
}

// Reset 清零并停止计时
func (s *Stopwatch) Reset() {
	s.running = false
	s.accumulated = 0
}

// Running 是否在计时
func (s *Stopwatch) Running() bool {
	return s.running
}

// Elapsed 累计运行时长
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.accumulated + time.Since(s.startedAt)
	}
	return s.accumulated
}

// String 获取计时器的字符串表示（HH:MM:SS）
func (s *Stopwatch) String() string {
	return FormatDuration(s.Elapsed())
}

// FormatDuration 将时长格式化为HH:MM:SS
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := total % 3600 / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
