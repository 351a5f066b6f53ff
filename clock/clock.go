package clock

import (
	"fmt"
)

// Clock 仿真时钟
// 功能：跟踪已推进的模拟步数与对应的模拟时间
// 说明：时间推进由外部模拟器完成，本时钟只做客户端侧的计数与换算
type Clock struct {
	DT float64 // 每步时间间隔（秒）

	T    float64 // 当前模拟时间（秒）
	Step int64   // 当前步数
}

// New 创建时钟
// 参数：stepLength-每步时间间隔（秒）
func New(stepLength float64) *Clock {
	c := &Clock{DT: stepLength}
	c.Reset()
	return c
}

// Reset 重置时钟状态
func (c *Clock) Reset() {
	c.Step = 0
	c.T = 0
}

// Tick 推进一步
// 说明：在外部模拟器成功推进一步后调用
func (c *Clock) Tick() {
	c.Step++
	c.T = float64(c.Step) * c.DT
}

// String 获取时钟的字符串表示
// 返回：格式化的模拟时间（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前模拟时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，保留亚秒精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
