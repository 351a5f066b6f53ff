package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficvis-oss/clock"
)

func TestClockTick(t *testing.T) {
	c := clock.New(1.0)
	assert.Equal(t, int64(0), c.Step)
	assert.Equal(t, 0.0, c.T)

	// test: each tick advances by the step length
	for i := 0; i < 90; i++ {
		c.Tick()
	}
	assert.Equal(t, int64(90), c.Step)
	assert.Equal(t, 90.0, c.T)
	assert.Equal(t, "00:01:30", c.String())

	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 0, h)
	assert.Equal(t, 1, m)
	assert.Equal(t, 30.0, s)

	c.Reset()
	assert.Equal(t, int64(0), c.Step)
	assert.Equal(t, "00:00:00", c.String())
}

func TestClockFractionalStep(t *testing.T) {
	c := clock.New(0.5)
	c.Tick()
	c.Tick()
	c.Tick()
	assert.Equal(t, 1.5, c.T)

	_, _, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1.5, s)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", clock.FormatDuration(0))
	assert.Equal(t, "00:00:59", clock.FormatDuration(59*time.Second))
	assert.Equal(t, "01:02:03", clock.FormatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "27:46:40", clock.FormatDuration(100000*time.Second))
}

func TestStopwatch(t *testing.T) {
	var s clock.Stopwatch
	assert.False(t, s.Running())
	assert.Equal(t, time.Duration(0), s.Elapsed())
	assert.Equal(t, "00:00:00", s.String())

	// test: pause keeps the accumulated duration
	s.Start()
	assert.True(t, s.Running())
	time.Sleep(10 * time.Millisecond)
	s.Pause()
	paused := s.Elapsed()
	assert.GreaterOrEqual(t, paused, 10*time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, paused, s.Elapsed())

	// test: restart continues accumulating
	s.Start()
	time.Sleep(5 * time.Millisecond)
	assert.Greater(t, s.Elapsed(), paused)

	s.Reset()
	assert.False(t, s.Running())
	assert.Equal(t, time.Duration(0), s.Elapsed())
}
