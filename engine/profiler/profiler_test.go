package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestPassTimingsSortedAndAveraged(t *testing.T) {
	p := NewProfiler()
	p.RecordPass("blur", 2*time.Millisecond)
	p.RecordPass("blur", 4*time.Millisecond)
	p.RecordPass("present", time.Millisecond)

	timings := p.PassTimings()
	require.Len(t, timings, 2)
	assert.Equal(t, "blur", timings[0].Node)
	assert.Equal(t, 2, timings[0].Samples)
	assert.Equal(t, 3*time.Millisecond, timings[0].Average())
	assert.Equal(t, "present", timings[1].Node)
	assert.Equal(t, time.Duration(0), PassTiming{}.Average())
}

func TestTickReportsAtInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewProfiler(WithUpdateInterval(time.Second), WithLogger(logger), WithClock(clock.now))
	p.RecordPass("sky", time.Millisecond)

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
	assert.Empty(t, out.String())

	clock.t = clock.t.Add(600 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.Contains(t, out.String(), "fps=")
	assert.Contains(t, out.String(), "node=sky")

	assert.Empty(t, p.PassTimings(), "a report resets the pass timings")
}
