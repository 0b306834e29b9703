package profiler

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/common"
)

// PassTiming is the accumulated encode time of one node since the last report.
type PassTiming struct {
	Node    string
	Total   time.Duration
	Samples int
}

// Average returns the mean time per recorded pass.
func (t PassTiming) Average() time.Duration {
	if t.Samples == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Samples)
}

// Profiler tracks frame rate, per-pass timings and memory statistics for performance
// monitoring. Outputs stats to the logger at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	logger         *slog.Logger
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	passes map[string]*PassTiming
	now    func() time.Time
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second and the logger to common.Logger().
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         common.Logger(),
		updateInterval: time.Second,
		passes:         make(map[string]*PassTiming),
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// RecordPass adds the time one node's pass took to encode.
//
// Parameters:
//   - node: the node name
//   - d: the elapsed time
func (p *Profiler) RecordPass(node string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.passes[node]
	if !ok {
		t = &PassTiming{Node: node}
		p.passes[node] = t
	}
	t.Total += d
	t.Samples++
}

// PassTimings returns the timings recorded since the last report, slowest first.
//
// Returns:
//   - []PassTiming: one entry per node
func (p *Profiler) PassTimings() []PassTiming {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PassTiming, 0, len(p.passes))
	for _, t := range p.passes {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Node < out[j].Node
	})
	return out
}

// Tick should be called once per completed frame to track frame timing.
// Logs performance statistics when the update interval has elapsed and resets the pass
// timings. Statistics include: FPS, heap usage, allocation rate, GC count/pause times,
// total memory and the average time of each pass.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		p.mu.Unlock()
		return false
	}
	frames := p.frameCount
	p.mu.Unlock()

	timings := p.PassTimings()

	p.mu.Lock()
	defer p.mu.Unlock()

	fps := float64(frames) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc: cumulative heap bytes. Sys: process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("profiler",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)
	for _, t := range timings {
		p.logger.Debug("profiler pass", "node", t.Node, "avg", t.Average(), "samples", t.Samples)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.passes = make(map[string]*PassTiming)
	return true
}
