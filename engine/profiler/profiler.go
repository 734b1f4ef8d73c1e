package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
)

// Stats is one profiler report.
type Stats struct {
	FPS float64
	// Particles is the instance count drawn in the last frame of the interval.
	Particles int
	// HeapMB is the live heap in MiB.
	HeapMB float64
	// AllocRateMB is the allocation rate over the interval in MiB/s.
	AllocRateMB float64
	// GCCount is the cumulative collection count.
	GCCount uint32
	// MaxPauseUs is the longest collection pause during the interval.
	MaxPauseUs uint64
	// SysMB is the memory obtained from the OS in MiB.
	SysMB float64
}

// Profiler tracks frame rate, particle count and memory statistics.
// It reports through a logger at a configurable interval.
type Profiler struct {
	logger         common.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// ProfilerOption is a functional option used to configure a Profiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger reports are written to.
func WithLogger(l common.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// WithInterval sets the report interval. Non-positive values keep the default of one second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a Profiler that reports every second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         common.NopLogger(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. When the update interval has elapsed it gathers
// memory statistics and logs a report.
//
// Parameters:
//   - particles: the particle instance count drawn this frame
//
// Returns:
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(particles int) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		Particles: particles,
		HeapMB:    float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:     float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:   p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses
	startIdx := p.lastGCCount
	if s.GCCount-startIdx > 256 {
		startIdx = s.GCCount - 256
	}
	for i := startIdx; i < s.GCCount; i++ {
		s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.logger.Infof("FPS: %.2f | Particles: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs) | Sys: %.2f MB",
		s.FPS, s.Particles, s.HeapMB, s.AllocRateMB, s.GCCount, s.MaxPauseUs, s.SysMB)

	p.last = s
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report, zero before the first.
func (p *Profiler) Last() Stats {
	return p.last
}
