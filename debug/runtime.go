package debug

// Runtime diagnostics snapshot, logged by the collector every N cycles when
// enabled. Goroutine count, stacks and heap come from the Go runtime; RSS is
// read from the OS where available, to correlate native and heap growth.

import (
	"log/slog"
	"runtime"
	"runtime/metrics"
)

// Snapshot is a point-in-time view of process memory.
type Snapshot struct {
	Goroutines uint64
	StackInuse uint64
	HeapAlloc  uint64
	HeapInuse  uint64
	HeapSys    uint64
	NextGC     uint64
	NumGC      uint32
	RSS        uint64 // zero when unavailable
}

// Read collects a Snapshot. RSS errors leave RSS at zero.
func Read() (Snapshot, error) {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Snapshot{
		StackInuse: ms.StackInuse,
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		HeapSys:    ms.HeapSys,
		NextGC:     ms.NextGC,
		NumGC:      ms.NumGC,
	}
	if samples[0].Value.Kind() == metrics.KindUint64 {
		s.Goroutines = samples[0].Value.Uint64()
	}
	rss, err := residentSet()
	s.RSS = rss
	return s, err
}

// LogRuntime logs a Snapshot at info level.
func LogRuntime(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s, err := Read()
	if err != nil {
		logger.Debug("rss unavailable", slog.String("err", err.Error()))
	}
	logger.Info("memstats",
		slog.Uint64("goroutines", s.Goroutines),
		slog.Uint64("stack_inuse", s.StackInuse),
		slog.Uint64("heap_alloc", s.HeapAlloc),
		slog.Uint64("heap_inuse", s.HeapInuse),
		slog.Uint64("heap_sys", s.HeapSys),
		slog.Uint64("next_gc", s.NextGC),
		slog.Uint64("num_gc", uint64(s.NumGC)),
		slog.Uint64("rss", s.RSS),
	)
}
