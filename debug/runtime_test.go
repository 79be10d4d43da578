package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRead_ReportsRuntimeCounters(t *testing.T) {
	s, _ := Read()
	if s.Goroutines == 0 {
		t.Fatalf("expected at least one goroutine")
	}
	if s.HeapSys == 0 {
		t.Fatalf("expected non-zero heap_sys")
	}
}

func TestLogRuntime_WritesRecord(t *testing.T) {
	var buf bytes.Buffer
	LogRuntime(slog.New(slog.NewTextHandler(&buf, nil)))
	if !strings.Contains(buf.String(), "msg=memstats") || !strings.Contains(buf.String(), "goroutines=") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
	LogRuntime(nil) // must not panic
}
