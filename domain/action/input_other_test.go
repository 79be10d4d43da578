//go:build !windows

package action

import "testing"

func TestParseWindowIDs(t *testing.T) {
	got := parseWindowIDs([]byte("41943047\n\ngarbage\n0\n52428806\n"))
	if len(got) != 2 || got[0] != 41943047 || got[1] != 52428806 {
		t.Fatalf("parseWindowIDs = %v", got)
	}
	if ids := parseWindowIDs(nil); len(ids) != 0 {
		t.Fatalf("empty output should yield no ids, got %v", ids)
	}
}

func TestClick_RejectsNegativeTarget(t *testing.T) {
	in := NewInput()
	if err := in.Click(-1, 10); err == nil {
		t.Fatalf("expected error for off-screen target")
	}
}
