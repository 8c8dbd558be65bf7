package server

import (
	"testing"

	"voxelengine/internal/build"
)

func TestBuildLogSinceReturnsNewerEntries(t *testing.T) {
	l := NewBuildLog()
	l.Append(build.Commit{BuildSeq: 1})
	l.Append(build.Commit{BuildSeq: 2})
	l.Append(build.Commit{BuildSeq: 3})

	got := l.Since(1)
	if len(got) != 2 {
		t.Fatalf("len(Since(1)) = %d, want 2", len(got))
	}
	if got[0].BuildSeq != 2 || got[1].BuildSeq != 3 {
		t.Fatalf("unexpected order/content: %+v", got)
	}
}

func TestBuildLogEvictsOldestOverCapacity(t *testing.T) {
	l := NewBuildLog()
	for i := uint32(1); i <= BuildLogCapacity+10; i++ {
		l.Append(build.Commit{BuildSeq: i})
	}
	all := l.Since(0)
	if len(all) != BuildLogCapacity {
		t.Fatalf("len(Since(0)) = %d, want %d", len(all), BuildLogCapacity)
	}
	if all[0].BuildSeq != 11 {
		t.Fatalf("oldest surviving entry BuildSeq = %d, want 11", all[0].BuildSeq)
	}
}
