package server

import (
	"sync"

	"voxelengine/internal/build"
)

// BuildLogCapacity is the bounded ring size from spec §3.8 ("at least
// 1000 entries").
const BuildLogCapacity = 1000

// BuildLog is the append-only, per-room bounded ring of committed build
// intents, used to answer BUILD_SYNC backfill requests from reconnecting
// clients.
type BuildLog struct {
	mu      sync.Mutex
	entries []build.Commit
}

// NewBuildLog builds an empty log.
func NewBuildLog() *BuildLog {
	return &BuildLog{}
}

// Append records a successful commit, evicting the oldest entry once the
// ring is over capacity.
func (l *BuildLog) Append(c build.Commit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, c)
	if over := len(l.entries) - BuildLogCapacity; over > 0 {
		l.entries = l.entries[over:]
	}
}

// Since returns every entry with BuildSeq strictly greater than seq, in
// commit order — the payload of a BUILD_SYNC response.
func (l *BuildLog) Since(seq uint32) []build.Commit {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]build.Commit, 0, len(l.entries))
	for _, e := range l.entries {
		if e.BuildSeq > seq {
			out = append(out, e)
		}
	}
	return out
}
