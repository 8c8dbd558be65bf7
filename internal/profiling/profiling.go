// Package profiling implements a lightweight per-tick CPU profiler: each
// room's tick loop resets it once per tick, subsystems (the tick itself,
// build handling, snapshot encoding) record their own elapsed time under
// a dotted name, and the room can log the heaviest contributors when a
// tick runs long.
package profiling

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	mu         sync.Mutex
	tickTotals = make(map[string]time.Duration)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		tickTotals[name] += d
		mu.Unlock()
	}
}

// ResetTick clears the current tick's totals. Call at the start of each
// room tick.
func ResetTick() {
	mu.Lock()
	for k := range tickTotals {
		delete(tickTotals, k)
	}
	mu.Unlock()
}

// Snapshot returns a copy of the current tick's totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(tickTotals))
	maps.Copy(out, tickTotals)
	return out
}

// Total returns the sum of all durations tracked this tick.
func Total() time.Duration {
	ss := Snapshot()
	var sum time.Duration
	for _, v := range ss {
		sum += v
	}
	return sum
}

// SumWithPrefix returns the sum of durations whose names start with any of the given prefixes.
func SumWithPrefix(prefixes ...string) time.Duration {
	ss := Snapshot()
	var sum time.Duration
	for k, v := range ss {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				sum += v
				break
			}
		}
	}
	return sum
}

// Add adds an arbitrary duration under the given name to the current tick's totals.
func Add(name string, d time.Duration) {
	if d <= 0 {
		return
	}
	mu.Lock()
	tickTotals[name] += d
	mu.Unlock()
}

// TopN formats the N heaviest contributors to the current tick, e.g.
// "server.tick:4.2ms, server.snapshotFrame:2.1ms".
func TopN(n int) string {
	mu.Lock()
	defer mu.Unlock()

	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(tickTotals))
	for k, v := range tickTotals {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ms := float64(list[i].dur.Microseconds()) / 1000.0
		parts = append(parts, list[i].name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

func formatMs(ms float64) string {
	return trimTrailingZerosF(ms) + "ms"
}

func trimTrailingZerosF(f float64) string {
	whole := int64(f)
	frac := int64((f-float64(whole))*10.0 + 0.0001)
	if frac <= 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	buf := make([]byte, 0, 20)
	for i > 0 {
		d := i % 10
		buf = append(buf, byte('0'+d))
		i /= 10
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}
