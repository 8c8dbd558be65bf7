package provider

import (
	"testing"
	"time"

	"voxelengine/internal/stamp"
	"voxelengine/internal/store"
	"voxelengine/internal/terrain"
	"voxelengine/internal/voxel"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dir, 1, time.Now())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	tg := terrain.NewGenerator(1)
	pl := stamp.NewPlacer(1, stamp.DefaultLibrary(), tg)
	return New(st, tg, pl)
}

func TestGetOrCreateGeneratesThenCaches(t *testing.T) {
	p := newTestProvider(t)
	coord := voxel.Coord{X: 0, Y: 0, Z: 0}

	done := make(chan *voxel.Chunk, 1)
	p.GetOrCreateAsync(coord, false, func(c *voxel.Chunk) { done <- c })
	c1 := <-done
	if c1 == nil {
		t.Fatalf("expected a generated chunk")
	}

	if _, ok := p.Loaded(coord); !ok {
		t.Fatalf("chunk should be cached in memory after generation")
	}

	done2 := make(chan *voxel.Chunk, 1)
	p.GetOrCreateAsync(coord, false, func(c *voxel.Chunk) { done2 <- c })
	c2 := <-done2
	if c1 != c2 {
		t.Fatalf("second get_or_create should return the same cached chunk instance")
	}
}

func TestForceRegenBypassesCache(t *testing.T) {
	p := newTestProvider(t)
	coord := voxel.Coord{X: 5, Y: 0, Z: 5}

	done := make(chan *voxel.Chunk, 1)
	p.GetOrCreateAsync(coord, false, func(c *voxel.Chunk) { done <- c })
	<-done

	done2 := make(chan *voxel.Chunk, 1)
	p.GetOrCreateAsync(coord, true, func(c *voxel.Chunk) { done2 <- c })
	regen := <-done2
	if regen == nil {
		t.Fatalf("force_regen must still produce a chunk")
	}
}
