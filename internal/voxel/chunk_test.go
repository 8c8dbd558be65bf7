package voxel

import "testing"

func TestChunkGetSet(t *testing.T) {
	c := NewChunk(Coord{0, 0, 0})
	if c.Get(1, 2, 3) != 0 {
		t.Fatalf("new chunk must be all-air")
	}
	v := Pack(0.5, 7, 10)
	c.Set(1, 2, 3, v)
	if got := c.Get(1, 2, 3); got != v {
		t.Fatalf("get/set mismatch: got %v want %v", got, v)
	}
	if !c.IsDirty() {
		t.Fatalf("chunk must be dirty after a mutating Set")
	}
	c.SetClean()
	if c.IsDirty() {
		t.Fatalf("SetClean must clear dirty bit")
	}
}

func TestChunkOutOfRange(t *testing.T) {
	c := NewChunk(Coord{0, 0, 0})
	c.Set(-1, 0, 0, Pack(0.5, 1, 1))
	c.Set(32, 0, 0, Pack(0.5, 1, 1))
	if c.IsDirty() {
		t.Fatalf("out-of-range writes must be ignored, not mark dirty")
	}
}

func TestChunkAllSolidAllEmpty(t *testing.T) {
	c := NewChunk(Coord{0, 0, 0})
	if !c.AllEmpty() || c.AllSolid() {
		t.Fatalf("new chunk must be all-empty")
	}
	c.Fill(0.5, 1, 31)
	if !c.AllSolid() || c.AllEmpty() {
		t.Fatalf("filled chunk must be all-solid")
	}
}

type fakeNeighbors map[Coord]*Chunk

func (f fakeNeighbors) Neighbor(c Coord) *Chunk { return f[c] }

func TestGetWithMarginNeighborPresent(t *testing.T) {
	c := NewChunk(Coord{0, 0, 0})
	nb := NewChunk(Coord{1, 0, 0})
	nb.Set(0, 5, 5, Pack(0.5, 9, 0))
	neighbors := fakeNeighbors{Coord{1, 0, 0}: nb}

	got := c.GetWithMargin(ChunkSize, 5, 5, neighbors)
	if got != Pack(0.5, 9, 0) {
		t.Fatalf("expected neighbor voxel, got %v", got)
	}
}

func TestGetWithMarginNeighborAbsentExtrapolates(t *testing.T) {
	c := NewChunk(Coord{0, 0, 0})
	c.Set(ChunkSize-1, 5, 5, Pack(0.5, 3, 0))
	got := c.GetWithMargin(ChunkSize, 5, 5, fakeNeighbors{})
	if got != Pack(0.5, 3, 0) {
		t.Fatalf("expected extrapolated boundary voxel when neighbor absent, got %v", got)
	}
}
