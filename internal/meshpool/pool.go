// Package meshpool implements the mesh worker pool: a fixed set of
// workers draining a priority queue ahead of a regular queue, with batch
// cancellation. Grid buffers are not pooled or recycled.
package meshpool

import (
	"context"
	"sync"

	"voxelengine/internal/material"
	"voxelengine/internal/mesh"
	"voxelengine/internal/voxel"
)

// Grid is what a job hands to a worker: the chunk to mesh and the source
// its margin reads resolve neighbors through. The worker builds its
// working grid from these for each job; no grid buffer is kept in a pool
// or reused between jobs.
type Grid struct {
	Chunk     *voxel.Chunk
	Neighbors voxel.NeighborSource
}

// Job is one unit of mesh work.
type Job struct {
	ChunkKey string
	Grid     Grid
	Skip     mesh.SkipHighBoundary
	Priority bool
	Callback func(Result)
}

// Result is what a worker reports back after meshing.
type Result struct {
	ChunkKey string
	Mesh     *mesh.Mesh
	Err      error
}

// CancelFn deregisters a dispatched batch: queued items are dropped and
// any in-flight callbacks replaced with no-ops.
type CancelFn func()

// Pool is a fixed worker pool meshing chunks with Surface Nets.
type Pool struct {
	registry *material.Registry

	mu         sync.Mutex
	priorityQ  []*Job
	regularQ   []*Job
	inFlight   map[string]bool
	cancelled  map[string]bool
	previewSet map[string]bool

	notify chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	resultMu sync.Mutex
	onResult func(Result) // main-loop callback dispatcher, called from worker goroutines
}

// New creates a pool with the given worker count.
func New(workers int, reg *material.Registry) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		registry:   reg,
		inFlight:   make(map[string]bool),
		cancelled:  make(map[string]bool),
		previewSet: make(map[string]bool),
		notify:     make(chan struct{}, workers*2+1),
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.notify:
		}
		for {
			job := p.pop()
			if job == nil {
				break
			}
			p.run(job)
		}
	}
}

func (p *Pool) pop() *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.priorityQ) > 0 {
		j := p.priorityQ[0]
		p.priorityQ = p.priorityQ[1:]
		return j
	}
	if len(p.regularQ) > 0 {
		j := p.regularQ[0]
		p.regularQ = p.regularQ[1:]
		return j
	}
	return nil
}

func (p *Pool) run(job *Job) {
	p.mu.Lock()
	if p.cancelled[job.ChunkKey] {
		delete(p.cancelled, job.ChunkKey)
		delete(p.inFlight, job.ChunkKey)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	grid := mesh.NewChunkGridSource(job.Grid.Chunk, job.Grid.Neighbors)
	m := mesh.Build(grid, p.registry, job.Skip, nil)

	p.mu.Lock()
	cancelled := p.cancelled[job.ChunkKey]
	delete(p.cancelled, job.ChunkKey)
	delete(p.inFlight, job.ChunkKey)
	p.mu.Unlock()

	if cancelled {
		return
	}
	if job.Callback != nil {
		job.Callback(Result{ChunkKey: job.ChunkKey, Mesh: m})
	}
}

// Dispatch enqueues a single mesh job. If priority is set it's drained
// ahead of regular work.
func (p *Pool) Dispatch(job Job) {
	p.mu.Lock()
	p.inFlight[job.ChunkKey] = true
	if job.Priority {
		p.priorityQ = append(p.priorityQ, &job)
	} else {
		p.regularQ = append(p.regularQ, &job)
	}
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// DispatchBatch enqueues all items and calls onAllDone once every item has
// completed. Returns a CancelFn that removes queued items and replaces
// in-flight callbacks with no-ops; once it has run, onAllDone is never
// called.
func (p *Pool) DispatchBatch(items []Job, onAllDone func([]Result)) CancelFn {
	results := make([]Result, len(items))
	var remaining int32 = int32(len(items))
	var mu sync.Mutex
	cancelled := false

	for i := range items {
		idx := i
		origCb := items[i].Callback
		items[i].Callback = func(r Result) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				return
			}
			results[idx] = r
			remaining--
			done := remaining == 0
			mu.Unlock()
			if origCb != nil {
				origCb(r)
			}
			if done && onAllDone != nil {
				onAllDone(results)
			}
		}
		p.Dispatch(items[i])
	}

	return func() {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		for _, it := range items {
			p.CancelChunk(it.ChunkKey)
		}
	}
}

// CancelChunk removes queued work for key and marks any in-flight result
// to be silently dropped. A job that is still queued (never popped by a
// worker) is dequeued here and never reaches run's inFlight cleanup, so
// its inFlight entry is cleared directly to keep InFlight accurate for
// the streaming scheduler.
func (p *Pool) CancelChunk(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled[key] = true
	removed := false

	filtered := p.priorityQ[:0]
	for _, j := range p.priorityQ {
		if j.ChunkKey == key {
			removed = true
		} else {
			filtered = append(filtered, j)
		}
	}
	p.priorityQ = filtered

	filtered2 := p.regularQ[:0]
	for _, j := range p.regularQ {
		if j.ChunkKey == key {
			removed = true
		} else {
			filtered2 = append(filtered2, j)
		}
	}
	p.regularQ = filtered2

	if removed {
		delete(p.inFlight, key)
	}
}

// InFlight reports whether key currently has a queued or in-progress job.
func (p *Pool) InFlight(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight[key]
}

// MarkPreview/IsPreviewChunk let the streaming scheduler distinguish
// build-preview re-meshes from streaming re-meshes, to avoid double
// dispatch of the same chunk under two different priorities.
func (p *Pool) MarkPreview(key string) {
	p.mu.Lock()
	p.previewSet[key] = true
	p.mu.Unlock()
}

func (p *Pool) UnmarkPreview(key string) {
	p.mu.Lock()
	delete(p.previewSet, key)
	p.mu.Unlock()
}

func (p *Pool) IsPreviewChunk(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.previewSet[key]
}

// Shutdown stops all workers and waits for them to exit. A worker that is
// already draining the queues keeps running jobs until they are empty.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
