// Package store implements the persistent chunk store: a write-through
// cache over an embedded ordered key-value store (goleveldb), with async
// disk loads and periodic dirty-batch flush.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"voxelengine/internal/voxel"
)

const metaKey = "meta:world"

// Meta is the fixed-key world metadata written on first open.
type Meta struct {
	Seed      int64 `json:"seed"`
	CreatedAt int64 `json:"created_at"`
}

// ChunkData is the disk/cache representation of one chunk.
type ChunkData struct {
	Coord  voxel.Coord
	Voxels [voxel.ChunkVolume]voxel.Packed
}

// Store is a write-through cache over an embedded KV store.
type Store struct {
	db *leveldb.DB

	mu    sync.RWMutex
	cache map[string]*ChunkData
	dirty map[string]bool

	meta Meta
}

// Open opens (or creates) the LevelDB database at path and loads/creates
// the world metadata.
func Open(path string, seedIfNew int64, now time.Time) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{
		db:    db,
		cache: make(map[string]*ChunkData),
		dirty: make(map[string]bool),
	}

	raw, err := db.Get([]byte(metaKey), nil)
	if err == leveldb.ErrNotFound {
		s.meta = Meta{Seed: seedIfNew, CreatedAt: now.Unix()}
		data, _ := json.Marshal(s.meta)
		if err := db.Put([]byte(metaKey), data, nil); err != nil {
			return nil, fmt.Errorf("store: write initial metadata: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("store: read metadata: %w", err)
	} else if err := json.Unmarshal(raw, &s.meta); err != nil {
		return nil, fmt.Errorf("store: parse metadata: %w", err)
	}

	return s, nil
}

// Meta returns the loaded world metadata.
func (s *Store) Meta() Meta { return s.meta }

func chunkKey(c voxel.Coord) []byte {
	return []byte("chunk:" + c.Key())
}

// Get performs a synchronous, cache-only lookup.
func (s *Store) Get(coord voxel.Coord) (*ChunkData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cd, ok := s.cache[coord.Key()]
	return cd, ok
}

// GetAsync loads from disk on a cache miss and populates the cache.
// Reported via callback, matching the core's fire-and-forget async
// convention; callers that want a blocking variant can wrap this.
func (s *Store) GetAsync(coord voxel.Coord, cb func(*ChunkData, error)) {
	go func() {
		if cd, ok := s.Get(coord); ok {
			cb(cd, nil)
			return
		}
		raw, err := s.db.Get(chunkKey(coord), nil)
		if err == leveldb.ErrNotFound {
			cb(nil, nil)
			return
		}
		if err != nil {
			cb(nil, fmt.Errorf("store: read chunk %s: %w", coord.Key(), err))
			return
		}
		cd, err := decodeChunk(raw)
		if err != nil {
			cb(nil, fmt.Errorf("store: decode chunk %s: %w", coord.Key(), err))
			return
		}
		s.mu.Lock()
		s.cache[coord.Key()] = cd
		s.mu.Unlock()
		cb(cd, nil)
	}()
}

// Set caches chunk and marks it dirty for the next flush.
func (s *Store) Set(coord voxel.Coord, data [voxel.ChunkVolume]voxel.Packed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[coord.Key()] = &ChunkData{Coord: coord, Voxels: data}
	s.dirty[coord.Key()] = true
}

// MarkDirty flags an already-cached chunk for the next flush. Flush writes
// the store's own cached copy, so edits made in place to a *voxel.Chunk
// are not written unless they are passed to Set.
func (s *Store) MarkDirty(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[key] = true
}

// Flush writes all dirty entries in one batch.
func (s *Store) Flush() error {
	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := new(leveldb.Batch)
	keys := make([]string, 0, len(s.dirty))
	for key := range s.dirty {
		cd, ok := s.cache[key]
		if !ok {
			continue
		}
		batch.Put(chunkKey(cd.Coord), encodeChunk(cd))
		keys = append(keys, key)
	}
	s.mu.Unlock()

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("store: flush batch: %w", err)
	}

	s.mu.Lock()
	for _, k := range keys {
		delete(s.dirty, k)
	}
	s.mu.Unlock()
	return nil
}

// RunPeriodicFlush flushes on the given cadence until ctx-like stop
// channel is closed.
func (s *Store) RunPeriodicFlush(interval time.Duration, stop <-chan struct{}, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Flush(); err != nil && onErr != nil {
				onErr(err)
			}
		case <-stop:
			return
		}
	}
}

// Close flushes any remaining dirty entries and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.db.Close()
}

// PutRaw writes an arbitrary key/value pair directly to the database,
// outside the chunk cache. The tile provider does not use it: tiles are
// held in memory only.
func (s *Store) PutRaw(key string, value []byte) error {
	if err := s.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

// GetRaw reads an arbitrary key directly from the database. Returns
// ok=false (no error) on a plain not-found.
func (s *Store) GetRaw(key string) (value []byte, ok bool, err error) {
	raw, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return raw, true, nil
}

func encodeChunk(cd *ChunkData) []byte {
	buf := make([]byte, 12+voxel.ChunkVolume*2)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(cd.Coord.X))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(cd.Coord.Y))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(cd.Coord.Z))
	for i, v := range cd.Voxels {
		binary.LittleEndian.PutUint16(buf[12+i*2:14+i*2], v)
	}
	return buf
}

func decodeChunk(buf []byte) (*ChunkData, error) {
	if len(buf) != 12+voxel.ChunkVolume*2 {
		return nil, fmt.Errorf("unexpected chunk record length %d", len(buf))
	}
	cd := &ChunkData{
		Coord: voxel.Coord{
			X: int(int32(binary.LittleEndian.Uint32(buf[0:4]))),
			Y: int(int32(binary.LittleEndian.Uint32(buf[4:8]))),
			Z: int(int32(binary.LittleEndian.Uint32(buf[8:12]))),
		},
	}
	for i := range cd.Voxels {
		cd.Voxels[i] = binary.LittleEndian.Uint16(buf[12+i*2 : 14+i*2])
	}
	return cd, nil
}
