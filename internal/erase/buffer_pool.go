package erase

import "sync"

// bufferPool hands out chunk buffers grouped by power-of-two size
// classes. Engine-owned, so two engines never contend on one pool.
type bufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

func newBufferPool() *bufferPool {
	return &bufferPool{pools: make(map[int]*sync.Pool)}
}

var poolSizes = []int{1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

func (bp *bufferPool) poolSize(size int) int {
	for _, s := range poolSizes {
		if size <= s {
			return s
		}
	}
	// Oversized requests round up to a 4KB boundary.
	return ((size + 4095) / 4096) * 4096
}

// get returns a buffer of exactly size bytes.
func (bp *bufferPool) get(size int) []byte {
	if size <= 0 {
		return nil
	}
	ps := bp.poolSize(size)

	bp.mu.RLock()
	pool, exists := bp.pools[ps]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		pool, exists = bp.pools[ps]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, ps)
				},
			}
			bp.pools[ps] = pool
		}
		bp.mu.Unlock()
	}
	return pool.Get().([]byte)[:size]
}

// put zeroes the buffer and returns it to its size class. Buffers from
// other pools are dropped.
func (bp *bufferPool) put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	ps := bp.poolSize(cap(buf))

	bp.mu.RLock()
	pool, exists := bp.pools[ps]
	bp.mu.RUnlock()
	if !exists {
		return
	}

	buf = buf[:cap(buf)]
	for i := range buf {
		buf[i] = 0
	}
	pool.Put(buf)
}
