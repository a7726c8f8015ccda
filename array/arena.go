package array

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/libidevices/libidevices-support/internal"
)

const minChunkSize = 64

// chunkBlock represents a contiguous memory block carved up by the Arena.
type chunkBlock struct {
	ptr uintptr
	len int
	cap int
	ref int64
	mem []byte
}

// allocation is a live region handed out by the Arena.
type allocation struct {
	block *chunkBlock
	size  int
}

// arenaOptions holds configuration settings for the Arena.
type arenaOptions struct {
	chunkSize int
	poolSize  int
	locker    sync.Locker
	memory    Memory
	logger    *slog.Logger
}

// Option defines a function type for configuring Arena parameters.
type Option func(*arenaOptions)

// WithChunkSize sets the size of the chunks small strings are carved from.
// Requests larger than a chunk get a dedicated block. Values below 64 are raised to 64.
func WithChunkSize(chunkSize int) Option {
	return func(o *arenaOptions) {
		o.chunkSize = chunkSize
	}
}

// WithPoolSize configures the maximum number of emptied chunks retained for reuse.
func WithPoolSize(poolSize int) Option {
	return func(o *arenaOptions) {
		o.poolSize = poolSize
	}
}

// WithEnableLock guards the Arena with a spin lock so that arrays living on
// different goroutines can share it. Arrays themselves are never synchronized.
func WithEnableLock(enableLock bool) Option {
	return func(o *arenaOptions) {
		if enableLock {
			o.locker = new(internal.SpinLock)
		} else {
			o.locker = nopLocker{}
		}
	}
}

// WithMemory specifies the source chunks are allocated from.
// Default: heapMemory (standard Go allocations).
func WithMemory(memory Memory) Option {
	return func(o *arenaOptions) {
		o.memory = memory
	}
}

// WithLogger sets the logger used for chunk level debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *arenaOptions) {
		o.logger = logger
	}
}

// Memory is the source of arena chunks. Alloc returns nil when it cannot
// provide size bytes.
type Memory interface {
	Alloc(size int) []byte
	Free(m []byte)
}

// Arena owns the bytes of duplicated strings. Every live allocation is
// tracked by its start address, so a free of anything the arena did not
// hand out (or already took back) is reported instead of corrupting memory.
type Arena struct {
	locker      sync.Locker
	memory      Memory
	logger      *slog.Logger
	chunkSize   int
	poolSize    int
	current     *chunkBlock
	chunkBlocks map[uintptr]*chunkBlock
	live        map[uintptr]allocation
	inUse       int
	freelist    []*chunkBlock
}

// NewArena creates a new Arena. Chunks are allocated lazily, on first use.
func NewArena(ops ...Option) *Arena {
	var opts = arenaOptions{
		chunkSize: 1024,
		poolSize:  64,
		locker:    nopLocker{},
		memory:    heapMemory{},
	}
	for _, op := range ops {
		op(&opts)
	}
	if nil == opts.memory {
		opts.memory = heapMemory{}
	}
	if nil == opts.logger {
		opts.logger = slog.Default()
	}

	return &Arena{
		locker:      opts.locker,
		memory:      opts.memory,
		logger:      opts.logger,
		chunkSize:   max(minChunkSize, opts.chunkSize),
		poolSize:    max(0, opts.poolSize),
		chunkBlocks: make(map[uintptr]*chunkBlock, 8),
		live:        make(map[uintptr]allocation, 64),
	}
}

// Alloc returns n bytes of arena memory. A zero or negative n returns nil.
func (ar *Arena) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	ar.locker.Lock()
	defer ar.locker.Unlock()

	if n > ar.chunkSize {
		block := ar.malloc(n)
		if nil == block {
			return nil, fmt.Errorf("%w: dedicated block of %d bytes", ErrOutOfMemory, n)
		}
		ar.chunkBlocks[block.ptr] = block
		return ar.carve(block, n), nil
	}

	if nil == ar.current || ar.current.cap-ar.current.len < n {
		block := ar.malloc(ar.chunkSize)
		if nil == block {
			return nil, fmt.Errorf("%w: chunk of %d bytes", ErrOutOfMemory, ar.chunkSize)
		}
		// A current chunk without references is always empty, so a full one still holds live data.
		if nil != ar.current {
			ar.chunkBlocks[ar.current.ptr] = ar.current
		}
		ar.current = block
	}

	return ar.carve(ar.current, n), nil
}

func (ar *Arena) carve(block *chunkBlock, n int) []byte {
	offset := block.len
	block.len += n
	block.ref++
	ar.live[block.ptr+uintptr(offset)] = allocation{block: block, size: n}
	ar.inUse += n
	return block.mem[offset : offset+n : offset+n]
}

// Free returns an allocation to the arena. b must be exactly a slice
// previously returned by Alloc; anything else yields ErrNotLive.
func (ar *Arena) Free(b []byte) error {
	if 0 == len(b) {
		return nil
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))

	ar.locker.Lock()
	defer ar.locker.Unlock()

	alloc, ok := ar.live[addr]
	if !ok || alloc.size != len(b) {
		return fmt.Errorf("%w: %#x (%d bytes)", ErrNotLive, addr, len(b))
	}
	delete(ar.live, addr)
	ar.inUse -= alloc.size

	block := alloc.block
	if block.ref--; block.ref <= 0 {
		block.len = 0
		block.ref = 0
		if ar.current != block {
			delete(ar.chunkBlocks, block.ptr)
			ar.recycle(block)
		}
	}
	return nil
}

// String duplicates s into the arena.
func (ar *Arena) String(s string) (string, error) {
	if 0 == len(s) {
		return "", nil
	}
	b, err := ar.Alloc(len(s))
	if err != nil {
		return "", err
	}
	copy(b, s)
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// FreeString returns a string obtained from String. The string, and every
// copy of it, must not be used afterwards.
func (ar *Arena) FreeString(s string) error {
	if 0 == len(s) {
		return nil
	}
	return ar.Free(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// Owns reports whether s is a live string allocated by this arena.
func (ar *Arena) Owns(s string) bool {
	if 0 == len(s) {
		return false
	}

	ar.locker.Lock()
	defer ar.locker.Unlock()

	alloc, ok := ar.live[uintptr(unsafe.Pointer(unsafe.StringData(s)))]
	return ok && alloc.size == len(s)
}

// Live returns the number of live allocations.
func (ar *Arena) Live() int {
	ar.locker.Lock()
	defer ar.locker.Unlock()
	return len(ar.live)
}

// InUse returns the number of bytes held by live allocations.
func (ar *Arena) InUse() int {
	ar.locker.Lock()
	defer ar.locker.Unlock()
	return ar.inUse
}

// Reset drops every chunk. All strings handed out by the arena become invalid.
func (ar *Arena) Reset() {
	ar.locker.Lock()
	defer ar.locker.Unlock()

	for _, block := range ar.chunkBlocks {
		ar.memory.Free(block.mem)
	}
	for _, block := range ar.freelist {
		ar.memory.Free(block.mem)
	}
	if nil != ar.current {
		ar.memory.Free(ar.current.mem)
	}

	ar.chunkBlocks = make(map[uintptr]*chunkBlock, 8)
	ar.live = make(map[uintptr]allocation, 64)
	ar.inUse = 0
	ar.freelist = nil
	ar.current = nil
}

func (ar *Arena) malloc(sz int) *chunkBlock {
	if len(ar.freelist) > 0 {
		if chunk := ar.selectChunk(sz); nil != chunk {
			return chunk
		}
	}

	m := ar.memory.Alloc(sz)
	if len(m) < sz {
		return nil
	}
	ar.logger.Debug("arena: chunk allocated", "size", len(m))
	return &chunkBlock{ptr: uintptr(unsafe.Pointer(unsafe.SliceData(m))), cap: len(m), mem: m}
}

// selectChunk takes the smallest pooled chunk that fits sz.
func (ar *Arena) selectChunk(sz int) *chunkBlock {
	var selected *chunkBlock
	var idx = -1
	for i, block := range ar.freelist {
		if block.cap >= sz && (nil == selected || block.cap < selected.cap) {
			selected = block
			idx = i
		}
	}
	if -1 == idx {
		return nil
	}

	var lastIdx = len(ar.freelist) - 1
	ar.freelist[idx], ar.freelist[lastIdx] = ar.freelist[lastIdx], ar.freelist[idx]
	ar.freelist[lastIdx] = nil
	ar.freelist = ar.freelist[:lastIdx]
	return selected
}

func (ar *Arena) recycle(block *chunkBlock) {
	if len(ar.freelist) < ar.poolSize {
		ar.freelist = append(ar.freelist, block)
		return
	}

	ar.memory.Free(block.mem)
	ar.logger.Debug("arena: chunk released", "size", block.cap)
	block.cap = 0
	block.ptr = 0
	block.mem = nil
}

type heapMemory struct{}

func (h heapMemory) Alloc(size int) []byte {
	return make([]byte, size)
}

func (h heapMemory) Free(m []byte) {
}

type nopLocker struct{}

func (n nopLocker) Lock() {
}

func (n nopLocker) Unlock() {
}
