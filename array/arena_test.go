package array

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingMemory records chunk traffic and can be told to fail.
type countingMemory struct {
	allocs int
	frees  int
	fail   bool
}

func (m *countingMemory) Alloc(size int) []byte {
	if m.fail {
		return nil
	}
	m.allocs++
	return make([]byte, size)
}

func (m *countingMemory) Free(b []byte) {
	m.frees++
}

func TestArena_String(t *testing.T) {
	ar := NewArena()

	for i := 0; i < 1000; i++ {
		want := fmt.Sprintf("device-%d", i)
		got, err := ar.String(want)
		require.NoError(t, err)
		if want != got {
			t.Fatalf("mismatch: %q != %q", got, want)
		}
		assert.True(t, ar.Owns(got))
		assert.False(t, ar.Owns(want))
	}
	assert.Equal(t, 1000, ar.Live())
}

func TestArena_StringIsIndependent(t *testing.T) {
	ar := NewArena()
	src := []byte("Hello")
	dup, err := ar.String(string(src))
	require.NoError(t, err)

	src[0] = 'J'
	assert.Equal(t, "Hello", dup)
}

func TestArena_AllocFree(t *testing.T) {
	ar := NewArena(WithChunkSize(512))

	sizes := []int{16, 32, 64, 128, 256, 512, 1024, 2048, 4098, 9012, 10240}
	for i := 0; i < 10000; i++ {
		b, err := ar.Alloc(sizes[i%len(sizes)])
		require.NoError(t, err)
		require.Len(t, b, sizes[i%len(sizes)])
		require.NoError(t, ar.Free(b))
	}
	assert.Equal(t, 0, ar.Live())
	assert.Equal(t, 0, ar.InUse())

	p1, err := ar.Alloc(80)
	require.NoError(t, err)
	p2, err := ar.Alloc(60)
	require.NoError(t, err)
	assert.Equal(t, 140, ar.InUse())
	require.NoError(t, ar.Free(p1))
	require.NoError(t, ar.Free(p2))
	assert.Equal(t, 0, ar.InUse())

	b, err := ar.Alloc(0)
	assert.NoError(t, err)
	assert.Nil(t, b)
	assert.NoError(t, ar.Free(nil))
}

func TestArena_DoubleFree(t *testing.T) {
	ar := NewArena()
	s, err := ar.String("iPhone")
	require.NoError(t, err)

	require.NoError(t, ar.FreeString(s))
	assert.True(t, errors.Is(ar.FreeString(s), ErrNotLive))
	assert.Equal(t, 0, ar.Live())
}

func TestArena_FreeForeign(t *testing.T) {
	ar := NewArena()
	s, err := ar.String("iPhone")
	require.NoError(t, err)

	assert.True(t, errors.Is(ar.FreeString("iPhone"), ErrNotLive))
	assert.True(t, errors.Is(ar.FreeString(s[:3]), ErrNotLive))
	assert.True(t, errors.Is(ar.FreeString(s[1:]), ErrNotLive))
	assert.True(t, ar.Owns(s))
	assert.NoError(t, ar.FreeString(""))
}

func TestArena_ChunkReuse(t *testing.T) {
	mem := &countingMemory{}
	ar := NewArena(WithChunkSize(64), WithPoolSize(1), WithMemory(mem))

	// fill two chunks, then empty them again
	var held []string
	for i := 0; i < 16; i++ {
		s, err := ar.String(strings.Repeat("x", 8))
		require.NoError(t, err)
		held = append(held, s)
	}
	assert.Equal(t, 2, mem.allocs)
	for _, s := range held {
		require.NoError(t, ar.FreeString(s))
	}
	// the first chunk went to the pool, the second is still current
	assert.Equal(t, 0, mem.frees)

	for i := 0; i < 16; i++ {
		_, err := ar.String(strings.Repeat("y", 8))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, mem.allocs)

	ar.Reset()
	assert.Equal(t, 2, mem.frees)
	assert.Equal(t, 0, ar.Live())
}

func TestArena_PoolOverflow(t *testing.T) {
	mem := &countingMemory{}
	ar := NewArena(WithChunkSize(64), WithPoolSize(0), WithMemory(mem))

	big, err := ar.Alloc(100)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.allocs)
	require.NoError(t, ar.Free(big))
	assert.Equal(t, 1, mem.frees)
}

func TestArena_OutOfMemory(t *testing.T) {
	mem := &countingMemory{fail: true}
	ar := NewArena(WithMemory(mem))

	_, err := ar.String("iPad")
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	_, err = ar.Alloc(4096)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.Equal(t, 0, ar.Live())
}

func TestArena_Concurrent(t *testing.T) {
	ar := NewArena(WithEnableLock(true), WithChunkSize(128))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s, err := ar.String(fmt.Sprintf("%d-%d", g, i))
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, ar.FreeString(s))
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 0, ar.Live())
}
