package internal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinLock_TryLock(t *testing.T) {
	var sl SpinLock
	assert.True(t, sl.TryLock())
	assert.False(t, sl.TryLock())
	sl.Unlock()
	assert.True(t, sl.TryLock())
	sl.Unlock()
}

func TestSpinLock_Contended(t *testing.T) {
	var (
		sl      SpinLock
		wg      sync.WaitGroup
		counter int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				sl.Lock()
				counter++
				sl.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)
}
