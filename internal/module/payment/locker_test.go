package payment

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("Serializes access per key", func(t *testing.T) {
		locks := newKeyedMutex()
		key := uuid.New()

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock(key)
				defer unlock()
				counter++
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, counter)
	})

	t.Run("Releases entries once unused", func(t *testing.T) {
		locks := newKeyedMutex()

		unlock := locks.Lock(uuid.New())
		unlock()

		locks.mu.Lock()
		defer locks.mu.Unlock()
		assert.Empty(t, locks.entries)
	})

	t.Run("Distinct keys do not block each other", func(t *testing.T) {
		locks := newKeyedMutex()

		unlockA := locks.Lock(uuid.New())
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB := locks.Lock(uuid.New())
			unlockB()
			close(done)
		}()
		<-done
	})
}
