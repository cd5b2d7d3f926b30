package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tomb "gopkg.in/tomb.v2"
)

func TestPoolProcessesTasks(t *testing.T) {
	var tb tomb.Tomb
	pool := NewPool(3)

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup

	pool.Run(&tb, func(_ *tomb.Tomb, task any) error {
		defer wg.Done()
		n, ok := task.(int)
		if !ok {
			return errors.New("improper task type")
		}
		mu.Lock()
		seen[n] = true
		mu.Unlock()
		return nil
	})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.AddTask(i)
	}
	wg.Wait()

	mu.Lock()
	assert.Len(t, seen, 20)
	mu.Unlock()

	tb.Kill(nil)
	assert.NoError(t, tb.Wait())
}

func TestPoolStopsWhenTombDies(t *testing.T) {
	var tb tomb.Tomb
	pool := NewPool(2)

	pool.Run(&tb, func(_ *tomb.Tomb, _ any) error { return nil })
	tb.Kill(nil)

	done := make(chan error, 1)
	go func() { done <- tb.Wait() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("workers did not exit after tomb death")
	}
}
