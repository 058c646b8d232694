package orch

import (
	"context"
	"sync"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(16)
	stopped := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return l
}

// TestLoopPreservesOrder checks handlers from one poster run in post order.
func TestLoopPreservesOrder(t *testing.T) {
	l := startLoop(t)
	var got []int
	for i := 0; i < 100; i++ {
		if !l.Post(func() { got = append(got, i) }) {
			t.Fatal("Post refused")
		}
	}
	l.Do(func() {})
	for i, v := range got {
		if v != i {
			t.Fatalf("handler %d ran at position %d", v, i)
		}
	}
	if len(got) != 100 {
		t.Errorf("ran %d handlers", len(got))
	}
}

// TestLoopSerializesPosters checks handlers never overlap.
func TestLoopSerializesPosters(t *testing.T) {
	l := startLoop(t)
	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Do(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	l.Do(func() {})
	if counter != 400 {
		t.Errorf("counter = %d, want 400", counter)
	}
}

// TestLoopSurvivesPanic checks one failing handler does not stop the loop.
func TestLoopSurvivesPanic(t *testing.T) {
	l := startLoop(t)
	l.Do(func() { panic("boom") })
	ran := false
	if !l.Do(func() { ran = true }) || !ran {
		t.Error("loop stopped after a panic")
	}
}

func TestLoopPostAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(1)
	stopped := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	if l.Post(func() {}) {
		t.Error("Post accepted after stop")
	}
}
