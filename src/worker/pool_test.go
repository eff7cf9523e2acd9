package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSubmitRunsJob(t *testing.T) {
	p := New(1)
	defer p.Close()

	done := make(chan string, 1)
	ok := p.Submit(context.Background(), func(context.Context) (string, error) {
		return "text", nil
	}, func(text string, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- text
	})
	if !ok {
		t.Fatal("Submit refused an empty pool")
	}

	select {
	case text := <-done:
		if text != "text" {
			t.Errorf("callback got %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestSubmitBackPressure(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	results := make(chan error, 3)

	// First job occupies the worker.
	p.Submit(context.Background(), func(context.Context) (string, error) {
		close(started)
		<-block
		return "", nil
	}, func(string, error) { results <- nil })
	<-started

	// Second occupies the single queue slot; third must be refused.
	if !p.Submit(context.Background(), func(context.Context) (string, error) { return "", nil },
		func(string, error) { results <- nil }) {
		t.Fatal("second submission should occupy the queue slot")
	}
	if p.Submit(context.Background(), func(context.Context) (string, error) { return "", nil },
		func(string, error) { results <- nil }) {
		t.Error("third submission should be refused while the slot is taken")
	}

	close(block)
	for i := 0; i < 2; i++ {
		select {
		case <-results:
		case <-time.After(2 * time.Second):
			t.Fatal("queued jobs did not complete")
		}
	}
}

func TestErrorsReachCallback(t *testing.T) {
	p := New(1)
	defer p.Close()

	boom := errors.New("recognize failed")
	done := make(chan error, 1)
	p.Submit(context.Background(), func(context.Context) (string, error) {
		return "", boom
	}, func(_ string, err error) { done <- err })

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("callback err = %v, want original failure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestCloseDrainsWork(t *testing.T) {
	p := New(2)
	var mu sync.Mutex
	completed := 0
	for i := 0; i < 2; i++ {
		p.Submit(context.Background(), func(context.Context) (string, error) {
			return "", nil
		}, func(string, error) {
			mu.Lock()
			completed++
			mu.Unlock()
		})
	}
	p.Close()

	mu.Lock()
	defer mu.Unlock()
	if completed != 2 {
		t.Errorf("Close returned with %d of 2 jobs completed", completed)
	}
}
