package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FinBot/internal/domain/models"
	"FinBot/internal/usecase"
)

type recordingProc struct {
	mu       sync.Mutex
	done     chan string
	rejected []string
	block    chan struct{}
	panicOn  string
}

func (p *recordingProc) Process(_ context.Context, cmd models.Command) error {
	if p.block != nil {
		<-p.block
	}
	if cmd.Name == p.panicOn {
		panic("boom")
	}
	p.done <- cmd.ID
	return nil
}

func (p *recordingProc) Reject(_ context.Context, cmd models.Command, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, cmd.ID)
}

type allowList map[string]bool

func (a allowList) Allow(key string) bool { return a[key] }

func TestPipelineRunsCommands(t *testing.T) {
	proc := &recordingProc{done: make(chan string, 4), panicOn: "explode"}
	p := NewCommandPipeline(proc, nil, nil, WithWorkers(2))

	if err := p.Dispatch(context.Background(), models.Command{ID: "early"}); err == nil {
		t.Fatalf("dispatch before start should fail")
	}

	p.Start(context.Background())
	defer p.Stop()

	if err := p.Dispatch(context.Background(), models.Command{ID: "boom", Name: "explode"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	for _, id := range []string{"1", "2"} {
		if err := p.Dispatch(context.Background(), models.Command{ID: id, UserID: "u"}); err != nil {
			t.Fatalf("dispatch %s: %v", id, err)
		}
	}
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-proc.done:
			got[id] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for commands, got %v", got)
		}
	}
	if !got["1"] || !got["2"] {
		t.Fatalf("ran %v", got)
	}
}

func TestPipelineRateLimits(t *testing.T) {
	proc := &recordingProc{done: make(chan string, 1)}
	p := NewCommandPipeline(proc, nil, nil, WithLimiter(allowList{"ok": true}))
	p.Start(context.Background())
	defer p.Stop()

	err := p.Dispatch(context.Background(), models.Command{ID: "x", UserID: "spammer"})
	if !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if len(proc.rejected) != 1 {
		t.Fatalf("rejection not recorded")
	}
}

func TestPipelineBufferFull(t *testing.T) {
	proc := &recordingProc{done: make(chan string, 4), block: make(chan struct{})}
	p := NewCommandPipeline(proc, nil, nil, WithWorkers(1), WithBufferSize(1))
	p.Start(context.Background())

	// first occupies the worker, second fills the buffer
	_ = p.Dispatch(context.Background(), models.Command{ID: "1"})
	time.Sleep(20 * time.Millisecond)
	_ = p.Dispatch(context.Background(), models.Command{ID: "2"})
	if err := p.Dispatch(context.Background(), models.Command{ID: "3"}); err == nil {
		t.Fatalf("expected buffer full error")
	}
	close(proc.block)
	p.Stop()
}

type fakeQueue struct {
	msgs []interface{}
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.msgs = append(q.msgs, payload)
	return "id", nil
}

func (q *fakeQueue) Depth(context.Context) (int64, error) { return int64(len(q.msgs)), nil }

func TestQueueDispatcher(t *testing.T) {
	q := &fakeQueue{}
	proc := &recordingProc{}
	d := NewQueueDispatcher(q, proc, allowList{"u": true}, nil)

	if err := d.Dispatch(context.Background(), models.Command{ID: "1", UserID: "u"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(q.msgs) != 1 {
		t.Fatalf("queue = %v", q.msgs)
	}
	if err := d.Dispatch(context.Background(), models.Command{ID: "2", UserID: "other"}); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	q.err = errors.New("redis down")
	if err := d.Dispatch(context.Background(), models.Command{ID: "3", UserID: "u"}); err == nil {
		t.Fatalf("expected enqueue error")
	}
}
