package eventloop

import (
	"context"
	"log"
	"time"

	"mekicopy/src/worker"
)

// Op performs one full capture operation (select or load a region, OCR it,
// deliver the text) and returns the delivered text.
type Op func(ctx context.Context) (string, error)

// Callbacks are posted from the loop goroutine when a triggered operation
// resolves. All three may be nil.
type Callbacks struct {
	// OnResult fires when an operation completes, successfully or not.
	OnResult func(text string, err error)
	// OnBusy fires when a trigger arrives while an operation is in flight.
	OnBusy func()
	// OnStateChange reports busy/idle flips (tray tooltip updates).
	OnStateChange func(busy bool)
}

// Loop is the single-goroutine coordinator for resident mode. Hotkey and
// tray events post triggers into it; the blocking OCR work runs on a worker
// pool so the loop itself never stalls. All state (the busy flag) is owned
// by the one goroutine running Run, matching the program's single-threaded
// interaction model.
type Loop struct {
	op       Op
	cb       Callbacks
	pool     *worker.Pool
	deadline time.Duration

	busy     bool
	triggers chan struct{}
	results  chan result
}

type result struct {
	text   string
	err    error
	cancel context.CancelFunc
}

// New creates an event loop around op. deadline bounds one operation end to
// end; zero means no bound beyond the OCR engine's own.
func New(op Op, deadline time.Duration, cb Callbacks) *Loop {
	return &Loop{
		op:       op,
		cb:       cb,
		pool:     worker.New(1),
		deadline: deadline,
		triggers: make(chan struct{}, 4),
		results:  make(chan result, 1),
	}
}

// Trigger requests one capture operation. Safe to call from any goroutine;
// excess triggers beyond the small buffer are dropped.
func (l *Loop) Trigger() {
	select {
	case l.triggers <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.triggers:
			l.handleTrigger(ctx)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleTrigger(ctx context.Context) {
	if l.busy {
		log.Printf("Trigger while busy, refusing")
		if l.cb.OnBusy != nil {
			l.cb.OnBusy()
		}
		return
	}

	jobCtx := ctx
	var cancel context.CancelFunc
	if l.deadline > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, l.deadline)
	}

	submitted := l.pool.Submit(jobCtx, func(c context.Context) (string, error) {
		return l.op(c)
	}, func(text string, err error) {
		l.results <- result{text: text, err: err, cancel: cancel}
	})
	if !submitted {
		if cancel != nil {
			cancel()
		}
		if l.cb.OnBusy != nil {
			l.cb.OnBusy()
		}
		return
	}
	l.setBusy(true)
}

func (l *Loop) handleResult(res result) {
	if res.cancel != nil {
		res.cancel()
	}
	l.setBusy(false)
	if res.err != nil {
		log.Printf("Capture operation failed: %v", res.err)
	}
	if l.cb.OnResult != nil {
		l.cb.OnResult(res.text, res.err)
	}
}

func (l *Loop) setBusy(b bool) {
	if l.busy == b {
		return
	}
	l.busy = b
	if l.cb.OnStateChange != nil {
		l.cb.OnStateChange(b)
	}
}
