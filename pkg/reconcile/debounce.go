package reconcile

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultSearchDelay quiescence before a search is sent
const DefaultSearchDelay = 500 * time.Millisecond

// Debouncer collapses rapid calls into one call with the last value after a quiet interval
// Debouncer 在静默间隔后只以最后一个值调用一次
type Debouncer struct {
	delay time.Duration
	fn    func(string)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer delay <= 0 uses DefaultSearchDelay
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger restarts the quiet interval with v as the pending value
func (d *Debouncer) Trigger(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// 被更晚的 Trigger 取代
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.fn(v)
	})
}

// Stop drops the pending value, later Triggers are ignored
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// NewSearchDebouncer searches remote once typing has paused
// A blank query reports no hits without a network call.
// NewSearchDebouncer 输入停顿后再搜索，空查询不发请求
func NewSearchDebouncer(ctx context.Context, remote Remote, delay time.Duration, onResult func(q string, hits []SearchHit, err error)) *Debouncer {
	return NewDebouncer(delay, func(q string) {
		if strings.TrimSpace(q) == "" {
			onResult(q, []SearchHit{}, nil)
			return
		}
		hits, err := remote.SearchNotes(ctx, q)
		onResult(q, hits, err)
	})
}
