// Package writequeue serializes operations that share a key
// Package writequeue 串行化同一 key 下的操作
//
// Every key gets a lazily created FIFO lane with its own worker goroutine. The server keys
// lanes by owner so check-then-write sequences of one user never interleave; the client
// keys them by note id so a second commit waits until the first one has finished.
// 每个 key 懒加载一个 FIFO 通道及其 worker。服务端按用户划分，客户端按笔记 ID 划分。
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull returned when the lane of a key is full
	// ErrWriteQueueFull 当 key 对应的队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned after Shutdown
	// ErrWriteQueueClosed 管理器关闭后返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when the caller waited longer than WriteTimeout
	// ErrWriteTimeout 等待超过 WriteTimeout 时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-key queue capacity, default 100
	// QueueCapacity 每个 key 的队列容量，默认 100
	QueueCapacity int
	// WriteTimeout how long Execute waits for its operation, default 30 seconds
	// WriteTimeout Execute 等待操作完成的最长时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout a lane without work for this long is released, default 10 minutes
	// IdleTimeout 空闲超过该时长的队列会被释放，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type op struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// lane FIFO of a single key
// lane 单个 key 的 FIFO
type lane struct {
	key string
	ch  chan op
}

// Manager owns the lanes of all keys
// Manager 管理所有 key 的队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool

	executed atomic.Int64
	stop     chan struct{}
	workers  sync.WaitGroup
}

// New creates a write queue manager, nil cfg uses DefaultConfig and nil logger a nop logger
// New 创建写队列管理器，cfg 为 nil 使用默认配置，logger 为 nil 使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config: c,
		logger: logger,
		lanes:  make(map[string]*lane),
		stop:   make(chan struct{}),
	}

	m.logger.Debug("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute runs fn after every operation queued earlier under the same key
// Execute 在同一 key 下之前排队的操作全部完成后执行 fn
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	result := make(chan error, 1)

	if err := m.enqueue(key, op{ctx: ctx, fn: fn, result: result}); err != nil {
		return err
	}

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

// enqueue hands o to the lane of key, creating the lane and its worker on first use
// lanes are only created and released while holding m.mu, so a send never races an exiting worker
func (m *Manager) enqueue(key string, o op) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrWriteQueueClosed
	}

	l, ok := m.lanes[key]
	if !ok {
		l = &lane{key: key, ch: make(chan op, m.config.QueueCapacity)}
		m.lanes[key] = l
		m.workers.Add(1)
		go m.work(l)
		m.logger.Debug("write queue lane created", zap.String("key", key))
	}

	select {
	case l.ch <- o:
		return nil
	default:
		return ErrWriteQueueFull
	}
}

func (m *Manager) work(l *lane) {
	defer m.workers.Done()

	idle := time.NewTimer(m.config.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case o := <-l.ch:
			m.run(o)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(m.config.IdleTimeout)
		case <-idle.C:
			if m.release(l) {
				return
			}
			idle.Reset(m.config.IdleTimeout)
		case <-m.stop:
			for {
				select {
				case o := <-l.ch:
					m.run(o)
				default:
					return
				}
			}
		}
	}
}

// release drops an idle lane, reporting false when work arrived in the meantime
func (m *Manager) release(l *lane) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(l.ch) > 0 {
		return false
	}
	delete(m.lanes, l.key)
	m.logger.Debug("write queue lane released", zap.String("key", l.key))
	return true
}

func (m *Manager) run(o op) {
	if err := o.ctx.Err(); err != nil {
		o.result <- err
		return
	}
	err := o.fn()
	m.executed.Add(1)
	o.result <- err
}

// Shutdown stops accepting work, runs what is already queued and waits for the workers
// Shutdown 停止接收新操作，执行已排队的操作并等待 worker 退出
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout")
		return ctx.Err()
	}
}

// QueueCount number of live lanes
// QueueCount 当前存活的队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lanes)
}

// QueuedCount operations waiting under key
// QueuedCount 指定 key 下等待中的操作数
func (m *Manager) QueuedCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lanes[key]; ok {
		return len(l.ch)
	}
	return 0
}

// IsClosed reports whether Shutdown was called
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Metrics write queue manager metrics
// Metrics 写队列管理器指标
type Metrics struct {
	QueueCapacity int   `json:"queueCapacity"`
	ActiveQueues  int   `json:"activeQueues"`
	Executed      int64 `json:"executed"`
	IsClosed      bool  `json:"isClosed"`
}

// GetMetrics snapshot of the current metrics
// GetMetrics 当前指标快照
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  len(m.lanes),
		Executed:      m.executed.Load(),
		IsClosed:      m.closed,
	}
}
