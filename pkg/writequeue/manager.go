// Package writequeue serializes writes that share a key
// Package writequeue 串行化同一 key 的写操作
//
// The live article row is written through one queue per article, so SQLite
// never sees two writers for the same row and updates apply in FIFO order.
// 每篇文章一个队列，同一行的写入按 FIFO 顺序执行，避免 SQLite "database is locked"
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
	// ErrWriteQueueFull 队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 管理器已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 写操作超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	QueueCapacity int           // 每个 key 的队列容量，默认 100
	WriteTimeout  time.Duration // 单次写等待上限，默认 30 秒
	IdleTimeout   time.Duration // 空闲队列回收时间，默认 10 分钟
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

type keyQueue struct {
	key      int64
	ch       chan writeOp
	lastUsed atomic.Int64
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func (q *keyQueue) stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// Manager owns one lazily created queue per key
// Manager 为每个 key 懒加载一个写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[int64]*keyQueue
	closed bool

	ctx       context.Context
	cancel    context.CancelFunc
	cleanupWg sync.WaitGroup
}

// New creates a manager; nil cfg or logger fall back to defaults
// New 创建写队列管理器，cfg 或 logger 为 nil 时使用默认值
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

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config: c,
		logger: logger,
		queues: make(map[int64]*keyQueue),
		ctx:    ctx,
		cancel: cancel,
	}

	m.cleanupWg.Add(1)
	go m.cleanupLoop()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))
	return m
}

// Execute runs fn on key's queue and waits for its result
// Execute 在 key 对应的队列中执行 fn 并等待结果
func (m *Manager) Execute(ctx context.Context, key int64, fn func() error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrWriteQueueClosed
	}
	q := m.queueLocked(key)
	m.mu.Unlock()

	result := make(chan error, 1)
	select {
	case q.ch <- writeOp{ctx: ctx, fn: fn, result: result}:
	default:
		return ErrWriteQueueFull
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
	case <-m.ctx.Done():
		return ErrWriteQueueClosed
	}
}

// queueLocked 获取或创建队列，调用方需持有 m.mu
func (m *Manager) queueLocked(key int64) *keyQueue {
	if q, ok := m.queues[key]; ok {
		q.lastUsed.Store(time.Now().UnixNano())
		return q
	}
	q := &keyQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	q.lastUsed.Store(time.Now().UnixNano())
	m.queues[key] = q
	go m.worker(q)

	m.logger.Debug("created write queue", zap.Int64("key", key))
	return q
}

func (m *Manager) worker(q *keyQueue) {
	defer close(q.doneCh)
	for {
		select {
		case op := <-q.ch:
			m.execute(q, op)
		case <-q.stopCh:
			m.drain(q)
			return
		}
	}
}

func (m *Manager) execute(q *keyQueue, op writeOp) {
	q.lastUsed.Store(time.Now().UnixNano())
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn()
}

func (m *Manager) drain(q *keyQueue) {
	for {
		select {
		case op := <-q.ch:
			m.execute(q, op)
		default:
			return
		}
	}
}

func (m *Manager) cleanupLoop() {
	defer m.cleanupWg.Done()
	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.cleanupIdle()
		}
	}
}

// cleanupIdle 回收空闲且为空的队列
func (m *Manager) cleanupIdle() {
	threshold := time.Now().Add(-m.config.IdleTimeout).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, q := range m.queues {
		if q.lastUsed.Load() < threshold && len(q.ch) == 0 {
			q.stop()
			delete(m.queues, key)
			m.logger.Debug("cleaned up idle write queue", zap.Int64("key", key))
		}
	}
}

// Shutdown drains every queue, giving up when ctx expires
// Shutdown 排空所有队列，ctx 到期时放弃等待
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*keyQueue, 0, len(m.queues))
	for _, q := range m.queues {
		q.stop()
		queues = append(queues, q)
	}
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down", zap.Int("queues", len(queues)))

	done := make(chan struct{})
	go func() {
		for _, q := range queues {
			<-q.doneCh
		}
		close(done)
	}()

	defer func() {
		m.cancel()
		m.cleanupWg.Wait()
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

// QueueCount 当前活跃队列数
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}
