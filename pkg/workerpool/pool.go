// Package workerpool bounds the number of goroutines used by background work
// Package workerpool 限制后台任务使用的协程数量
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed Worker Pool 已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 任务在执行前被取消
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config Worker Pool 配置
type Config struct {
	MaxWorkers     int     // 最大并发 worker 数，默认 16
	QueueSize      int     // 队列长度，默认 256
	WarningPercent float64 // 活跃占比告警阈值，默认 0.8
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     16,
		QueueSize:      256,
		WarningPercent: 0.8,
	}
}

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool runs submitted functions on a fixed set of workers
// Pool 在固定数量的 worker 上执行提交的任务
type Pool struct {
	config Config
	logger *zap.Logger

	jobs     chan job
	workerWg sync.WaitGroup
	active   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New creates and starts a pool; nil cfg or logger fall back to defaults
// New 创建并启动 Worker Pool，cfg 或 logger 为 nil 时使用默认值
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
		if cfg.WarningPercent > 0 && cfg.WarningPercent <= 1 {
			c.WarningPercent = cfg.WarningPercent
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		logger: logger,
		jobs:   make(chan job, c.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < c.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))
	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(j)
		}
	}
}

func (p *Pool) run(j job) {
	n := p.active.Add(1)
	defer p.active.Add(-1)

	if threshold := int64(float64(p.config.MaxWorkers) * p.config.WarningPercent); n >= threshold && threshold > 0 {
		p.logger.Warn("worker pool approaching capacity",
			zap.Int64("activeCount", n),
			zap.Int("maxWorkers", p.config.MaxWorkers))
	}

	var err error
	if j.ctx.Err() != nil {
		err = ErrTaskCancelled
	} else {
		err = j.fn(j.ctx)
	}

	if j.done != nil {
		j.done <- err
	}
}

// enqueue 投递任务；block 为 true 时等待队列空位
func (p *Pool) enqueue(ctx context.Context, j job, block bool) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}

	if !block {
		select {
		case p.jobs <- j:
			return nil
		default:
			return ErrWorkerPoolFull
		}
	}

	select {
	case p.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// Submit runs fn and waits for its result
// Submit 提交任务并等待执行结果
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(ctx, job{ctx: ctx, fn: fn, done: done}, false); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 异步提交任务，不等待结果
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(ctx, job{ctx: ctx, fn: fn}, false)
}

// RunAll runs every fn on the pool, waiting for queue space instead of failing fast.
// The returned slice holds each fn's error at its own index.
// RunAll 在池中执行全部任务，队列满时等待而不是直接失败；返回值按下标对应每个任务的错误
func (p *Pool) RunAll(ctx context.Context, fns []func(context.Context) error) []error {
	errs := make([]error, len(fns))
	dones := make([]chan error, len(fns))

	for i, fn := range fns {
		dones[i] = make(chan error, 1)
		if err := p.enqueue(ctx, job{ctx: ctx, fn: fn, done: dones[i]}, true); err != nil {
			errs[i] = err
			dones[i] = nil
		}
	}

	for i, done := range dones {
		if done == nil {
			continue
		}
		select {
		case errs[i] = <-done:
		case <-p.ctx.Done():
			errs[i] = ErrWorkerPoolClosed
		}
	}
	return errs
}

// Shutdown stops intake and waits for queued work, cancelling it when ctx expires
// Shutdown 停止接收新任务并等待队列清空，ctx 到期时强制取消
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.active.Load()),
		zap.Int("queuedCount", len(p.jobs)))

	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// Metrics Worker Pool 指标
type Metrics struct {
	MaxWorkers    int
	ActiveCount   int64
	QueuedCount   int
	QueueCapacity int
	IsClosed      bool
}

// GetMetrics 获取当前指标
func (p *Pool) GetMetrics() Metrics {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	return Metrics{
		MaxWorkers:    p.config.MaxWorkers,
		ActiveCount:   p.active.Load(),
		QueuedCount:   len(p.jobs),
		QueueCapacity: p.config.QueueSize,
		IsClosed:      closed,
	}
}
