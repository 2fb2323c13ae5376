// Package workerpool 固定 worker 数量的后台任务池
// 快照导出、统计刷新、同步提示广播都经由它执行，关闭时统一排空
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed 已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 任务开始执行前 ctx 已结束
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config 任务池配置，零值字段取 DefaultConfig 中的值
type Config struct {
	Name       string
	MaxWorkers int
	QueueSize  int
}

func DefaultConfig() Config {
	return Config{Name: "default", MaxWorkers: 4, QueueSize: 64}
}

type job struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan<- error // 异步任务为 nil
}

// Pool 任务池
type Pool struct {
	config Config
	logger *zap.Logger

	jobs    chan job
	workers sync.WaitGroup
	stopped chan struct{} // Shutdown 返回前关闭，唤醒仍在等待结果的 Submit

	active atomic.Int64
	failed atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.Name != "" {
			c.Name = cfg.Name
		}
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		config:  c,
		logger:  logger.With(zap.String("pool", c.Name)),
		jobs:    make(chan job, c.QueueSize),
		stopped: make(chan struct{}),
	}
	p.workers.Add(c.MaxWorkers)
	for range c.MaxWorkers {
		go func() {
			defer p.workers.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}

	p.logger.Debug("worker pool started", zap.Int("maxWorkers", c.MaxWorkers), zap.Int("queueSize", c.QueueSize))
	return p
}

func (p *Pool) run(j job) {
	p.active.Add(1)
	defer p.active.Add(-1)

	err := p.call(j)
	if err != nil {
		p.failed.Add(1)
	}
	if j.result != nil {
		j.result <- err
	} else if err != nil {
		p.logger.Warn("worker pool async task failed", zap.Error(err))
	}
}

// call 执行任务，panic 转为 error
func (p *Pool) call(j job) (err error) {
	if j.ctx.Err() != nil {
		return ErrTaskCancelled
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panic", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return j.fn(j.ctx)
}

func (p *Pool) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrWorkerPoolFull
	}
}

// Submit 提交任务并等待其返回
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	result := make(chan error, 1)
	if err := p.enqueue(job{ctx: ctx, fn: fn, result: result}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 提交任务后立即返回，任务失败只记录日志
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(job{ctx: ctx, fn: fn})
}

func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown 停止接收任务并等待队列排空，ctx 到期时返回 ctx.Err()，剩余任务仍在后台执行
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(drained)
	}()

	defer close(p.stopped)
	select {
	case <-drained:
		p.logger.Debug("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timeout",
			zap.Int64("activeCount", p.active.Load()),
			zap.Int("queuedCount", len(p.jobs)))
		return ctx.Err()
	}
}

// Metrics 任务池指标
type Metrics struct {
	Name          string
	MaxWorkers    int
	ActiveCount   int64
	FailedCount   int64
	QueuedCount   int
	QueueCapacity int
	IsClosed      bool
}

func (p *Pool) GetMetrics() Metrics {
	return Metrics{
		Name:          p.config.Name,
		MaxWorkers:    p.config.MaxWorkers,
		ActiveCount:   p.active.Load(),
		FailedCount:   p.failed.Load(),
		QueuedCount:   len(p.jobs),
		QueueCapacity: p.config.QueueSize,
		IsClosed:      p.IsClosed(),
	}
}
