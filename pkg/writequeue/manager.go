// Package writequeue 提供按 key 串行化的写队列
// 相同 key 的写操作按 FIFO 顺序逐个执行，SQLite 下所有写事务共用一个 key，避免 "database is locked"
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
	// ErrWriteTimeout 等待写操作结果超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	// QueueCapacity 每个 key 的队列容量
	QueueCapacity int
	// WriteTimeout 单次写操作（含排队）的最长等待时间
	WriteTimeout time.Duration
	// IdleTimeout 空闲队列的回收时间
	IdleTimeout time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// 写操作状态，worker 与等待方通过 CAS 争夺 opQueued
const (
	opQueued int32 = iota
	opRunning
	opAbandoned
)

type writeOp struct {
	ctx    context.Context
	fn     func(ctx context.Context) error
	result chan error
	state  atomic.Int32
}

// keyQueue 单个 key 的队列，由一个 worker 消费
type keyQueue struct {
	ch       chan *writeOp
	stop     chan struct{}
	lastUsed time.Time
}

// Manager 管理所有 key 的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*keyQueue
	closed bool

	workers   sync.WaitGroup
	janitor   sync.WaitGroup
	janitorCh chan struct{}
}

// New 创建写队列管理器，cfg 为 nil 时使用默认配置，logger 为 nil 时不输出日志
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
		config:    c,
		logger:    logger,
		queues:    make(map[string]*keyQueue),
		janitorCh: make(chan struct{}),
	}

	m.janitor.Add(1)
	go m.reapIdle()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute 将 fn 放入 key 对应的队列并等待其执行结果
// fn 收到的 ctx 带有 WriteTimeout 截止时间；超时前未开始的操作不再执行，
// 已开始的操作总是等到 fn 返回，返回值如实反映写入是否生效
func (m *Manager) Execute(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, m.config.WriteTimeout)
	defer cancel()

	op := &writeOp{ctx: opCtx, fn: fn, result: make(chan error, 1)}
	if err := m.enqueue(key, op); err != nil {
		return err
	}

	select {
	case err := <-op.result:
		return err
	case <-opCtx.Done():
	}

	if op.state.CompareAndSwap(opQueued, opAbandoned) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrWriteTimeout
	}
	// 已在执行，opCtx 结束会使 fn 尽快返回
	return <-op.result
}

// enqueue 在锁内取得（必要时创建）队列并非阻塞投递，保证不会投递到已回收的队列
func (m *Manager) enqueue(key string, op *writeOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrWriteQueueClosed
	}

	q, ok := m.queues[key]
	if !ok {
		q = &keyQueue{
			ch:   make(chan *writeOp, m.config.QueueCapacity),
			stop: make(chan struct{}),
		}
		m.queues[key] = q
		m.workers.Add(1)
		go m.work(key, q)
		m.logger.Debug("created write queue", zap.String("key", key))
	}
	q.lastUsed = time.Now()

	select {
	case q.ch <- op:
		return nil
	default:
		return ErrWriteQueueFull
	}
}

func (m *Manager) work(key string, q *keyQueue) {
	defer m.workers.Done()

	for {
		select {
		case op := <-q.ch:
			run(op)
		case <-q.stop:
			// 处理停止前已入队的操作
			for {
				select {
				case op := <-q.ch:
					run(op)
				default:
					m.logger.Debug("write queue worker stopped", zap.String("key", key))
					return
				}
			}
		}
	}
}

func run(op *writeOp) {
	if !op.state.CompareAndSwap(opQueued, opRunning) {
		return
	}
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn(op.ctx)
}

// reapIdle 定期回收空闲且为空的队列
func (m *Manager) reapIdle() {
	defer m.janitor.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.janitorCh:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, q := range m.queues {
				if len(q.ch) == 0 && now.Sub(q.lastUsed) > m.config.IdleTimeout {
					close(q.stop)
					delete(m.queues, key)
					m.logger.Debug("cleaning up idle write queue", zap.String("key", key))
				}
			}
			m.mu.Unlock()
		}
	}
}

// Shutdown 拒绝新的写操作，等待已入队的操作执行完毕
// ctx 到期时不再等待并返回 ctx.Err()
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for key, q := range m.queues {
		close(q.stop)
		delete(m.queues, key)
	}
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")
	close(m.janitorCh)

	done := make(chan struct{})
	go func() {
		m.workers.Wait()
		m.janitor.Wait()
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

// QueueCount 当前活跃的队列数
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}

// QueuedCount key 对应队列中等待的操作数
func (m *Manager) QueuedCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[key]; ok {
		return len(q.ch)
	}
	return 0
}

// IsClosed 是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Metrics 写队列指标
type Metrics struct {
	QueueCapacity int
	ActiveQueues  int
	IsClosed      bool
}

// GetMetrics 获取当前指标
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  len(m.queues),
		IsClosed:      m.closed,
	}
}
