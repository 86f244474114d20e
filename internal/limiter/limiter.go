// Package limiter 提供连接级的准入控制：固定数量的 permit，获取时阻塞，
// 释放幂等，保证每个被派发的连接在任何退出路径上都能归还 permit。
package limiter

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"
)

// ErrInvalidSize 表示 permit 数量不为正数。
var ErrInvalidSize = errors.New("limiter size must be positive")

// Limiter 是基于带缓冲 channel 的计数信号量，容量在构造后不可变。
type Limiter struct {
	slots  chan struct{}
	active atomic.Int64
}

// New 创建拥有 n 个 permit 的 Limiter。
func New(n int) (*Limiter, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	return &Limiter{slots: make(chan struct{}, n)}, nil
}

// Acquire 阻塞直到有空闲 permit 或 ctx 结束；ctx 仅用于进程退出时解除阻塞。
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	l.active.Inc()
	return &Permit{limiter: l}, nil
}

// TryAcquire 在没有空闲 permit 时立即返回 false。
func (l *Limiter) TryAcquire() (*Permit, bool) {
	select {
	case l.slots <- struct{}{}:
		l.active.Inc()
		return &Permit{limiter: l}, true
	default:
		return nil, false
	}
}

// Active 返回当前被持有的 permit 数。
func (l *Limiter) Active() int {
	return int(l.active.Load())
}

// Capacity 返回 permit 总数。
func (l *Limiter) Capacity() int {
	return cap(l.slots)
}

func (l *Limiter) release() {
	l.active.Dec()
	<-l.slots
}

// Permit 代表一次成功的 Acquire，Release 可重复调用，只有第一次生效。
type Permit struct {
	limiter *Limiter
	once    sync.Once
}

// Release 归还 permit。nil Permit 上调用是安全的空操作。
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(p.limiter.release)
}

// Do 获取 permit 后执行 fn，并在 fn 返回或 panic 时归还 permit。
func (l *Limiter) Do(ctx context.Context, fn func()) error {
	permit, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer permit.Release()
	fn()
	return nil
}
