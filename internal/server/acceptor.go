package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"

	"github.com/any-hub/any-proxy/internal/limiter"
)

// ErrListener 表示无法监听或 accept 失败，属于致命错误，不做重试。
var ErrListener = errors.New("listener failure")

// ConnHandler 处理一个已接受的连接，并负责关闭它。
type ConnHandler interface {
	ServeConn(ctx context.Context, conn net.Conn)
}

// ConnHandlerFunc adapts a function to the ConnHandler interface.
type ConnHandlerFunc func(ctx context.Context, conn net.Conn)

// ServeConn makes ConnHandlerFunc satisfy ConnHandler.
func (f ConnHandlerFunc) ServeConn(ctx context.Context, conn net.Conn) {
	f(ctx, conn)
}

// AcceptorOptions 汇总 Acceptor 的依赖。
type AcceptorOptions struct {
	Handler ConnHandler
	Limiter *limiter.Limiter
	Logger  *logrus.Logger
}

// Acceptor 运行 accept → acquire → dispatch 循环。
type Acceptor struct {
	handler  ConnHandler
	limiter  *limiter.Limiter
	logger   *logrus.Logger
	accepted atomic.Uint64
}

// NewAcceptor 校验依赖并构造 Acceptor。
func NewAcceptor(opts AcceptorOptions) (*Acceptor, error) {
	if opts.Handler == nil {
		return nil, errors.New("connection handler is required")
	}
	if opts.Limiter == nil {
		return nil, errors.New("limiter is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Acceptor{
		handler: opts.Handler,
		limiter: opts.Limiter,
		logger:  opts.Logger,
	}, nil
}

// Accepted 返回累计接受的连接数。
func (a *Acceptor) Accepted() uint64 {
	return a.accepted.Load()
}

// Serve 在 ln 上循环接受连接，直到 ctx 结束（返回 nil）或 accept 失败（返回 ErrListener）。
// 返回前会等待所有已派发的连接处理完毕。
func (a *Acceptor) Serve(ctx context.Context, ln net.Listener) error {
	workers := pool.New().WithMaxGoroutines(a.limiter.Capacity())
	defer workers.Wait()

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: accept: %v", ErrListener, err)
		}

		permit, err := a.limiter.Acquire(ctx)
		if err != nil {
			_ = conn.Close()
			return nil
		}
		a.accepted.Inc()

		workers.Go(func() {
			defer permit.Release()
			a.dispatch(ctx, conn)
		})
	}
}

// dispatch 兜底 handler 的 panic，避免单个连接拖垮 worker pool。
func (a *Acceptor) dispatch(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			_ = conn.Close()
			a.logger.WithFields(logrus.Fields{
				"action": "dispatch",
				"remote": conn.RemoteAddr().String(),
			}).Errorf("dispatch_panic: %v", r)
		}
	}()
	a.handler.ServeConn(ctx, conn)
}

// Listen 绑定 TCP 端口，失败时返回 ErrListener。
func Listen(port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: bind :%d: %v", ErrListener, port, err)
	}
	return ln, nil
}
