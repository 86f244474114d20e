package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// adminShutdownTimeout 限制诊断端口的优雅关闭时间。
const adminShutdownTimeout = 5 * time.Second

// RunOptions 描述一次完整的服务运行：代理监听器必填，诊断端口可选。
type RunOptions struct {
	Acceptor      *Acceptor
	ProxyListener net.Listener
	Admin         *fiber.App
	AdminListener net.Listener
	Logger        *logrus.Logger
}

// Run 启动诊断端口（若配置）并在前台运行代理 accept 循环。
// ctx 结束时两者都会关闭，返回合并后的错误。
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Acceptor == nil || opts.ProxyListener == nil {
		return errors.New("acceptor and proxy listener are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adminErr := make(chan error, 1)
	if opts.Admin != nil && opts.AdminListener != nil {
		go func() {
			err := opts.Admin.Listener(opts.AdminListener, fiber.ListenConfig{
				DisableStartupMessage: true,
			})
			if err != nil {
				// 诊断端口异常退出时一并停止代理。
				cancel()
			}
			adminErr <- err
		}()
	}

	serveErr := opts.Acceptor.Serve(ctx, opts.ProxyListener)

	var err error
	err = multierr.Append(err, serveErr)
	if opts.Admin != nil && opts.AdminListener != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
		err = multierr.Append(err, opts.Admin.ShutdownWithContext(shutdownCtx))
		cancel()
		err = multierr.Append(err, <-adminErr)
	}

	if opts.Logger != nil {
		fields := logrus.Fields{"action": "shutdown", "accepted": opts.Acceptor.Accepted()}
		if err != nil {
			opts.Logger.WithFields(fields).WithError(err).Error("server_stopped")
		} else {
			opts.Logger.WithFields(fields).Info("server_stopped")
		}
	}
	return err
}
