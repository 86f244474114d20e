package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-proxy/internal/logging"
	"github.com/any-hub/any-proxy/internal/origin"
)

// Cache 是连接处理器依赖的缓存能力，internal/cache.LRU 满足该接口。
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
}

// Options 汇总 Handler 的依赖。
type Options struct {
	Cache       Cache
	Fetcher     origin.Fetcher
	Skipper     Skipper
	Logger      *logrus.Logger
	ReadTimeout time.Duration
}

// Handler 负责单个连接的完整生命周期：
// 解析请求行 → 过滤静态资源 → 查缓存 → 回源并写缓存 → 回复 → 关闭。
type Handler struct {
	cache       Cache
	fetcher     origin.Fetcher
	skipper     Skipper
	logger      *logrus.Logger
	readTimeout time.Duration
}

// NewHandler 校验依赖并构造 Handler；Skipper 与 Logger 可省略。
func NewHandler(opts Options) (*Handler, error) {
	if opts.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("origin fetcher is required")
	}
	skipper := opts.Skipper
	if skipper == nil {
		skipper = SkipperFunc(func(string) bool { return false })
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		cache:       opts.Cache,
		fetcher:     opts.Fetcher,
		skipper:     skipper,
		logger:      logger,
		readTimeout: opts.ReadTimeout,
	}, nil
}

// connContext 是每个连接独享的临时状态，连接关闭后即丢弃。
type connContext struct {
	id      string
	remote  string
	started time.Time
	line    string
	method  string
	url     string
}

// Outcome 描述一次连接处理的结果，主要用于日志与测试断言。
type Outcome struct {
	// Status 为已写出的 HTTP 状态码，0 表示没有写出任何响应。
	Status   int
	CacheHit bool
	Skipped  bool
	URL      string
	Err      error
}

// Serve 处理 conn 直到结束并关闭它。ctx 的取消不会中断已开始的回源。
func (h *Handler) Serve(ctx context.Context, conn net.Conn) (outcome Outcome) {
	cc := &connContext{
		id:      uuid.NewString(),
		started: time.Now(),
	}
	if addr := conn.RemoteAddr(); addr != nil {
		cc.remote = addr.String()
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{URL: cc.url, Err: fmt.Errorf("panic: %v", r)}
			h.logger.WithFields(logging.ConnFields(cc.id, cc.remote)).
				WithField("action", "proxy").
				Error("connection_panic")
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			h.logger.WithError(err).WithFields(logging.ConnFields(cc.id, cc.remote)).Warn("connection_close_failed")
		}
		h.logResult(cc, outcome)
	}()

	h.logger.WithFields(logging.ConnFields(cc.id, cc.remote)).Debug("connection_accepted")
	return h.handle(context.WithoutCancel(ctx), conn, cc)
}

func (h *Handler) handle(ctx context.Context, conn net.Conn, cc *connContext) Outcome {
	if h.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}

	line, err := readRequestLine(bufio.NewReader(conn))
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, errLineTooLong):
		return h.reject(conn, cc, fmt.Errorf("%w: %v", ErrMalformedRequest, err))
	default:
		return Outcome{Err: fmt.Errorf("%w: read request line: %v", ErrClientIO, err)}
	}
	cc.line = line

	req, err := ParseRequestLine(line)
	if err != nil {
		return h.reject(conn, cc, err)
	}
	cc.method = req.Method
	cc.url = NormalizeTarget(req.Target)

	if h.skipper.Skip(cc.url) {
		h.logger.WithFields(logging.ConnFields(cc.id, cc.remote)).
			WithField("url", cc.url).
			Debug("static_resource_skipped")
		return Outcome{Skipped: true, URL: cc.url}
	}

	if body, ok := h.cache.Get(cc.url); ok {
		h.logger.WithFields(logging.RequestFields(cc.id, cc.remote, cc.url, true)).Debug("cache_hit")
		return h.respond(conn, cc, http.StatusOK, body, true)
	}
	h.logger.WithFields(logging.RequestFields(cc.id, cc.remote, cc.url, false)).Debug("cache_miss")

	body, err := h.fetcher.Fetch(ctx, cc.url)
	if err != nil {
		outcome := h.respond(conn, cc, http.StatusNotFound, nil, false)
		if outcome.Err == nil {
			outcome.Err = fmt.Errorf("%w: %v", ErrOriginFailure, err)
		}
		return outcome
	}

	h.cache.Put(cc.url, body)
	return h.respond(conn, cc, http.StatusOK, body, false)
}

func (h *Handler) reject(conn net.Conn, cc *connContext, cause error) Outcome {
	outcome := h.respond(conn, cc, http.StatusBadRequest, nil, false)
	if outcome.Err == nil {
		outcome.Err = cause
	}
	return outcome
}

func (h *Handler) respond(conn net.Conn, cc *connContext, status int, body []byte, cacheHit bool) Outcome {
	outcome := Outcome{Status: status, CacheHit: cacheHit, URL: cc.url}
	if err := writeResponse(conn, status, body); err != nil {
		outcome.Status = 0
		outcome.Err = fmt.Errorf("%w: write response: %v", ErrClientIO, err)
	}
	return outcome
}

func (h *Handler) logResult(cc *connContext, outcome Outcome) {
	fields := logging.RequestFields(cc.id, cc.remote, cc.url, outcome.CacheHit)
	fields["action"] = "proxy"
	fields["status"] = outcome.Status
	fields["skipped"] = outcome.Skipped
	fields["elapsed_ms"] = time.Since(cc.started).Milliseconds()
	if cc.method != "" {
		fields["method"] = cc.method
	}

	switch {
	case outcome.Err == nil:
		h.logger.WithFields(fields).Info("connection_complete")
	case errors.Is(outcome.Err, ErrMalformedRequest):
		fields["request_line"] = cc.line
		fields["error"] = outcome.Err.Error()
		h.logger.WithFields(fields).Warn("connection_rejected")
	default:
		fields["error"] = outcome.Err.Error()
		h.logger.WithFields(fields).Error("connection_failed")
	}
}
