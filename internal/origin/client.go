package origin

import (
	"net"
	"net/http"
	"time"

	"github.com/any-hub/any-proxy/internal/config"
)

// 共享的回源 Transport，复用长连接并集中配置拨号/握手超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   16,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewClient 返回回源使用的 http.Client。
//
// UpstreamTimeout 为 0 时不设置整体超时：挂起的源站会一直占用 worker 与 permit，
// 需要限制时请在配置中显式开启。
func NewClient(cfg config.GlobalConfig) *http.Client {
	client := &http.Client{
		Transport: defaultTransport.Clone(),
	}
	if timeout := cfg.UpstreamTimeout.DurationValue(); timeout > 0 {
		client.Timeout = timeout
	}
	return client
}
