package proxy

import (
	"strings"

	"github.com/any-hub/any-proxy/internal/config"
)

// Skipper 判断某个 URL 是否应被整体跳过（不回复任何字节）。
type Skipper interface {
	Skip(url string) bool
}

// SkipperFunc adapts a function to the Skipper interface.
type SkipperFunc func(url string) bool

// Skip makes SkipperFunc satisfy Skipper.
func (f SkipperFunc) Skip(url string) bool {
	return f(url)
}

// Filter 按后缀与子串识别静态资源。
type Filter struct {
	Suffixes []string
	Contains []string
}

// NewFilter 从配置构建 Filter，规则被复制以免外部修改。
func NewFilter(cfg config.FilterConfig) *Filter {
	return &Filter{
		Suffixes: append([]string(nil), cfg.Suffixes...),
		Contains: append([]string(nil), cfg.Contains...),
	}
}

// DefaultFilter 返回内置的静态资源规则。
func DefaultFilter() *Filter {
	return NewFilter(config.FilterConfig{
		Suffixes: config.DefaultStaticSuffixes,
		Contains: config.DefaultStaticContains,
	})
}

// Skip 命中任一后缀或子串即返回 true。
func (f *Filter) Skip(url string) bool {
	if f == nil {
		return false
	}
	for _, suffix := range f.Suffixes {
		if strings.HasSuffix(url, suffix) {
			return true
		}
	}
	for _, part := range f.Contains {
		if strings.Contains(url, part) {
			return true
		}
	}
	return false
}
