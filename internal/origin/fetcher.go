// Package origin 负责向源站发起 GET 并返回完整正文。它不持有可变状态，
// 也不写缓存：是否缓存由连接处理器决定。
package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrFetchFailed 包装所有网络层失败（DNS、拒绝连接、超时、读正文中断）。
	ErrFetchFailed = errors.New("origin fetch failed")
	// ErrBodyTooLarge 表示正文超过 MaxBodyBytes。
	ErrBodyTooLarge = errors.New("origin body exceeds limit")
)

// StatusError 表示源站返回了非 200 状态码。
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("origin %s responded with status %d", e.URL, e.Code)
}

// Fetcher 抽象回源能力，测试中可注入假实现。
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch makes FetcherFunc satisfy Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPFetcher 使用共享 http.Client 回源，只有 200 视为成功。
type HTTPFetcher struct {
	client  *http.Client
	maxBody int64
}

// NewHTTPFetcher 构造 HTTPFetcher；maxBody <= 0 表示不限制正文大小。
func NewHTTPFetcher(client *http.Client, maxBody int64) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Transport: defaultTransport.Clone()}
	}
	return &HTTPFetcher{client: client, maxBody: maxBody}
}

// Fetch 执行 GET 并完整读取正文。正文按原始字节返回，不做换行符转换。
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 排空少量正文以便连接复用。
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	return f.readBody(resp.Body)
}

func (f *HTTPFetcher) readBody(body io.Reader) ([]byte, error) {
	if f.maxBody <= 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if int64(len(data)) > f.maxBody {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
