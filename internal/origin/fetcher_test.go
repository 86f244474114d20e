package origin

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/any-hub/any-proxy/internal/config"
)

func TestFetchReturnsExactBytesOn200(t *testing.T) {
	payload := []byte("line1\r\nline2\n\x00\xffbinary")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_, _ = w.Write(payload)
	}))
	defer upstream.Close()

	body, err := NewHTTPFetcher(upstream.Client(), 0).Fetch(context.Background(), upstream.URL+"/doc")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Fatalf("正文应逐字节一致，得到 %q", body)
	}
}

func TestFetchNon200IsStatusError(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNoContent, http.StatusMovedPermanently} {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code == http.StatusMovedPermanently {
				// 没有 Location 时 net/http 不会跟随重定向。
				w.WriteHeader(code)
				return
			}
			http.Error(w, "nope", code)
		}))

		_, err := NewHTTPFetcher(upstream.Client(), 0).Fetch(context.Background(), upstream.URL)
		upstream.Close()

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("status %d: expected StatusError, got %v", code, err)
		}
		if statusErr.Code != code {
			t.Fatalf("expected code %d, got %d", code, statusErr.Code)
		}
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("moved here"))
	}))
	defer upstream.Close()

	body, err := NewHTTPFetcher(upstream.Client(), 0).Fetch(context.Background(), upstream.URL+"/old")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if string(body) != "moved here" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = NewHTTPFetcher(nil, 0).Fetch(context.Background(), "http://"+addr+"/")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFetchTruncatedBodyFails(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
		}
	}))
	defer upstream.Close()

	_, err := NewHTTPFetcher(upstream.Client(), 0).Fetch(context.Background(), upstream.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("中途断开的正文应视为失败，得到 %v", err)
	}
}

func TestFetchHonoursBodyLimit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer upstream.Close()

	if _, err := NewHTTPFetcher(upstream.Client(), 32).Fetch(context.Background(), upstream.URL); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	body, err := NewHTTPFetcher(upstream.Client(), 64).Fetch(context.Background(), upstream.URL)
	if err != nil || len(body) != 64 {
		t.Fatalf("正好等于上限时应成功，len=%d err=%v", len(body), err)
	}
}

func TestFetchUsesClientTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer upstream.Close()
	defer close(release)

	client := NewClient(config.GlobalConfig{UpstreamTimeout: config.Duration(50 * time.Millisecond)})
	if _, err := NewHTTPFetcher(client, 0).Fetch(context.Background(), upstream.URL); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected timeout to surface as ErrFetchFailed, got %v", err)
	}
}

func TestNewClientTimeout(t *testing.T) {
	if client := NewClient(config.GlobalConfig{}); client.Timeout != 0 {
		t.Fatalf("未配置时不应设置超时，得到 %s", client.Timeout)
	}
	client := NewClient(config.GlobalConfig{UpstreamTimeout: config.Duration(45 * time.Second)})
	if client.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", client.Timeout)
	}
}

func TestFetcherFunc(t *testing.T) {
	var f Fetcher = FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		return []byte(url), nil
	})
	body, err := f.Fetch(context.Background(), "http://x/")
	if err != nil || string(body) != "http://x/" {
		t.Fatalf("unexpected result %q %v", body, err)
	}
}
