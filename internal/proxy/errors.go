package proxy

import "errors"

// 连接级错误分类，均只影响当前连接。
var (
	// ErrMalformedRequest 请求行缺失、过短或方法不是 GET，回复 400。
	ErrMalformedRequest = errors.New("malformed request line")
	// ErrOriginFailure 回源失败（任何原因），回复 404，且不写缓存。
	ErrOriginFailure = errors.New("origin failure")
	// ErrClientIO 读写客户端连接失败，只记录日志，不保证有响应。
	ErrClientIO = errors.New("client i/o failure")
)
