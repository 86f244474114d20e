package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxRequestLine 限制请求行长度，超出视为格式错误。
const maxRequestLine = 8 << 10

// RequestLine 是解析后的请求行。
type RequestLine struct {
	Raw     string
	Method  string
	Target  string
	Version string
}

// errLineTooLong 在请求行超过 maxRequestLine 时返回。
var errLineTooLong = errors.New("request line too long")

// readRequestLine 读取一行（以 \n 结束，去掉末尾 \r）。
// 连接在任何字节到达前关闭时返回 io.EOF；
// 没有换行但有数据时按完整行处理。
func readRequestLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := r.ReadLine()
		sb.Write(chunk)
		if sb.Len() > maxRequestLine {
			return "", errLineTooLong
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if !isPrefix {
			return sb.String(), nil
		}
	}
}

// ParseRequestLine 校验 "METHOD TARGET [VERSION]"，只接受 GET。
func ParseRequestLine(line string) (RequestLine, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return RequestLine{}, fmt.Errorf("%w: empty line", ErrMalformedRequest)
	}
	if fields[0] != "GET" {
		return RequestLine{}, fmt.Errorf("%w: unsupported method %q", ErrMalformedRequest, fields[0])
	}
	if len(fields) < 2 {
		return RequestLine{}, fmt.Errorf("%w: missing target", ErrMalformedRequest)
	}

	req := RequestLine{
		Raw:    line,
		Method: fields[0],
		Target: fields[1],
	}
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return req, nil
}

// NormalizeTarget 将 "//host/path" 形式补全为 http 绝对 URL，其余原样返回。
func NormalizeTarget(target string) string {
	if strings.HasPrefix(target, "//") {
		return "http:" + target
	}
	return target
}
