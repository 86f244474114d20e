package proxy

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
)

// writeResponse 输出单个响应：状态行、Content-Length、空行、正文。
func writeResponse(w io.Writer, status int, body []byte) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("HTTP/1.1 ")
	bw.WriteString(strconv.Itoa(status))
	bw.WriteByte(' ')
	bw.WriteString(http.StatusText(status))
	bw.WriteString("\r\nContent-Length: ")
	bw.WriteString(strconv.Itoa(len(body)))
	bw.WriteString("\r\n\r\n")
	bw.Write(body)
	return bw.Flush()
}
