package config

import "fmt"

// FieldError 提供字段路径与错误原因，便于 CLI 向用户反馈。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// newFieldError 创建包含字段路径与原因的 error，便于 CLI 定位。
func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// filterField 用于拼接 Filter 下的字段路径，例如 Filter.Suffixes[2]。
func filterField(field string, idx int) string {
	return fmt.Sprintf("Filter.%s[%d]", field, idx)
}
