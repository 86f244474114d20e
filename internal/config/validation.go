package config

import (
	"errors"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.AdminPort < 0 || g.AdminPort > 65535 {
		return newFieldError("Global.AdminPort", "必须为 0 或 1-65535")
	}
	if g.AdminPort != 0 && g.AdminPort == g.ListenPort {
		return newFieldError("Global.AdminPort", "不能与 ListenPort 相同")
	}
	if g.MaxConcurrent <= 0 {
		return newFieldError("Global.MaxConcurrent", "必须大于 0")
	}
	if g.CacheCapacity <= 0 {
		return newFieldError("Global.CacheCapacity", "必须大于 0")
	}
	if int64(g.CacheCapacity) > math.MaxInt32 {
		return newFieldError("Global.CacheCapacity", "不能超过 2147483647")
	}
	if g.UpstreamTimeout.DurationValue() < 0 {
		return newFieldError("Global.UpstreamTimeout", "不能为负数")
	}
	if g.ClientReadTimeout.DurationValue() < 0 {
		return newFieldError("Global.ClientReadTimeout", "不能为负数")
	}
	if g.MaxBodyBytes < 0 {
		return newFieldError("Global.MaxBodyBytes", "不能为负数")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别: "+g.LogLevel)
	}
	if g.LogFilePath != "" && (g.LogMaxSize < 0 || g.LogMaxBackups < 0) {
		return newFieldError("Global.LogMaxSize/LogMaxBackups", "不能为负数")
	}

	if err := validateRules("Suffixes", c.Filter.Suffixes); err != nil {
		return err
	}
	return validateRules("Contains", c.Filter.Contains)
}

func validateRules(field string, rules []string) error {
	for i, rule := range rules {
		if strings.TrimSpace(rule) == "" {
			return newFieldError(filterField(field, i), "不能为空")
		}
	}
	return nil
}
