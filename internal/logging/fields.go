package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ConnFields 提供连接 ID 与客户端地址字段，供连接处理日志复用。
func ConnFields(connID, remote string) logrus.Fields {
	return logrus.Fields{
		"conn_id": connID,
		"remote":  remote,
	}
}

// RequestFields 在连接字段基础上补充 URL 与缓存命中状态。
func RequestFields(connID, remote, url string, cacheHit bool) logrus.Fields {
	fields := ConnFields(connID, remote)
	fields["url"] = url
	fields["cache_hit"] = cacheHit
	return fields
}
