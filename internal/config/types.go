package config

import "time"

// Duration 由 loader 的 decode hook 解析，兼容 "30s" 形式与纯秒数。
type Duration time.Duration

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述代理进程的运行参数，所有连接共享同一份配置。
type GlobalConfig struct {
	ListenPort        int      `mapstructure:"ListenPort"`
	AdminPort         int      `mapstructure:"AdminPort"`
	MaxConcurrent     int      `mapstructure:"MaxConcurrent"`
	CacheCapacity     int      `mapstructure:"CacheCapacity"`
	UpstreamTimeout   Duration `mapstructure:"UpstreamTimeout"`
	ClientReadTimeout Duration `mapstructure:"ClientReadTimeout"`
	MaxBodyBytes      int64    `mapstructure:"MaxBodyBytes"`
	LogLevel          string   `mapstructure:"LogLevel"`
	LogFilePath       string   `mapstructure:"LogFilePath"`
	LogMaxSize        int      `mapstructure:"LogMaxSize"`
	LogMaxBackups     int      `mapstructure:"LogMaxBackups"`
	LogCompress       bool     `mapstructure:"LogCompress"`
}

// FilterConfig 定义“静态资源”识别规则，命中的请求会被直接丢弃。
type FilterConfig struct {
	Suffixes []string `mapstructure:"Suffixes"`
	Contains []string `mapstructure:"Contains"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Filter FilterConfig `mapstructure:"Filter"`
}

// DefaultStaticSuffixes 与 DefaultStaticContains 是未配置 [Filter] 时使用的规则。
var (
	DefaultStaticSuffixes = []string{".ico", ".png", ".jpg", ".css", ".js"}
	DefaultStaticContains = []string{"favicon", "/images/", "/client_204", "/xjs/"}
)

// AdminEnabled 表示是否需要启动诊断端口。
func (g GlobalConfig) AdminEnabled() bool {
	return g.AdminPort > 0
}
