package config

import (
	"testing"
	"time"
)

func TestLoadFailsWithInvalidFields(t *testing.T) {
	if _, err := Load(testConfigPath(t, "invalid.toml")); err == nil {
		t.Fatalf("MaxConcurrent=0 的配置应返回错误")
	}
}

func TestLoadFailsWhenFileMissing(t *testing.T) {
	if _, err := Load(testConfigPath(t, "does-not-exist.toml")); err == nil {
		t.Fatalf("缺失的配置文件应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
ListenPort = 8080
UpstreamTimeout = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsNumericSeconds(t *testing.T) {
	cfg := `
ListenPort = 9000
UpstreamTimeout = 3
ClientReadTimeout = "1.5"
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if got := loaded.Global.UpstreamTimeout.DurationValue(); got != 3*time.Second {
		t.Fatalf("UpstreamTimeout 应为 3s，得到 %s", got)
	}
	if got := loaded.Global.ClientReadTimeout.DurationValue(); got != 1500*time.Millisecond {
		t.Fatalf("ClientReadTimeout 应为 1.5s，得到 %s", got)
	}
}

func TestLoadFilterOverrides(t *testing.T) {
	cfg := `
ListenPort = 8080

[Filter]
Suffixes = [".svg"]
Contains = []
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if len(loaded.Filter.Suffixes) != 1 || loaded.Filter.Suffixes[0] != ".svg" {
		t.Fatalf("Suffixes 应被覆盖，得到 %v", loaded.Filter.Suffixes)
	}
	if len(loaded.Filter.Contains) != 0 {
		t.Fatalf("显式空数组应关闭 Contains 规则，得到 %v", loaded.Filter.Contains)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `LogLevel = "debug"`)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	g := loaded.Global
	if g.ListenPort != 8080 || g.MaxConcurrent != 10 || g.CacheCapacity != 5 {
		t.Fatalf("缺省字段应使用默认值，得到 %+v", g)
	}
	if g.AdminEnabled() {
		t.Fatalf("诊断端口默认关闭")
	}
	if len(loaded.Filter.Suffixes) != len(DefaultStaticSuffixes) || len(loaded.Filter.Contains) != len(DefaultStaticContains) {
		t.Fatalf("未声明 [Filter] 时应使用默认规则，得到 %+v", loaded.Filter)
	}
}
