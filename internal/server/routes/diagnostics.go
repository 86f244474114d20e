package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/any-proxy/internal/cache"
	"github.com/any-hub/any-proxy/internal/server"
)

// CacheSource 暴露缓存的只读诊断信息。
type CacheSource interface {
	Stats() cache.Stats
	Keys() []string
}

// LimiterSource 暴露并发限制器的当前占用。
type LimiterSource interface {
	Active() int
	Capacity() int
}

// AcceptSource 暴露累计接受的连接数。
type AcceptSource interface {
	Accepted() uint64
}

// Sources 汇总诊断接口依赖的数据源，Acceptor 可为空。
type Sources struct {
	Cache    CacheSource
	Limiter  LimiterSource
	Acceptor AcceptSource
}

// RegisterDiagnosticsRoutes 暴露 /-/stats 与 /-/cache/keys，其余路径返回 404。
func RegisterDiagnosticsRoutes(app *fiber.App, src Sources) {
	if app == nil || src.Cache == nil || src.Limiter == nil {
		return
	}

	app.Get("/-/stats", func(c fiber.Ctx) error {
		return c.JSON(encodeStats(src))
	})

	app.Get("/-/cache/keys", func(c fiber.Ctx) error {
		keys := src.Cache.Keys()
		return c.JSON(fiber.Map{
			"order": "mru_to_lru",
			"keys":  keys,
			"count": len(keys),
		})
	})

	app.Use(server.NotFound)
}

type statsPayload struct {
	Cache    cachePayload   `json:"cache"`
	Limiter  limiterPayload `json:"limiter"`
	Accepted uint64         `json:"accepted_connections"`
}

type cachePayload struct {
	cache.Stats
	HitRatio float64 `json:"hit_ratio"`
}

type limiterPayload struct {
	Active   int `json:"active"`
	Capacity int `json:"capacity"`
}

func encodeStats(src Sources) statsPayload {
	stats := src.Cache.Stats()
	payload := statsPayload{
		Cache: cachePayload{
			Stats:    stats,
			HitRatio: stats.HitRatio(),
		},
		Limiter: limiterPayload{
			Active:   src.Limiter.Active(),
			Capacity: src.Limiter.Capacity(),
		},
	}
	if src.Acceptor != nil {
		payload.Accepted = src.Acceptor.Accepted()
	}
	return payload
}
