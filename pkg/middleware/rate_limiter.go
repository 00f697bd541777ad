package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig 限流配置
//
// Rate: "100-S"、"1000-M" 等 limiter 速率格式；
// SkipPaths 前缀匹配跳过（健康检查、监控端点）。
type RateLimiterConfig struct {
	Rate       string   `json:"rate"`
	SkipPaths  []string `json:"skip_paths"`
	AddHeaders bool     `json:"add_headers"`
}

// MetricsObserver 指标上报接口
type MetricsObserver interface {
	OnAllow(route string)
	OnDeny(route string)
}

// PrometheusObserver 基于 Prometheus 的实现
type PrometheusObserver struct {
	allow *prometheus.CounterVec
	deny  *prometheus.CounterVec
}

func NewPrometheusObserver() *PrometheusObserver {
	return &PrometheusObserver{
		allow: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Allowed requests by rate limiter",
		}, []string{"route"}),
		deny: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Denied requests by rate limiter",
		}, []string{"route"}),
	}
}

func (p *PrometheusObserver) OnAllow(route string) { p.allow.WithLabelValues(route).Inc() }
func (p *PrometheusObserver) OnDeny(route string)  { p.deny.WithLabelValues(route).Inc() }

// RateLimiter 按 IP 限流，store 可注入（如 Redis），默认内存
type RateLimiter struct {
	cfg      RateLimiterConfig
	lim      *limiter.Limiter
	observer MetricsObserver
	mu       sync.RWMutex
}

func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	r, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		r = limiter.Rate{Period: time.Second, Limit: 10}
	}
	return &RateLimiter{cfg: cfg, lim: limiter.New(store, r)}
}

func (l *RateLimiter) WithObserver(observer MetricsObserver) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = observer
	return l
}

// Middleware 返回 Gin 中间件
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		for _, pref := range l.cfg.SkipPaths {
			if pref != "" && strings.HasPrefix(route, pref) {
				c.Next()
				return
			}
		}

		key := "ip:" + clientIP(c)
		ctx, err := l.lim.Get(c, key)
		if err != nil {
			c.Next()
			return
		}
		if l.cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		}
		if ctx.Reached {
			sec := int(time.Until(time.Unix(ctx.Reset, 0)).Seconds())
			if sec < 0 {
				sec = 0
			}
			c.Header("Retry-After", strconv.Itoa(sec))
			l.report(route, false)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}

		l.report(route, true)
		c.Next()
	}
}

func (l *RateLimiter) report(route string, allowed bool) {
	l.mu.RLock()
	obs := l.observer
	l.mu.RUnlock()
	if obs == nil {
		return
	}
	if allowed {
		obs.OnAllow(route)
	} else {
		obs.OnDeny(route)
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	return strings.TrimPrefix(ip, "::ffff:")
}
