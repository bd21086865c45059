// Package limiter token bucket rate limiting keyed by request route
// Package limiter 按请求路由划分的令牌桶限流
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face the limiter interface the middleware consumes
// Face 中间件使用的限流接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule one bucket per route key
// BucketRule 每个路由一个令牌桶
type BucketRule struct {
	// Key route path the bucket applies to, e.g. "/api/login"
	Key string
	// FillInterval interval between refills
	// FillInterval 令牌放入间隔
	FillInterval time.Duration
	// Capacity bucket size // 桶容量
	Capacity int64
	// Quantum tokens added per interval // 每次放入的令牌数
	Quantum int64
}

// MethodLimiter limits by request path, ignoring the query string
// MethodLimiter 按请求路径限流，忽略查询参数
type MethodLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func NewMethodLimiter() Face {
	return &MethodLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

func (l *MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	if i := strings.Index(uri, "?"); i >= 0 {
		return uri[:i]
	}
	return uri
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.buckets[key]
	return b, ok
}

// AddBuckets registers rules, an existing key keeps its bucket
// AddBuckets 注册规则，已存在的 key 保留原令牌桶
func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range rules {
		if _, ok := l.buckets[r.Key]; ok {
			continue
		}
		l.buckets[r.Key] = ratelimit.NewBucketWithQuantum(r.FillInterval, r.Capacity, r.Quantum)
	}
	return l
}
