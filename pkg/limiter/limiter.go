// Package limiter 基于令牌桶的接口限流
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	Key          string        // 路由路径
	FillInterval time.Duration // 间隔多久放入 Quantum 个令牌
	Capacity     int64         // 桶容量
	Quantum      int64         // 每次放入的令牌数
}

// Limiter 令牌桶集合
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func (l *Limiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bucket, ok := l.buckets[key]
	return bucket, ok
}

func (l *Limiter) addBuckets(rules ...BucketRule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = 1
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
	}
}

// MethodLimiter 按路由路径（不含查询参数）限流
type MethodLimiter struct {
	*Limiter
}

func NewMethodLimiter() Face {
	return MethodLimiter{Limiter: &Limiter{buckets: make(map[string]*ratelimit.Bucket)}}
}

func (l MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	if index := strings.Index(uri, "?"); index != -1 {
		return uri[:index]
	}
	return uri
}

func (l MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.addBuckets(rules...)
	return l
}
