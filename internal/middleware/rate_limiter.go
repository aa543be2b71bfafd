package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== ReplyRateLimiter 回复冷却器 ====================

// ReplyRateLimiter AI 回复冷却器
// 上游模型调用没有重试和背压，这里挡住对同一客户的连续触发
type ReplyRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局冷却器实例
var globalLimiter = &ReplyRateLimiter{}

// GetLimiter 获取全局冷却器
func GetLimiter() *ReplyRateLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时同时记下本次时间
// key: 冷却键，如 "shop:12:customer:34"
// interval: 冷却间隔
func (r *ReplyRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的冷却
func (r *ReplyRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ReplyKey 生成客户级冷却 Key
func ReplyKey(shopID, customerID int64) string {
	return fmt.Sprintf("shop:%d:customer:%d", shopID, customerID)
}

// DefaultReplyInterval AI 回复默认冷却间隔
const DefaultReplyInterval = 2 * time.Second
