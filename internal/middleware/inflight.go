package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Locker короткая блокировка по ключу с TTL
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, 1, ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}

// MemoryLocker работает в пределах одного процесса
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.locks[key]; ok && until.After(now) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

// InFlightGuard отклоняет с 409 такой же запрос того же пользователя, пока первый
// не завершился. Ключ: пользователь, метод, путь с параметрами и хэш тела,
// так что заявки на разные поездки через один POST /bookings не мешают друг другу.
// При недоступности хранилища блокировок запрос пропускается.
func InFlightGuard(locker Locker, ttl time.Duration, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		digest, err := bodyDigest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Не удалось прочитать тело запроса"})
			return
		}
		key := fmt.Sprintf("inflight:%d:%s:%s:%s", c.GetUint("user_id"), c.Request.Method, c.Request.URL.Path, digest)

		acquired, err := locker.Acquire(c.Request.Context(), key, ttl)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("Не удалось получить блокировку запроса")
			c.Next()
			return
		}
		if !acquired {
			DuplicateSubmissions.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Такой же запрос уже обрабатывается"})
			return
		}

		defer func() {
			// контекст запроса может быть уже отменен
			if err := locker.Release(context.Background(), key); err != nil {
				log.WithError(err).WithField("key", key).Warn("Не удалось снять блокировку запроса")
			}
		}()
		c.Next()
	}
}

// bodyDigest читает тело целиком и возвращает его обратно в запрос
func bodyDigest(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "-", nil
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return "-", nil
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:8]), nil
}
