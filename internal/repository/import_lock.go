package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockHeld is returned when another import holds the lock
var ErrLockHeld = errors.New("import lock is held by another request")

const importLockKey = "order-import:lock"

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ImportLock serializes import runs across service instances
type ImportLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// RedisImportLock is a SET NX lock with a TTL so a crashed import cannot block forever
type RedisImportLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// NewImportLock returns a Redis-backed lock, or a no-op lock when client is nil
func NewImportLock(client *redis.Client, ttl time.Duration, logger *logrus.Logger) ImportLock {
	if client == nil {
		return NoopImportLock{}
	}
	return &RedisImportLock{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "import-lock"),
	}
}

// Acquire takes the lock or fails with ErrLockHeld
func (l *RedisImportLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, importLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func() { l.release(token) }, nil
}

// release deletes the lock if it still carries token. A failed release leaves the key
// in place until its TTL expires.
func (l *RedisImportLock) release(token string) {
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deleted, err := releaseScript.Run(ctx, l.client, []string{importLockKey}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		l.logger.WithError(err).WithField("ttl", l.ttl.String()).Warn("Failed to release import lock")
		return
	}
	if deleted == 0 {
		l.logger.WithField("ttl", l.ttl.String()).Warn("Import lock expired before it was released")
	}
}

// NoopImportLock is used when Redis is not configured
type NoopImportLock struct{}

// Acquire always succeeds
func (NoopImportLock) Acquire(ctx context.Context) (func(), error) {
	return func() {}, nil
}
