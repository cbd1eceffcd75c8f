package redis

import (
	"FaceGate/internal/entity"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrCacheMiss      = errors.New("cache miss")
	ErrLockHeld       = errors.New("lock already held")
	ErrStaleReference = errors.New("reference changed since it was read")
)

const (
	lockPrefix       = "facegate:attempt:"
	referencePrefix  = "facegate:reference:"
	generationPrefix = "facegate:reference-gen:"

	generationTTL = 48 * time.Hour
)

// releaseScript deletes the lock only when it still carries our token, so a
// lock that expired and was taken by another attempt is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// fillScript caches a descriptor only if the reference generation still
// matches the one observed before the database read.
var fillScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current == ARGV[1] then
	return redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
end
return 0
`)

type IRedis interface {
	Ping(ctx context.Context) error
	AcquireAttemptLock(ctx context.Context, userID string, token string, ttl time.Duration) error
	ReleaseAttemptLock(ctx context.Context, userID string, token string) error
	GetReferenceDescriptor(ctx context.Context, userID string) (entity.FaceDescriptor, error)
	ReferenceGeneration(ctx context.Context, userID string) (int64, error)
	SetReferenceDescriptor(ctx context.Context, userID string, descriptor entity.FaceDescriptor, generation int64, ttl time.Duration) error
	DeleteReferenceDescriptor(ctx context.Context, userID string) error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return NewFromClient(client, log)
}

func NewFromClient(client *redis.Client, log *logrus.Logger) IRedis {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &redisClient{client: client, log: log}
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) AcquireAttemptLock(ctx context.Context, userID string, token string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, lockPrefix+userID, token, ttl).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to acquire attempt lock")
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

func (r *redisClient) ReleaseAttemptLock(ctx context.Context, userID string, token string) error {
	err := releaseScript.Run(ctx, r.client, []string{lockPrefix + userID}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to release attempt lock")
		return err
	}
	return nil
}

func (r *redisClient) GetReferenceDescriptor(ctx context.Context, userID string) (entity.FaceDescriptor, error) {
	val, err := r.client.Get(ctx, referencePrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	} else if err != nil {
		r.log.Error(fmt.Sprintf("Error getting reference descriptor for user %s: %v", userID, err))
		return nil, err
	}

	var descriptor entity.FaceDescriptor
	if err := jsoniter.ConfigFastest.Unmarshal(val, &descriptor); err != nil {
		r.log.Warn(fmt.Sprintf("Dropping undecodable cached descriptor for user %s: %v", userID, err))
		_ = r.client.Del(ctx, referencePrefix+userID).Err()
		return nil, ErrCacheMiss
	}
	return descriptor, nil
}

func (r *redisClient) ReferenceGeneration(ctx context.Context, userID string) (int64, error) {
	generation, err := r.client.Get(ctx, generationPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

func (r *redisClient) SetReferenceDescriptor(ctx context.Context, userID string, descriptor entity.FaceDescriptor, generation int64, ttl time.Duration) error {
	payload, err := jsoniter.ConfigFastest.Marshal(descriptor)
	if err != nil {
		return err
	}

	keys := []string{referencePrefix + userID, generationPrefix + userID}
	result, err := fillScript.Run(ctx, r.client, keys, strconv.FormatInt(generation, 10), payload, ttl.Milliseconds()).Result()
	if err != nil {
		r.log.Error(fmt.Sprintf("Error caching reference descriptor for user %s: %v", userID, err))
		return err
	}
	if n, ok := result.(int64); ok && n == 0 {
		return ErrStaleReference
	}
	return nil
}

// DeleteReferenceDescriptor drops the cached descriptor and bumps the
// generation so fills that read the database earlier are refused.
func (r *redisClient) DeleteReferenceDescriptor(ctx context.Context, userID string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationPrefix+userID)
		pipe.Expire(ctx, generationPrefix+userID, generationTTL)
		del = pipe.Del(ctx, referencePrefix+userID)
		return nil
	})
	if err != nil {
		r.log.Error(fmt.Sprintf("Error deleting reference descriptor for user %s: %v", userID, err))
		return err
	}

	if del.Val() == 0 {
		r.log.Debug(fmt.Sprintf("Reference descriptor for user %s was not cached", userID))
	}
	return nil
}
