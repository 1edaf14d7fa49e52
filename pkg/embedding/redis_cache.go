package embedding

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "legal-rag:embedding:"

// RedisVectorCache shares query embeddings between service replicas. Vectors
// are stored as little endian float32 bytes.
type RedisVectorCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisVectorCache(rdb redis.Cmdable, ttl time.Duration) *RedisVectorCache {
	return &RedisVectorCache{rdb: rdb, ttl: ttl}
}

func (c *RedisVectorCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return decodeVector(data)
}

func (c *RedisVectorCache) Set(ctx context.Context, key string, vector []float32) error {
	return c.rdb.Set(ctx, redisKeyPrefix+key, encodeVector(vector), c.ttl).Err()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, bool) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, true
}
