package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient is an in-memory xredis.Client. Set a XxxFunc field to
// override the corresponding method.
type MockRedisClient struct {
	ExistFunc  func(ctx context.Context, key string) (bool, error)
	SetObjFunc func(ctx context.Context, key string, obj any, ttl time.Duration) error
	GetObjFunc func(ctx context.Context, key string, v any) error

	mu      sync.Mutex
	objects map[string][]byte
	zsets   map[string]map[string]float64
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		objects: map[string][]byte{},
		zsets:   map[string]map[string]float64{},
	}
}

func (m *MockRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	if m.ExistFunc != nil {
		return m.ExistFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	if !ok {
		_, ok = m.zsets[key]
	}

	return ok, nil
}

func (m *MockRedisClient) ZAdd(ctx context.Context, key string, z redis.Z) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zsets[key] == nil {
		m.zsets[key] = map[string]float64{}
	}

	b, err := json.Marshal(z.Member)
	if err != nil {
		return err
	}

	member := string(b)
	if s, ok := z.Member.(string); ok {
		member = s
	}
	m.zsets[key][member] = z.Score
	return nil
}

func (m *MockRedisClient) sortedDesc(key string) []redis.Z {
	var result []redis.Z
	for member, score := range m.zsets[key] {
		result = append(result, redis.Z{Member: member, Score: score})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	return result
}

func (m *MockRedisClient) ZRevRangeWithScores(
	ctx context.Context, key string, offset, limit int,
) ([]redis.Z, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.sortedDesc(key)
	if offset >= len(all) {
		return nil, nil
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	return all[offset:end], nil
}

// ZRemRangeByRank removes members ranked in [start, stop] in ascending score
// order. Negative indexes count from the highest score.
func (m *MockRedisClient) ZRemRangeByRank(ctx context.Context, key string, start, stop int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	desc := m.sortedDesc(key)
	n := len(desc)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}

	for i := 0; i < n; i++ {
		rank := n - 1 - i
		if rank >= start && rank <= stop {
			delete(m.zsets[key], desc[i].Member.(string))
		}
	}

	return nil
}

func (m *MockRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	if m.SetObjFunc != nil {
		return m.SetObjFunc(ctx, key, obj, ttl)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *MockRedisClient) GetObj(ctx context.Context, key string, v any) error {
	if m.GetObjFunc != nil {
		return m.GetObjFunc(ctx, key, v)
	}

	m.mu.Lock()
	b, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return redis.Nil
	}

	return json.Unmarshal(b, v)
}
