//go:build integration

package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"boards/internal/ratelimit/models"
	"boards/internal/ratelimit/store/bucket"
	"boards/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedis(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestLimitEnforced() {
	ctx := context.Background()
	limit := models.Limit{Requests: 3, Window: time.Minute}
	key := models.Key(models.ClassLogin, "10.0.0.1")

	for i := range 3 {
		result, err := s.store.Allow(ctx, key, limit)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, key, limit)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Positive(result.RetryAfter)

	// the rejected attempt does not occupy a slot
	n, err := s.redis.Client.ZCard(ctx, key).Result()
	s.Require().NoError(err)
	s.EqualValues(3, n)

	ttl, err := s.redis.Client.PTTL(ctx, key).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}

func (s *RedisBucketStoreSuite) TestReset() {
	ctx := context.Background()
	limit := models.Limit{Requests: 1, Window: time.Minute}
	key := models.Key(models.ClassSignUp, "10.0.0.2")

	_, err := s.store.Allow(ctx, key, limit)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(ctx, key))

	result, err := s.store.Allow(ctx, key, limit)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestConcurrentCallersShareOneBudget() {
	ctx := context.Background()
	limit := models.Limit{Requests: 5, Window: time.Minute}
	key := models.Key(models.ClassLogin, "10.0.0.3")

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(ctx, key, limit)
			s.NoError(err)
			if err == nil && result.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.LessOrEqual(allowed.Load(), int32(5))
	s.Positive(allowed.Load())
}
