//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/store/cache"
	"solicitudes/internal/requests/store/memory"
	"solicitudes/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *memory.InMemory
	repo  *cache.Repository
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.inner = memory.NewInMemory()
	s.repo = cache.New(s.inner, s.redis.Client, cache.WithTTL(time.Minute))
}

func (s *RedisCacheSuite) TestRoundTripAndTTL() {
	ctx := context.Background()
	r := models.NewRequest(models.MustDocumentName("Contrato Redis"), time.Now().UTC())
	s.Require().NoError(s.repo.Save(ctx, r))

	_, err := s.repo.FindByID(ctx, r.ID())
	s.Require().NoError(err)

	ttl, err := s.redis.Client.TTL(ctx, "solicitudes:request:"+r.ID().String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)

	_, err = s.inner.DeleteByID(ctx, r.ID())
	s.Require().NoError(err)
	cached, err := s.repo.FindByID(ctx, r.ID())
	s.Require().NoError(err)
	s.Require().NotNil(cached)
	s.Equal("Contrato Redis", cached.DocumentName().String())
}

func (s *RedisCacheSuite) TestDeleteEvicts() {
	ctx := context.Background()
	r := models.NewRequest(models.MustDocumentName("Contrato Efimero"), time.Now().UTC())
	s.Require().NoError(s.repo.Save(ctx, r))
	_, err := s.repo.FindByID(ctx, r.ID())
	s.Require().NoError(err)
	keys, err := s.redis.Keys(ctx, "solicitudes:request:*")
	s.Require().NoError(err)
	s.Equal([]string{"solicitudes:request:" + r.ID().String()}, keys)

	s.Require().NoError(s.repo.Delete(ctx, r))
	n, err := s.redis.Client.Exists(ctx, "solicitudes:request:"+r.ID().String()).Result()
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RedisCacheSuite) TestClientHealth() {
	s.NoError(s.redis.Client.Health(context.Background()))
}
