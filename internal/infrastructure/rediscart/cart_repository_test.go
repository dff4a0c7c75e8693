package rediscart

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
)

const testRedisAddr = "localhost:6379"

type CartRepositoryTestSuite struct {
	suite.Suite
	client *redis.Client
	repo   *CartRepository
}

func (s *CartRepositoryTestSuite) SetupSuite() {
	s.client = redis.NewClient(&redis.Options{Addr: testRedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.T().Skipf("redis not available at %s: %v", testRedisAddr, err)
	}
	s.repo = NewCartRepository(s.client)
}

func (s *CartRepositoryTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *CartRepositoryTestSuite) SetupTest() {
	_ = s.repo.DeleteByUser(context.Background(), "test_user")
}

func (s *CartRepositoryTestSuite) TestSaveAndGet() {
	ctx := context.Background()

	entry, err := domain.NewEntry("test_user", "p1", 3)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.repo.Save(ctx, entry))

	got, err := s.repo.Get(ctx, "test_user", "p1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, got.Quantity)
}

func (s *CartRepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.Get(context.Background(), "test_user", "ghost")
	require.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *CartRepositoryTestSuite) TestSaveOverwritesQuantity() {
	ctx := context.Background()

	entry, err := domain.NewEntry("test_user", "p1", 3)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.repo.Save(ctx, entry))

	require.NoError(s.T(), entry.SetQuantity(7))
	require.NoError(s.T(), s.repo.Save(ctx, entry))

	got, err := s.repo.Get(ctx, "test_user", "p1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 7, got.Quantity)
}

func (s *CartRepositoryTestSuite) TestListByUserSorted() {
	ctx := context.Background()

	for _, productID := range []string{"p3", "p1", "p2"} {
		entry, err := domain.NewEntry("test_user", productID, 1)
		require.NoError(s.T(), err)
		require.NoError(s.T(), s.repo.Save(ctx, entry))
	}

	entries, err := s.repo.ListByUser(ctx, "test_user")
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 3)
	require.Equal(s.T(), "p1", entries[0].ProductID)
	require.Equal(s.T(), "p2", entries[1].ProductID)
	require.Equal(s.T(), "p3", entries[2].ProductID)
}

func (s *CartRepositoryTestSuite) TestDelete() {
	ctx := context.Background()

	entry, err := domain.NewEntry("test_user", "p1", 1)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.repo.Save(ctx, entry))

	require.NoError(s.T(), s.repo.Delete(ctx, "test_user", "p1"))
	require.ErrorIs(s.T(), s.repo.Delete(ctx, "test_user", "p1"), domain.ErrNotFound)
}

func (s *CartRepositoryTestSuite) TestDeleteByUser() {
	ctx := context.Background()

	for _, productID := range []string{"p1", "p2"} {
		entry, err := domain.NewEntry("test_user", productID, 1)
		require.NoError(s.T(), err)
		require.NoError(s.T(), s.repo.Save(ctx, entry))
	}

	require.NoError(s.T(), s.repo.DeleteByUser(ctx, "test_user"))

	entries, err := s.repo.ListByUser(ctx, "test_user")
	require.NoError(s.T(), err)
	require.Empty(s.T(), entries)
}

func TestCartRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CartRepositoryTestSuite))
}
