package rediscart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
)

// CartRepository stores each user's cart as a Redis hash of productID -> quantity.
// Writes go through HSET/HDEL on a single key, so every operation on one cart
// is atomic on the Redis side.
type CartRepository struct {
	client *redis.Client
}

func NewCartRepository(client *redis.Client) *CartRepository {
	return &CartRepository{client: client}
}

func itemsKey(userID string) string {
	return fmt.Sprintf("cart:%s:items", userID)
}

func (r *CartRepository) Get(ctx context.Context, userID, productID string) (*domain.Entry, error) {
	val, err := r.client.HGet(ctx, itemsKey(userID), productID).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart redis: get: %w", err)
	}

	quantity, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("cart redis: invalid quantity for product %s: %w", productID, err)
	}

	return &domain.Entry{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Entry, error) {
	items, err := r.client.HGetAll(ctx, itemsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart redis: list: %w", err)
	}

	out := make([]*domain.Entry, 0, len(items))
	for productID, quantityStr := range items {
		quantity, err := strconv.Atoi(quantityStr)
		if err != nil {
			return nil, fmt.Errorf("cart redis: invalid quantity for product %s: %w", productID, err)
		}
		if quantity <= 0 {
			continue
		}
		out = append(out, &domain.Entry{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *CartRepository) Save(ctx context.Context, entry *domain.Entry) error {
	if entry == nil || entry.UserID == "" || entry.ProductID == "" {
		return fmt.Errorf("cart redis: user and product ids are required")
	}
	if err := r.client.HSet(ctx, itemsKey(entry.UserID), entry.ProductID, entry.Quantity).Err(); err != nil {
		return fmt.Errorf("cart redis: save: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID, productID string) error {
	removed, err := r.client.HDel(ctx, itemsKey(userID), productID).Result()
	if err != nil {
		return fmt.Errorf("cart redis: delete: %w", err)
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, itemsKey(userID)).Err(); err != nil {
		return fmt.Errorf("cart redis: clear: %w", err)
	}
	return nil
}
