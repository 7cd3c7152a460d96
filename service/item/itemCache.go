package itemsvc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"labreserve/model"
)

const (
	itemKeyPrefix = "item:"
	listKey       = "items:all"
)

// Caching is a read-through cache over the catalog service. Redis failures
// are logged and ignored; the database stays authoritative.
type Caching struct {
	Service

	Redis *redis.Client
	TTL   time.Duration
}

func itemKey(id int64) string { return itemKeyPrefix + strconv.FormatInt(id, 10) }

func (c *Caching) Get(ctx context.Context, id int64) (*model.ItemDetail, error) {
	key := itemKey(id)

	if val, err := c.Redis.Get(ctx, key).Result(); err == nil {
		var d model.ItemDetail
		if err := json.Unmarshal([]byte(val), &d); err == nil {
			return &d, nil
		}
		slog.Warn("can't decode cached item", "key", key)
	} else if err != redis.Nil {
		slog.Error("can't get item from redis", "key", key, "err", err)
	}

	d, err := c.Service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, d)
	return d, nil
}

func (c *Caching) List(ctx context.Context) ([]model.ItemDetail, error) {
	if val, err := c.Redis.Get(ctx, listKey).Result(); err == nil {
		var ds []model.ItemDetail
		if err := json.Unmarshal([]byte(val), &ds); err == nil {
			return ds, nil
		}
		slog.Warn("can't decode cached item list")
	} else if err != redis.Nil {
		slog.Error("can't get item list from redis", "err", err)
	}

	ds, err := c.Service.List(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, listKey, ds)
	return ds, nil
}

func (c *Caching) Create(ctx context.Context, in CreateInput) (*model.ItemDetail, error) {
	d, err := c.Service.Create(ctx, in)
	if err == nil {
		c.invalidate(ctx, listKey)
	}
	return d, err
}

func (c *Caching) AddChild(ctx context.Context, itemID int64, child model.ItemChild) (*model.ItemChild, error) {
	out, err := c.Service.AddChild(ctx, itemID, child)
	if err == nil {
		c.invalidate(ctx, itemKey(itemID), listKey)
	}
	return out, err
}

func (c *Caching) Retire(ctx context.Context, itemID int64) (*model.ItemDetail, error) {
	d, err := c.Service.Retire(ctx, itemID)
	if err == nil {
		c.invalidate(ctx, itemKey(itemID), listKey)
	}
	return d, err
}

func (c *Caching) AdjustQuantity(ctx context.Context, itemID, delta int64) (*model.Item, error) {
	it, err := c.Service.AdjustQuantity(ctx, itemID, delta)
	if err == nil {
		c.invalidate(ctx, itemKey(itemID), listKey)
	}
	return it, err
}

func (c *Caching) SetAvailability(ctx context.Context, itemID int64, available bool) error {
	err := c.Service.SetAvailability(ctx, itemID, available)
	if err == nil {
		c.invalidate(ctx, itemKey(itemID), listKey)
	}
	return err
}

func (c *Caching) AttachImage(ctx context.Context, childID int64, upload io.Reader) (*model.ItemImage, error) {
	img, err := c.Service.AttachImage(ctx, childID, upload)
	if err == nil {
		// The child's parent isn't known here, so drop everything.
		c.invalidate(ctx, listKey)
		c.flushItems(ctx)
	}
	return img, err
}

func (c *Caching) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Redis.Set(ctx, key, b, c.TTL).Err(); err != nil {
		slog.Error("can't set item cache", "key", key, "err", err)
	}
}

func (c *Caching) invalidate(ctx context.Context, keys ...string) {
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		slog.Error("can't invalidate item cache", "err", err)
	}
}

func (c *Caching) flushItems(ctx context.Context) {
	iter := c.Redis.Scan(ctx, 0, itemKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Error("can't scan item cache keys", "err", err)
		return
	}
	if len(keys) > 0 {
		c.invalidate(ctx, keys...)
	}
}
