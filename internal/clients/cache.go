package clients

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cloud-ru/installments-go/internal/amendment"
	"github.com/cloud-ru/installments-go/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const financingKeyPrefix = "installments:financing:"

// CachedFinancing кеширует данные финансирования в Redis.
// Одновременные промахи по одному id сводятся к одному запросу в источник.
type CachedFinancing struct {
	next  FinancingReader
	rdb   redis.UniversalClient
	ttl   time.Duration
	group singleflight.Group
	log   logrus.FieldLogger
}

var _ FinancingReader = (*CachedFinancing)(nil)

// NewCachedFinancing оборачивает next кешем с временем жизни ttl
func NewCachedFinancing(next FinancingReader, rdb redis.UniversalClient, ttl time.Duration, log logrus.FieldLogger) *CachedFinancing {
	return &CachedFinancing{next: next, rdb: rdb, ttl: ttl, log: log}
}

// Detail читает данные из кеша, при промахе из источника
func (c *CachedFinancing) Detail(ctx context.Context, financingID string) (amendment.FinancingDetail, error) {
	key := financingKeyPrefix + financingID

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var detail amendment.FinancingDetail
		if jsonErr := json.Unmarshal(raw, &detail); jsonErr == nil {
			metrics.FinancingCache.WithLabelValues("hit").Inc()
			return detail, nil
		}
		c.log.WithField("key", key).Warn("corrupted financing cache entry, refetching")
	case errors.Is(err, redis.Nil):
	default:
		// Redis недоступен: идем в источник
		metrics.FinancingCache.WithLabelValues("error").Inc()
		c.log.WithError(err).Warn("financing cache read failed")
	}

	metrics.FinancingCache.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		detail, err := c.next.Detail(ctx, financingID)
		if err != nil {
			return amendment.FinancingDetail{}, err
		}
		if payload, err := json.Marshal(detail); err == nil {
			if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.log.WithError(err).Warn("financing cache write failed")
			}
		}
		return detail, nil
	})
	if err != nil {
		return amendment.FinancingDetail{}, err
	}
	return v.(amendment.FinancingDetail), nil
}

// Invalidate удаляет запись; вызывается после успешного сохранения допсоглашения
func (c *CachedFinancing) Invalidate(ctx context.Context, financingID string) error {
	return c.rdb.Del(ctx, financingKeyPrefix+financingID).Err()
}
