package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
)

// WrapRegistryCache puts an expiring LRU in front of a recording
// registry. Owner lookups run on every grant/revoke/validate, and
// ownership never changes, so a short TTL is safe.
func WrapRegistryCache(next RecordingRegistry, size int, ttl time.Duration) RecordingRegistry {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedRegistry{
		next:  next,
		cache: expirable.NewLRU[string, model.Recording](size, nil, ttl),
	}
}

type cachedRegistry struct {
	next  RecordingRegistry
	cache *expirable.LRU[string, model.Recording]
}

func (r *cachedRegistry) GetByID(ctx context.Context, recordingID string) (*model.Recording, error) {
	if cached, ok := r.cache.Get(recordingID); ok {
		rec := cached
		return &rec, nil
	}
	rec, err := r.next.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	r.cache.Add(recordingID, *rec)
	return rec, nil
}
