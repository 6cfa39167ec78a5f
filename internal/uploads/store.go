// internal/uploads/store.go
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
)

const keyPrefix = "uploads:"

// Upload is an image reference held only long enough to run a reverse image
// search against it.
type Upload struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store keeps uploads in Redis with a TTL so nothing outlives its search by
// more than the expiry window even when cleanup fails.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{client: client, ttl: ttl, logger: log}
}

// Put stores an upload reference and returns its generated ID.
func (s *Store) Put(ctx context.Context, url, contentType string) (*Upload, error) {
	upload := &Upload{
		ID:          uuid.New().String(),
		URL:         url,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(upload)
	if err != nil {
		return nil, errors.NewUploadStoreFailedError(err)
	}
	if err := s.client.Set(ctx, keyPrefix+upload.ID, data, s.ttl).Err(); err != nil {
		return nil, errors.NewUploadStoreFailedError(err)
	}

	s.logger.Debug("upload stored", map[string]interface{}{
		"id":  upload.ID,
		"ttl": s.ttl.String(),
	})
	return upload, nil
}

// Get retrieves an upload by ID.
func (s *Store) Get(ctx context.Context, id string) (*Upload, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("upload %s not found", id)
	}
	if err != nil {
		return nil, errors.NewUploadStoreFailedError(err)
	}

	var upload Upload
	if err := json.Unmarshal(data, &upload); err != nil {
		return nil, errors.NewUploadStoreFailedError(err)
	}
	return &upload, nil
}

// Cleanup deletes an upload after its search completes. Deletion is
// best-effort: failure is logged and swallowed because the TTL will expire
// the key anyway.
func (s *Store) Cleanup(ctx context.Context, id string) {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		cleanupErr := errors.NewUploadCleanupFailedError(id, err)
		s.logger.Warn("upload cleanup failed, key will expire via TTL", map[string]interface{}{
			"id":    id,
			"error": cleanupErr.Error(),
		})
		return
	}

	s.logger.Debug("upload cleaned up", map[string]interface{}{"id": id})
}
