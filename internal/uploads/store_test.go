// internal/uploads/store_test.go
package uploads

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, time.Minute, logger.NewTestLogger(t)), mr
}

// ==========================
// Store Tests
// ==========================

func TestStore_PutAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	upload, err := store.Put(context.Background(), "https://uploads.example.com/photo.jpg", "image/jpeg")
	require.NoError(t, err)
	require.NotEmpty(t, upload.ID)

	got, err := store.Get(context.Background(), upload.ID)
	require.NoError(t, err)
	assert.Equal(t, upload.URL, got.URL)
	assert.Equal(t, "image/jpeg", got.ContentType)
}

func TestStore_Get_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestStore_TTLApplied(t *testing.T) {
	store, mr := newTestStore(t)

	upload, err := store.Put(context.Background(), "https://uploads.example.com/photo.jpg", "")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(context.Background(), upload.ID)
	assert.Error(t, err, "upload must expire after its TTL")
}

func TestStore_Cleanup(t *testing.T) {
	store, _ := newTestStore(t)

	upload, err := store.Put(context.Background(), "https://uploads.example.com/photo.jpg", "")
	require.NoError(t, err)

	store.Cleanup(context.Background(), upload.ID)

	_, err = store.Get(context.Background(), upload.ID)
	assert.Error(t, err)
}

func TestStore_Cleanup_FailureSwallowed(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectDel(keyPrefix + "some-id").SetErr(assert.AnError)

	store := NewStore(client, time.Minute, logger.NewTestLogger(t))

	// must not panic or surface the error
	store.Cleanup(context.Background(), "some-id")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Put_RedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.Regexp().ExpectSet(keyPrefix+".+", `.+`, time.Minute).SetErr(assert.AnError)

	store := NewStore(client, time.Minute, logger.NewTestLogger(t))

	_, err := store.Put(context.Background(), "https://uploads.example.com/photo.jpg", "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUploadStoreFailed, errors.CodeOf(err))
}
