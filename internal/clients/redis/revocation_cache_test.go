package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

func newMockCache(t *testing.T) (*RevocationCache, redismock.ClientMock, time.Time) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	c := NewRevocationCacheWithClient(logger.NewNop(), db, "test:")
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, mock, now
}

func TestRevocationCacheMarkAndCheck(t *testing.T) {
	c, mock, now := newMockCache(t)
	ctx := context.Background()

	mock.ExpectSet("test:jti-1", "1", 90*time.Minute).SetVal("OK")
	mock.ExpectExists("test:jti-1").SetVal(1)
	mock.ExpectExists("test:jti-2").SetVal(0)

	if err := c.MarkRevoked(ctx, "jti-1", now.Add(90*time.Minute)); err != nil {
		t.Fatalf("MarkRevoked: %v", err)
	}
	ok, err := c.IsRevoked(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("IsRevoked(jti-1): want=true got=%v err=%v", ok, err)
	}
	ok, err = c.IsRevoked(ctx, "jti-2")
	if err != nil || ok {
		t.Fatalf("IsRevoked(jti-2): want=false got=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRevocationCacheSkipsPastExpiry(t *testing.T) {
	c, mock, now := newMockCache(t)
	if err := c.MarkRevoked(context.Background(), "old", now.Add(-time.Second)); err != nil {
		t.Fatalf("MarkRevoked: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no command expected: %v", err)
	}
}

func TestRevocationCacheSurfacesErrors(t *testing.T) {
	c, mock, _ := newMockCache(t)
	mock.ExpectExists("test:jti").SetErr(errors.New("connection refused"))
	if _, err := c.IsRevoked(context.Background(), "jti"); err == nil {
		t.Fatalf("expected error")
	}
}
