package strikes

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
)

func TestRedisStoreIncrementPipelinesExpire(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s, err := NewRedisStore(RedisOptions{Client: db, Limit: 3, Window: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	key := defaultRedisPrefix + "actor"

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()

	count, banned, err := s.Increment(context.Background(), "actor")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 1 || banned {
		t.Fatalf("count=%d banned=%v", count, banned)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("INCR and EXPIRE must run in one pipeline: %v", err)
	}
}

func TestRedisStoreIncrementWithoutWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s, err := NewRedisStore(RedisOptions{Client: db, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	key := defaultRedisPrefix + "actor"

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectTxPipelineExec()

	count, banned, err := s.Increment(context.Background(), "actor")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 2 || banned {
		t.Fatalf("count=%d banned=%v", count, banned)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no EXPIRE expected when decay is disabled: %v", err)
	}
}

func TestRedisStoreBanRemovesKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s, err := NewRedisStore(RedisOptions{Client: db, Limit: 3, Window: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	key := defaultRedisPrefix + "actor"

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()
	mock.ExpectDel(key).SetVal(1)

	count, banned, err := s.Increment(context.Background(), "actor")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 3 || !banned {
		t.Fatalf("count=%d banned=%v", count, banned)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("banned actor's key must be removed: %v", err)
	}
}

func TestRedisStoreReset(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s, err := NewRedisStore(RedisOptions{Client: db})
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectDel(defaultRedisPrefix + "actor").SetVal(1)
	if err := s.Reset(context.Background(), "actor"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
