package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreMirrorsSnapshots(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	st := store.GetOrCreate("s1")
	store.Save(ctx, st)
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != time.Minute {
		t.Fatalf("ttl: got %v", ttl)
	}

	snap, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.ID != "s1" || snap.QAState != "uninitialized" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	store.Delete(ctx, "s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected local state to be removed")
	}
}

func TestSessionStoreSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := NewSessionStore(client, time.Minute)
	mr.Close()

	st := store.GetOrCreate("s2")
	store.Save(context.Background(), st)
	if got, ok := store.Get("s2"); !ok || got != st {
		t.Fatalf("local state must stay available")
	}
}
