package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrWong99/termfix/internal/cache"
	"github.com/MrWong99/termfix/pkg/types"
)

// newRedisStore connects to the Redis instance named by
// TERMFIX_TEST_REDIS_ADDR, skipping the test when it is unset.
func newRedisStore(t *testing.T) *cache.RedisStore {
	t.Helper()
	addr := os.Getenv("TERMFIX_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TERMFIX_TEST_REDIS_ADDR not set; skipping Redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	s := cache.NewRedisStore(client, time.Minute).WithPrefix("termfix-test:" + t.Name() + ":")
	t.Cleanup(func() { _ = s.Clear(context.Background()) })
	return s
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "terminology:missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}

	c := cache.New(s)
	c.Set(ctx, "li Tomas de Aquino", cache.KindTerminology, "", cache.Entry{
		Text: "li Tomás de Aquino",
		Corrections: []types.Correction{
			{Original: "Tomas de Aquino", Corrected: "Tomás de Aquino", Position: 3, Stage: types.StagePattern},
		},
	})
	c.Set(ctx, "prompt", cache.KindLLMResponse, "llama3.2", cache.Entry{Text: "resposta"})

	got, ok := c.Get(ctx, "li Tomas de Aquino", cache.KindTerminology, "")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Text != "li Tomás de Aquino" || len(got.Corrections) != 1 || got.Corrections[0].Position != 3 {
		t.Errorf("entry = %+v", got)
	}

	st := c.Stats(ctx)
	if st.Entries[cache.KindTerminology] != 1 || st.Entries[cache.KindLLMResponse] != 1 {
		t.Errorf("Entries = %v", st.Entries)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n := len(c.Stats(ctx).Entries); n != 0 {
		t.Errorf("Entries after Clear = %d namespaces", n)
	}
}
