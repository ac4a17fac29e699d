package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.values[key] = value.(string)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	if _, exists := f.values[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *goredis.StringCmd {
	value, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(value, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	removed := int64(0)
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return goredis.NewIntResult(removed, nil)
}

func TestReportKeyNamespacing(t *testing.T) {
	client := FromCmdable(newFakeStore())
	key := client.ReportKey("abc123")
	if key != "mh:report:abc123" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	client := FromCmdable(newFakeStore())
	ctx := context.Background()

	if err := client.Set(ctx, "mh:report:x", "payload", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := client.Get(ctx, "mh:report:x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "payload" {
		t.Fatalf("unexpected value %q", value)
	}

	if _, err := client.Get(ctx, "mh:report:missing"); err != Nil {
		t.Fatalf("expected Nil sentinel, got %v", err)
	}
}

func TestCheckAndMarkDeduplicates(t *testing.T) {
	client := FromCmdable(newFakeStore())
	ctx := context.Background()

	seen, err := client.CheckAndMark(ctx, "evt-1")
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if seen {
		t.Fatalf("first delivery must not be seen")
	}

	seen, err = client.CheckAndMark(ctx, "evt-1")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !seen {
		t.Fatalf("second delivery must be seen")
	}

	if err := client.Unmark(ctx, "evt-1"); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	seen, err = client.CheckAndMark(ctx, "evt-1")
	if err != nil || seen {
		t.Fatalf("unmarked event should be processable again, seen=%v err=%v", seen, err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("nil client ping should error")
	}
	if err := client.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatalf("nil client set should error")
	}
	if _, err := client.CheckAndMark(context.Background(), "evt"); err == nil {
		t.Fatalf("nil client mark should error")
	}
}
