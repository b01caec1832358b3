package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, "bodyshop:"), mr
}

type entry struct {
	Title string `json:"title"`
	Order int    `json:"order"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	in := []entry{{"Bumper respray", 1}, {"Door dent", 2}}
	if err := c.Set(ctx, "gallery:public", in, time.Minute); err != nil {
		t.Fatalf("Set(): %v", err)
	}
	if !mr.Exists("bodyshop:gallery:public") {
		t.Error("key not stored under prefix")
	}

	var out []entry
	if err := c.Get(ctx, "gallery:public", &out); err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if len(out) != 2 || out[1].Title != "Door dent" {
		t.Errorf("Get() = %+v", out)
	}
}

func TestGetMissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var out []entry
	if err := c.Get(ctx, "absent", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(absent) error = %v, want ErrMiss", err)
	}

	c.Set(ctx, "short", []entry{{"x", 0}}, time.Second)
	mr.FastForward(2 * time.Second)
	if err := c.Get(ctx, "short", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(expired) error = %v, want ErrMiss", err)
	}
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)
	if err := c.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	var n int
	if err := c.Get(ctx, "a", &n); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(a) after delete error = %v, want ErrMiss", err)
	}
}

func TestGetReportsConnectionErrors(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var n int
	err := c.Get(context.Background(), "a", &n)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Get() with redis down error = %v, want a non-miss error", err)
	}
}
