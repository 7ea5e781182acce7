package cache

import (
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New(true)
	etag := c.Set("stats:1", []byte(`{"count":3}`), time.Minute)

	data, gotTag, ok := c.Get("stats:1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != `{"count":3}` {
		t.Fatalf("unexpected data %q", data)
	}
	if gotTag != etag {
		t.Fatalf("etag mismatch: %q vs %q", gotTag, etag)
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	c := New(true)
	c.Set("k", []byte("v"), -time.Second)
	if _, _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestDisabledCacheNeverHits(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	if etag == "" {
		t.Fatal("disabled cache should still compute an etag")
	}
	if _, _, ok := c.Get("k"); ok {
		t.Fatal("disabled cache should not store entries")
	}
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("body"))
	if !CheckETagMatch(etag, etag) {
		t.Fatal("expected exact match")
	}
	if !CheckETagMatch("*", etag) {
		t.Fatal("expected wildcard match")
	}
	if CheckETagMatch("", etag) {
		t.Fatal("expected empty header to not match")
	}
}
