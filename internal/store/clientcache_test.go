package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCredStore struct {
	cred *Credential
	err  error
}

func (f *fakeCredStore) Get(ctx context.Context, phone, provider string) (*Credential, error) {
	return f.cred, f.err
}
func (f *fakeCredStore) Set(ctx context.Context, cred *Credential) error { return nil }
func (f *fakeCredStore) Delete(ctx context.Context, phone, provider string) error {
	return nil
}

func TestClientCacheReusesClient(t *testing.T) {
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)
	cache := NewClientCache(&fakeCredStore{cred: &Credential{
		Phone:     "+15550001111",
		Provider:  "google",
		ExpiresAt: now.Add(2 * time.Hour),
	}})
	cache.clock = func() time.Time { return now }

	builds := 0
	build := func(ctx context.Context, cred *Credential) (interface{}, error) {
		builds++
		return "client", nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.Get(context.Background(), "+15550001111", "google", build)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != "client" {
			t.Fatalf("got %v", got)
		}
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}
}

func TestClientCacheMissingCredential(t *testing.T) {
	cache := NewClientCache(&fakeCredStore{})
	_, err := cache.Get(context.Background(), "+15550001111", "google",
		func(ctx context.Context, cred *Credential) (interface{}, error) {
			t.Fatal("build should not run without a credential")
			return nil, nil
		})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
}

func TestClientCacheExpiresBeforeToken(t *testing.T) {
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)
	cache := NewClientCache(&fakeCredStore{cred: &Credential{
		Phone:     "+15550001111",
		Provider:  "google",
		ExpiresAt: now.Add(10 * time.Minute),
	}})
	cache.clock = func() time.Time { return now }

	builds := 0
	build := func(ctx context.Context, cred *Credential) (interface{}, error) {
		builds++
		return builds, nil
	}

	if _, err := cache.Get(context.Background(), "+15550001111", "google", build); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Token has 10m left, margin is 5m: the entry is stale after 5m even
	// though the token itself is still valid.
	now = now.Add(6 * time.Minute)
	if _, err := cache.Get(context.Background(), "+15550001111", "google", build); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2", builds)
	}
}

func TestClientCacheInvalidate(t *testing.T) {
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)
	cache := NewClientCache(&fakeCredStore{cred: &Credential{
		Phone:     "+15550001111",
		Provider:  "google",
		ExpiresAt: now.Add(2 * time.Hour),
	}})
	cache.clock = func() time.Time { return now }

	builds := 0
	build := func(ctx context.Context, cred *Credential) (interface{}, error) {
		builds++
		return builds, nil
	}

	cache.Get(context.Background(), "+15550001111", "google", build)
	cache.Invalidate("+15550001111", "google")
	cache.Get(context.Background(), "+15550001111", "google", build)
	if builds != 2 {
		t.Fatalf("builds = %d, want 2", builds)
	}
}

func TestClientCacheBuildErrorNotCached(t *testing.T) {
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)
	cache := NewClientCache(&fakeCredStore{cred: &Credential{
		Phone:     "+15550001111",
		Provider:  "google",
		ExpiresAt: now.Add(2 * time.Hour),
	}})
	cache.clock = func() time.Time { return now }

	calls := 0
	_, err := cache.Get(context.Background(), "+15550001111", "google",
		func(ctx context.Context, cred *Credential) (interface{}, error) {
			calls++
			return nil, errors.New("auth exchange failed")
		})
	if err == nil {
		t.Fatal("want build error")
	}
	got, err := cache.Get(context.Background(), "+15550001111", "google",
		func(ctx context.Context, cred *Credential) (interface{}, error) {
			calls++
			return "ok", nil
		})
	if err != nil || got != "ok" {
		t.Fatalf("got %v, %v", got, err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
