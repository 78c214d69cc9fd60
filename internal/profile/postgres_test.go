package profile

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("PROFILE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PROFILE_TEST_DATABASE_URL not set")
	}
	store, err := NewPostgresStore(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	id := "test-" + time.Now().Format("20060102150405.000000")
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, Profile{ID: id, Name: "Alice", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, Profile{ID: id, Name: "Bob", Avatar: "b.png", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "Bob" || p.Avatar != "b.png" {
		t.Fatalf("unexpected profile %+v", p)
	}
}
