package blob

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_PutGetExists(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := m.Exists(ctx, "k")
	if err != nil || ok {
		t.Fatalf("Exists before Put = %v, %v", ok, err)
	}

	data := []byte("hello")
	if err := m.Put(ctx, "k", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X' // caller mutation must not leak into the store

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Get = %q, want hello", got)
	}
	if ok, _ := m.Exists(ctx, "k"); !ok {
		t.Error("expected key to exist")
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()

	err := m.Put(ctx, "k", []byte("v"))
	var be *Error
	if !errors.As(err, &be) || be.Op != OpPut {
		t.Fatalf("expected blob.Error PUT, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if m.Len() != 0 {
		t.Error("canceled Put must not store")
	}
}

func TestKeys(t *testing.T) {
	if got := IndexKey("drugqa/", "user-7"); got != "drugqa/tenants/user-7/index.msgpack" {
		t.Errorf("IndexKey = %q", got)
	}
	if got := EmbeddingKey("", "abc"); got != "emb/abc" {
		t.Errorf("EmbeddingKey = %q", got)
	}
}
