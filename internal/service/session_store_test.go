package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"manoya/internal/domain"
)

type mockRedisKVClient struct {
	values map[string][]byte

	lastSetKey string
	lastSetTTL time.Duration
	lastDel    []string

	getErr error
	setErr error
}

func newMockRedisKVClient() *mockRedisKVClient {
	return &mockRedisKVClient{values: make(map[string][]byte)}
}

func (m *mockRedisKVClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.values[key] = value.([]byte)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	for _, k := range keys {
		delete(m.values, k)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestMemorySessionStoreBasics(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute).(*memorySessionStore)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if _, err := store.Get(ctx, "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	sess := domain.WizardSession{ID: "s1", State: domain.StateRequestForm, ResultIDs: []string{"1"}}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess.ResultIDs[0] = "mutated"

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.StateRequestForm || got.ResultIDs[0] != "1" {
		t.Fatalf("unexpected stored session %+v", got)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}

	if err := store.Save(ctx, domain.WizardSession{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestMemorySessionStoreKeepsCodeHash(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute)
	sess := domain.WizardSession{ID: "s1", Verification: &domain.Verification{Email: "a@b.com", CodeHash: "salt:hash"}}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := store.Get(ctx, "s1")
	if got.Verification == nil || got.Verification.CodeHash != "salt:hash" {
		t.Fatalf("code hash must survive persistence, got %+v", got.Verification)
	}
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedisKVClient()
	store := &redisSessionStore{client: mock, ttl: 30 * time.Minute, prefix: "manoya:wizard:"}

	sess := domain.WizardSession{ID: "s1", State: domain.StatePayment}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mock.lastSetKey != "manoya:wizard:s1" || mock.lastSetTTL != 30*time.Minute {
		t.Fatalf("unexpected set key=%s ttl=%v", mock.lastSetKey, mock.lastSetTTL)
	}
	var stored domain.WizardSession
	if err := json.Unmarshal(mock.values["manoya:wizard:s1"], &stored); err != nil || stored.State != domain.StatePayment {
		t.Fatalf("expected json payload, got %s (%v)", mock.values["manoya:wizard:s1"], err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil || got.State != domain.StatePayment {
		t.Fatalf("unexpected get %+v %v", got, err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "manoya:wizard:s1" {
		t.Fatalf("unexpected del keys %v", mock.lastDel)
	}

	mock.getErr = errors.New("redis down")
	if _, err := store.Get(ctx, "s1"); err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected wrapped redis error, got %v", err)
	}

	if NewRedisSessionStore(nil, time.Minute) != nil {
		t.Fatalf("expected nil store without client")
	}
}
