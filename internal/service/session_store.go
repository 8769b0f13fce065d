package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"manoya/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore guarda las sesiones del wizard. Cada Save renueva el TTL.
type SessionStore interface {
	Get(ctx context.Context, id string) (domain.WizardSession, error)
	Save(ctx context.Context, session domain.WizardSession) error
	Delete(ctx context.Context, id string) error
}

type memorySessionEntry struct {
	session   domain.WizardSession
	expiresAt time.Time
}

type memorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memorySessionEntry
	now   func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memorySessionStore{
		ttl:   ttl,
		items: make(map[string]memorySessionEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memorySessionStore) Get(_ context.Context, id string) (domain.WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return domain.WizardSession{}, ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.items, id)
		return domain.WizardSession{}, ErrSessionNotFound
	}
	return cloneSession(entry.session)
}

func (s *memorySessionStore) Save(_ context.Context, session domain.WizardSession) error {
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("session id is required")
	}
	cp, err := cloneSession(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.items[session.ID] = memorySessionEntry{session: cp, expiresAt: now.Add(s.ttl)}
	// barrido perezoso de vencidas
	for id, entry := range s.items {
		if now.After(entry.expiresAt) {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// cloneSession evita que el llamador comparta punteros con lo guardado. Pasa por
// JSON igual que el store de Redis, asi ambos se comportan igual.
func cloneSession(session domain.WizardSession) (domain.WizardSession, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return domain.WizardSession{}, fmt.Errorf("encode session: %w", err)
	}
	var out domain.WizardSession
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.WizardSession{}, fmt.Errorf("decode session: %w", err)
	}
	return out, nil
}

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisKVClient
	ttl    time.Duration
	prefix string
}

// NewRedisSessionStore devuelve nil sin cliente, para caer al store en memoria.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisSessionStore{
		client: client,
		ttl:    ttl,
		prefix: "manoya:wizard:",
	}
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (domain.WizardSession, error) {
	if strings.TrimSpace(id) == "" {
		return domain.WizardSession{}, ErrSessionNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.WizardSession{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.WizardSession{}, fmt.Errorf("get session %s: %w", id, err)
	}
	var session domain.WizardSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.WizardSession{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session domain.WizardSession) error {
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("session id is required")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+session.ID, raw, s.ttl).Err()
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+id).Err()
}
