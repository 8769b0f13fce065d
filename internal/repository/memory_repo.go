package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"manoya/internal/domain"
)

// MemoryProfessionalRepository mantiene el directorio en memoria, en orden de alta.
// Se usa cuando no hay DATABASE_URL y en tests.
type MemoryProfessionalRepository struct {
	mu   sync.RWMutex
	pros []domain.Professional
}

func NewMemoryProfessionalRepository(pros ...domain.Professional) *MemoryProfessionalRepository {
	r := &MemoryProfessionalRepository{}
	r.pros = append(r.pros, pros...)
	return r
}

func (r *MemoryProfessionalRepository) List(_ context.Context) ([]domain.Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Professional, len(r.pros))
	copy(out, r.pros)
	return out, nil
}

func (r *MemoryProfessionalRepository) GetByID(_ context.Context, id string) (domain.Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pros {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Professional{}, ErrProfessionalNotFound
}

func (r *MemoryProfessionalRepository) Search(_ context.Context, query string, limit int) ([]domain.Professional, error) {
	q := strings.ToLower(CleanSearchQuery(query))
	if q == "" {
		return []domain.Professional{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Professional{}
	for _, p := range r.pros {
		if strings.Contains(strings.ToLower(string(p.Trade)), q) || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MemoryProfessionalRepository) Create(_ context.Context, p domain.Professional) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.pros {
		if existing.ID == p.ID {
			return fmt.Errorf("professional %s already exists", p.ID)
		}
	}
	if p.Source == "" {
		p.Source = domain.SourceDirectory
	}
	r.pros = append(r.pros, p)
	return nil
}

func (r *MemoryProfessionalRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pros), nil
}

func (r *MemoryProfessionalRepository) CountVerified(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.pros {
		if p.Verified {
			n++
		}
	}
	return n, nil
}

// MemoryRegistrationRepository guarda las altas en el proceso.
type MemoryRegistrationRepository struct {
	mu            sync.Mutex
	users         []domain.UserRegistration
	professionals []domain.ProfessionalRegistration
}

func NewMemoryRegistrationRepository() *MemoryRegistrationRepository {
	return &MemoryRegistrationRepository{}
}

func (r *MemoryRegistrationRepository) SaveUser(_ context.Context, reg domain.UserRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, reg)
	return nil
}

func (r *MemoryRegistrationRepository) SaveProfessional(_ context.Context, reg domain.ProfessionalRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.professionals = append(r.professionals, reg)
	return nil
}

func (r *MemoryRegistrationRepository) CountUsers(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *MemoryRegistrationRepository) CountProfessionals(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.professionals), nil
}

// Users devuelve una copia de las altas de solicitantes.
func (r *MemoryRegistrationRepository) Users() []domain.UserRegistration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.UserRegistration(nil), r.users...)
}

// Professionals devuelve una copia de las solicitudes de profesionales.
func (r *MemoryRegistrationRepository) Professionals() []domain.ProfessionalRegistration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ProfessionalRegistration(nil), r.professionals...)
}

type MemorySystemLogRepository struct {
	mu   sync.Mutex
	logs []domain.SystemLog
}

func NewMemorySystemLogRepository() *MemorySystemLogRepository {
	return &MemorySystemLogRepository{}
}

func (r *MemorySystemLogRepository) Append(_ context.Context, entry domain.SystemLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, entry)
	return nil
}

func (r *MemorySystemLogRepository) ListRecent(_ context.Context, limit int) ([]domain.SystemLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	r.mu.Lock()
	out := append([]domain.SystemLog(nil), r.logs...)
	r.mu.Unlock()

	// Orden estable: a igual fecha gana la ultima agregada.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []domain.SystemLog{}
	}
	return out, nil
}

type MemoryCaptureRepository struct {
	mu       sync.RWMutex
	captures map[string]Capture
}

func NewMemoryCaptureRepository() *MemoryCaptureRepository {
	return &MemoryCaptureRepository{captures: make(map[string]Capture)}
}

func (r *MemoryCaptureRepository) Save(_ context.Context, c Capture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Payload = append([]byte(nil), c.Payload...)
	r.captures[c.DataRef] = c
	return nil
}

func (r *MemoryCaptureRepository) Get(_ context.Context, dataRef string) (Capture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.captures[dataRef]
	if !ok {
		return Capture{}, ErrCaptureNotFound
	}
	return c, nil
}
