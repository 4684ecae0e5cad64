// Package memory implements associado.Repository on an in-process slice.
//
// The store is owned by whoever constructs it and injected into the service,
// so tests control its lifetime with New and Reset. Records are kept in
// insertion order and looked up by linear scan.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/service/associado"
)

// Store implements associado.Repository in memory.
type Store struct {
	mu      sync.RWMutex
	records []domain.Associado
	delay   time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithDelay makes every operation wait d before touching the data, to mimic
// network or disk latency.
func WithDelay(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reset drops every record.
func (s *Store) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

func (s *Store) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(cpf string) int {
	for i, a := range s.records {
		if a.CPF == cpf {
			return i
		}
	}
	return -1
}

// emailOwnedByOther must be called with s.mu held.
func (s *Store) emailOwnedByOther(email, cpf string) bool {
	for _, a := range s.records {
		if a.Email == email && a.CPF != cpf {
			return true
		}
	}
	return false
}

func (s *Store) Insert(ctx context.Context, a domain.Associado) (domain.Associado, error) {
	if err := s.wait(ctx); err != nil {
		return domain.Associado{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(a.CPF) >= 0 {
		return domain.Associado{}, associado.DuplicateKeyError(associado.FieldCPF)
	}
	if s.emailOwnedByOther(a.Email, a.CPF) {
		return domain.Associado{}, associado.DuplicateKeyError(associado.FieldEmail)
	}
	s.records = append(s.records, a)
	return a, nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Associado, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Associado, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) FindByCPF(ctx context.Context, cpf string) (domain.Associado, bool, error) {
	if err := s.wait(ctx); err != nil {
		return domain.Associado{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(cpf)
	if i < 0 {
		return domain.Associado{}, false, nil
	}
	return s.records[i], true, nil
}

func (s *Store) UpdatePartial(ctx context.Context, cpf string, patch domain.AssociadoPatch) (domain.Associado, bool, error) {
	if err := s.wait(ctx); err != nil {
		return domain.Associado{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(cpf)
	if i < 0 {
		return domain.Associado{}, false, nil
	}
	if patch.Email != nil && s.emailOwnedByOther(*patch.Email, cpf) {
		return domain.Associado{}, false, associado.DuplicateKeyError(associado.FieldEmail)
	}
	updated := patch.Apply(s.records[i])
	updated.CPF = cpf
	s.records[i] = updated
	return updated, true, nil
}

func (s *Store) DeleteByCPF(ctx context.Context, cpf string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(cpf)
	if i < 0 {
		return false, nil
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return true, nil
}
