package reconcile

import (
	"context"
	"sort"
	"sync"

	"callcenter-platform/internal/taskrouter"
)

// MemoryStore is an in-memory mirror useful for tests and local development.
// It is not intended for production use.

type MemoryStore struct {
	mu           sync.Mutex
	workers      map[string]taskrouter.Worker
	tasks        map[string]taskrouter.Task
	reservations map[string]taskrouter.Reservation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workers:      map[string]taskrouter.Worker{},
		tasks:        map[string]taskrouter.Task{},
		reservations: map[string]taskrouter.Reservation{},
	}
}

func (s *MemoryStore) WorkerBySid(ctx context.Context, sid string) (taskrouter.Worker, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[sid]
	return w, ok, nil
}

func (s *MemoryStore) SaveWorker(ctx context.Context, w taskrouter.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.Sid] = w
	return nil
}

func (s *MemoryStore) DeleteWorker(ctx context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workers, sid)
	return nil
}

func (s *MemoryStore) TaskBySid(ctx context.Context, sid string) (taskrouter.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[sid]
	return t, ok, nil
}

func (s *MemoryStore) SaveTask(ctx context.Context, t taskrouter.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.Sid] = t
	return nil
}

func (s *MemoryStore) ReservationBySid(ctx context.Context, sid string) (taskrouter.Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[sid]
	return r, ok, nil
}

func (s *MemoryStore) SaveReservation(ctx context.Context, r taskrouter.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.Sid] = r
	return nil
}

func (s *MemoryStore) SaveReservationAndTask(ctx context.Context, r taskrouter.Reservation, t taskrouter.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.Sid] = r
	s.tasks[t.Sid] = t
	return nil
}

// ListWorkers returns all workers ordered by sid.
func (s *MemoryStore) ListWorkers(ctx context.Context) ([]taskrouter.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]taskrouter.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sid < out[j].Sid })
	return out, nil
}

// ListTasks returns all tasks ordered by sid.
func (s *MemoryStore) ListTasks(ctx context.Context) ([]taskrouter.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]taskrouter.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sid < out[j].Sid })
	return out, nil
}
