package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// progressEntry is a stored snapshot with expiration
type progressEntry struct {
	progress  gangsheetapp.JobProgress
	expiresAt time.Time
}

// InMemoryProgressStore implements ProgressStore using in-memory maps.
// This is suitable for single-instance deployments and testing.
type InMemoryProgressStore struct {
	mu        sync.RWMutex
	ttl       time.Duration
	entries   map[uuid.UUID]progressEntry
	cancels   map[uuid.UUID]time.Time // cancel flag expiration per job
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryProgressStore creates a new in-memory progress store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryProgressStore(ttl time.Duration) *InMemoryProgressStore {
	store := &InMemoryProgressStore{
		ttl:      ttl,
		entries:  make(map[uuid.UUID]progressEntry),
		cancels:  make(map[uuid.UUID]time.Time),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// SetProgress overwrites the progress snapshot for a job and refreshes its TTL.
func (s *InMemoryProgressStore) SetProgress(ctx context.Context, jobID uuid.UUID, progress gangsheetapp.JobProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[jobID] = progressEntry{
		progress:  progress,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// GetProgress returns the live snapshot for a job.
func (s *InMemoryProgressStore) GetProgress(ctx context.Context, jobID uuid.UUID) (*gangsheetapp.JobProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[jobID]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, shared.ErrNotFound
	}

	progress := e.progress
	return &progress, nil
}

// RequestCancel flags the job for cancellation.
// Returns true if this call set the flag, false if it was already set.
func (s *InMemoryProgressStore) RequestCancel(ctx context.Context, jobID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, exists := s.cancels[jobID]; exists && time.Now().Before(expiresAt) {
		return false, nil
	}

	s.cancels[jobID] = time.Now().Add(s.ttl)
	return true, nil
}

// IsCancelRequested reports whether cancellation has been requested for the job.
func (s *InMemoryProgressStore) IsCancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, exists := s.cancels[jobID]
	if !exists || time.Now().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

// Clear removes the progress snapshot and cancel flag for a job.
func (s *InMemoryProgressStore) Clear(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, jobID)
	delete(s.cancels, jobID)
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (s *InMemoryProgressStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryProgressStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryProgressStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for jobID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, jobID)
		}
	}
	for jobID, expiresAt := range s.cancels {
		if now.After(expiresAt) {
			delete(s.cancels, jobID)
		}
	}
}

// Ensure InMemoryProgressStore implements ProgressStore
var _ gangsheetapp.ProgressStore = (*InMemoryProgressStore)(nil)
