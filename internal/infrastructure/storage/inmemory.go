package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
)

// InMemoryArtifactStorage is an in-process ArtifactStorage for development
// and tests. Artifacts live in a map; download URLs are plain fake URLs.
type InMemoryArtifactStorage struct {
	// BaseURL is the base URL for generated download URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewInMemoryArtifactStorage creates a new InMemoryArtifactStorage
func NewInMemoryArtifactStorage() *InMemoryArtifactStorage {
	return &InMemoryArtifactStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure InMemoryArtifactStorage implements ArtifactStorage
var _ gangsheetapp.ArtifactStorage = (*InMemoryArtifactStorage)(nil)

// UploadArtifact stores the artifact in memory.
func (s *InMemoryArtifactStorage) UploadArtifact(ctx context.Context, storageKey, contentType string, body []byte) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	if len(body) == 0 {
		return errors.New("artifact body is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(body))
	copy(stored, body)
	s.objects[storageKey] = stored
	return nil
}

// GenerateDownloadURL returns a fake download URL for a stored artifact.
func (s *InMemoryArtifactStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// DeleteArtifact removes a stored artifact.
func (s *InMemoryArtifactStorage) DeleteArtifact(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, storageKey)
	return nil
}

// GetArtifact returns a stored artifact's bytes (for test assertions).
func (s *InMemoryArtifactStorage) GetArtifact(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.objects[storageKey]
	return body, ok
}

// Len returns the number of stored artifacts.
func (s *InMemoryArtifactStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}
