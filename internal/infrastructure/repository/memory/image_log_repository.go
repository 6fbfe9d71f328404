package memory

import (
	"context"
	"sync"
	"time"
)

type ImageLogEntry struct {
	UserEmail        string
	SelectedTemplate string
	CreatedAt        time.Time
}

type ImageLogRepository struct {
	mu      sync.RWMutex
	entries []ImageLogEntry
}

func NewImageLogRepository() *ImageLogRepository {
	return &ImageLogRepository{}
}

func (r *ImageLogRepository) Insert(_ context.Context, userEmail, template string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, ImageLogEntry{
		UserEmail:        userEmail,
		SelectedTemplate: template,
		CreatedAt:        time.Now().UTC(),
	})
	return nil
}

func (r *ImageLogRepository) Entries() []ImageLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ImageLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
