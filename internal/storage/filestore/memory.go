package filestore

import (
	"context"
	"sync"

	"flexreviews/internal/domain"
)

// Memory is a process-local snapshot store.
type Memory struct {
	mu   sync.RWMutex
	snap domain.Snapshot
}

func NewMemory(initial domain.Snapshot) *Memory {
	return &Memory{snap: cloneSnapshot(initial)}
}

func (m *Memory) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSnapshot(m.snap), nil
}

func (m *Memory) Save(ctx context.Context, s domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.snap = cloneSnapshot(s)
	m.mu.Unlock()
	return nil
}

func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	out := domain.Snapshot{Result: make([]domain.RawChannelReview, len(s.Result))}
	for i, r := range s.Result {
		c := r
		if r.Rating != nil {
			v := *r.Rating
			c.Rating = &v
		}
		if r.Approved != nil {
			v := *r.Approved
			c.Approved = &v
		}
		if r.ReviewCategory != nil {
			c.ReviewCategory = append([]domain.Category(nil), r.ReviewCategory...)
		}
		out.Result[i] = c
	}
	return out
}
