package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps workers in process. It enforces the same per
// organization uniqueness on CURP and employee number as the Postgres schema.
type MemoryRepository struct {
	mu      sync.Mutex
	workers []Worker
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) CreateWorker(ctx context.Context, w *Worker) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.workers {
		if existing.OrganizationID != w.OrganizationID {
			continue
		}
		if w.CURP != "" && existing.CURP == w.CURP {
			return fmt.Errorf("%w: curp %s", ErrDuplicateWorker, w.CURP)
		}
		if w.NumeroEmpleado != "" && existing.NumeroEmpleado == w.NumeroEmpleado {
			return fmt.Errorf("%w: numero_empleado %s", ErrDuplicateWorker, w.NumeroEmpleado)
		}
	}

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Status == "" {
		w.Status = StatusActive
	}
	w.CreatedAt = time.Now().UTC()

	r.workers = append(r.workers, *w)
	return nil
}

func (r *MemoryRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, w := range r.workers {
		if w.OrganizationID == orgID {
			total++
		}
	}
	return total, nil
}

// Workers returns a copy of the stored workers in insertion order.
func (r *MemoryRepository) Workers() []Worker {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Worker, len(r.workers))
	copy(out, r.workers)
	return out
}
