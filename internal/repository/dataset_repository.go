package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/noah-isme/learning-path-api/internal/models"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

// DatasetRepository keeps uploaded datasets and their analysis results in
// process memory. Datasets never outlive the process; there is deliberately
// no database behind this.
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
	order    []string
}

// NewDatasetRepository constructs an empty registry.
func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{datasets: make(map[string]*models.Dataset)}
}

// Create stores a new dataset.
func (r *DatasetRepository) Create(_ context.Context, dataset *models.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.datasets[dataset.ID]; exists {
		return appErrors.Clone(appErrors.ErrConflict, "dataset already exists")
	}
	r.datasets[dataset.ID] = dataset
	r.order = append(r.order, dataset.ID)
	return nil
}

// FindByID returns the dataset or ErrNotFound.
func (r *DatasetRepository) FindByID(_ context.Context, id string) (*models.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dataset, ok := r.datasets[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "dataset not found")
	}
	return dataset, nil
}

// List returns a page of datasets, newest first, with the total count.
func (r *DatasetRepository) List(_ context.Context, page, pageSize int) ([]*models.Dataset, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Dataset, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.datasets[id])
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []*models.Dataset{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// Delete removes a dataset from the registry.
func (r *DatasetRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "dataset not found")
	}
	delete(r.datasets, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
