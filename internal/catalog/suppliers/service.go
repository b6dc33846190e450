package suppliers

import (
	"context"
	"strings"

	"github.com/stockroom-app/stockroom/internal/catalog/shared"
)

// Service wraps supplier business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns active suppliers matching the filters plus the total count.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

// ListActive returns the compact supplier references used by dropdowns.
func (s *Service) ListActive(ctx context.Context) ([]Ref, error) {
	return s.repo.ListActive(ctx)
}

// Get fetches a single active supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	supplier = normalize(supplier)
	if err := s.validate(supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

// Update validates and applies changes to an existing supplier.
func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error) {
	supplier = normalize(supplier)
	if err := s.validate(supplier); err != nil {
		return Supplier{}, err
	}
	if err := s.repo.Update(ctx, id, supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete deactivates a supplier. Deleting an already inactive supplier
// succeeds without effect.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func normalize(supplier Supplier) Supplier {
	supplier.Name = strings.TrimSpace(supplier.Name)
	supplier.Address = strings.TrimSpace(supplier.Address)
	supplier.Phone = strings.TrimSpace(supplier.Phone)
	supplier.Email = strings.TrimSpace(supplier.Email)
	supplier.Description = strings.TrimSpace(supplier.Description)
	return supplier
}
