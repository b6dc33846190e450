package products

import (
	"context"
	"strings"

	"github.com/stockroom-app/stockroom/internal/catalog/shared"
	internalShared "github.com/stockroom-app/stockroom/internal/shared"
)

// Service wraps product business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns active products matching the filters plus the total count.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a single active product with its supplier reference.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new product. The SKU must be unused
// among active products and the supplier must exist.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	product = normalize(product)
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	if err := s.checkReferences(ctx, product, 0); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

// Update validates and applies changes to an existing product. The
// record itself is excluded from the SKU uniqueness check.
func (s *Service) Update(ctx context.Context, id int64, product Product) (Product, error) {
	product = normalize(product)
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	if err := s.checkReferences(ctx, product, id); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete deactivates a product. Deleting an already inactive product
// succeeds without effect.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) checkReferences(ctx context.Context, product Product, excludeID int64) error {
	if product.SKU != "" {
		taken, err := s.repo.SKUTaken(ctx, product.SKU, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return internalShared.Conflict("A product with this SKU already exists")
		}
	}
	// There is no foreign key backing supplier_id, so the reference is
	// verified here before the write.
	exists, err := s.repo.SupplierExists(ctx, product.SupplierID)
	if err != nil {
		return err
	}
	if !exists {
		return internalShared.NewValidationError(map[string]string{
			"supplier": "Selected supplier does not exist",
		})
	}
	return nil
}

func normalize(product Product) Product {
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	product.SKU = strings.TrimSpace(product.SKU)
	product.Description = strings.TrimSpace(product.Description)
	return product
}
