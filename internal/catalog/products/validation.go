package products

import (
	"strings"

	internalShared "github.com/stockroom-app/stockroom/internal/shared"
)

func (s *Service) validate(p Product) error {
	errs := make(map[string]string)

	if strings.TrimSpace(p.Name) == "" {
		errs["name"] = "Product name is required"
	} else if len(p.Name) > 100 {
		errs["name"] = "Product name must be 100 characters or fewer"
	}

	if p.Price < 0 {
		errs["price"] = "Price cannot be negative"
	}

	if p.Quantity < 0 {
		errs["quantity"] = "Quantity cannot be negative"
	}

	if p.SupplierID <= 0 {
		errs["supplier"] = "Supplier is required"
	}

	if len(p.Category) > 50 {
		errs["category"] = "Category must be 50 characters or fewer"
	}

	if len(p.SKU) > 50 {
		errs["sku"] = "SKU must be 50 characters or fewer"
	}

	if len(p.Description) > 500 {
		errs["description"] = "Description must be 500 characters or fewer"
	}

	if len(errs) > 0 {
		return internalShared.NewValidationError(errs)
	}
	return nil
}
