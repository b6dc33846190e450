package suppliers

import (
	"net/mail"
	"regexp"
	"strings"

	internalShared "github.com/stockroom-app/stockroom/internal/shared"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)

func (s *Service) validate(supplier Supplier) error {
	errs := make(map[string]string)

	if strings.TrimSpace(supplier.Name) == "" {
		errs["name"] = "Supplier name is required"
	} else if len(supplier.Name) > 100 {
		errs["name"] = "Supplier name must be 100 characters or fewer"
	}

	if strings.TrimSpace(supplier.Address) == "" {
		errs["address"] = "Address is required"
	} else if len(supplier.Address) > 200 {
		errs["address"] = "Address must be 200 characters or fewer"
	}

	if strings.TrimSpace(supplier.Phone) == "" {
		errs["phone"] = "Phone number is required"
	} else if !phonePattern.MatchString(supplier.Phone) {
		errs["phone"] = "Phone number must be 10 or 11 digits"
	}

	if supplier.Email != "" {
		if _, err := mail.ParseAddress(supplier.Email); err != nil {
			errs["email"] = "Enter a valid email address"
		}
	}

	if len(supplier.Description) > 500 {
		errs["description"] = "Description must be 500 characters or fewer"
	}

	if len(errs) > 0 {
		return internalShared.NewValidationError(errs)
	}
	return nil
}
