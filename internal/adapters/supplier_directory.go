package adapters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	quoterequestsvc "autoparts_quotes_backend/internal/quoterequests/service"
	suppliersvc "autoparts_quotes_backend/internal/suppliers/service"
	"autoparts_quotes_backend/platform/tenancy"
)

// SupplierDirectory exposes the suppliers module to quotation dispatch.
type SupplierDirectory struct {
	suppliers *suppliersvc.Service
}

// NewSupplierDirectory creates a new supplier directory adapter.
func NewSupplierDirectory(suppliers *suppliersvc.Service) *SupplierDirectory {
	return &SupplierDirectory{suppliers: suppliers}
}

// GetSuppliers returns the caller's suppliers among ids. Unknown ids are
// silently omitted.
func (d *SupplierDirectory) GetSuppliers(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]quoterequestsvc.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := d.suppliers.GetMany(ctx, scope, ids)
	if err != nil {
		return nil, fmt.Errorf("supplier directory: %w", err)
	}

	out := make([]quoterequestsvc.Supplier, 0, len(items))
	for _, s := range items {
		out = append(out, quoterequestsvc.Supplier{
			ID:       s.ID,
			Name:     s.Name,
			Phone:    deref(s.Phone),
			AreaCode: deref(s.AreaCode),
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Compile-time check that SupplierDirectory implements quoterequests/service.SupplierDirectory.
var _ quoterequestsvc.SupplierDirectory = (*SupplierDirectory)(nil)
