package adapters

import (
	"context"

	"autoparts_quotes_backend/internal/extraction"
	vehiclesvc "autoparts_quotes_backend/internal/vehicles/service"
	"autoparts_quotes_backend/internal/vehicles/transport"
)

// VehicleExtractor reads vehicle fields from intake PDFs for the vehicles module.
type VehicleExtractor struct {
	svc *extraction.Service
}

// NewVehicleExtractor creates a new extraction adapter.
func NewVehicleExtractor(svc *extraction.Service) *VehicleExtractor {
	return &VehicleExtractor{svc: svc}
}

func (e *VehicleExtractor) ExtractVehicle(ctx context.Context, pdf []byte) (transport.ExtractedVehicle, error) {
	f, err := e.svc.Extract(ctx, pdf)
	if err != nil {
		return transport.ExtractedVehicle{}, err
	}
	return transport.ExtractedVehicle{
		Brand:   f.Brand,
		Model:   f.Model,
		Year:    f.Year,
		Plate:   f.Plate,
		Chassis: f.Chassis,
	}, nil
}

// Compile-time check that VehicleExtractor implements vehicles/service.DocumentExtractor.
var _ vehiclesvc.DocumentExtractor = (*VehicleExtractor)(nil)
