package db

import (
	"context"

	"github.com/ukydev/geo-payloads/internal/models"
)

// WarehouseCollection defines the interface for warehouse waypoint operations.
type WarehouseCollection interface {
	InsertWarehouses(ctx context.Context, warehouses []models.Warehouse) (int, error)
	FindWaypoints(ctx context.Context) ([]models.Location, error)
}
