package workloads

import (
	"context"

	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

// Repository persists workloads. A filter UserID of 0 means every owner;
// scoping to the caller is the service's job.
type Repository interface {
	Create(ctx context.Context, w *models.Workload) (*models.Workload, error)
	GetByID(ctx context.Context, id int64) (*models.Workload, error)
	List(ctx context.Context, filter models.WorkloadFilter) ([]models.Workload, int64, error)
	Update(ctx context.Context, id int64, patch models.WorkloadPatch) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	Options(ctx context.Context, userID int64) (models.WorkloadOptions, error)
	Statistics(ctx context.Context, userID int64) (models.WorkloadStatistics, error)
}
