package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
	"github.com/dmitrijs2005/workloadtracker/internal/server/policy"
	"github.com/dmitrijs2005/workloadtracker/internal/server/repositories/repomanager"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// WorkloadService enforces ownership on workload reads and writes.
type WorkloadService struct {
	db          database.DB
	repomanager repomanager.RepositoryManager
	hideForeign bool
	logger      logging.Logger
}

// NewWorkloadService constructs a WorkloadService. With hideForeign set, a
// caller asking for somebody else's workload is told it does not exist.
func NewWorkloadService(db database.DB, m repomanager.RepositoryManager, hideForeign bool, logger logging.Logger) *WorkloadService {
	return &WorkloadService{db: db, repomanager: m, hideForeign: hideForeign, logger: logger}
}

// List returns the workloads visible to id matching filter, newest first.
func (s *WorkloadService) List(ctx context.Context, id auth.Identity, filter models.WorkloadFilter) ([]models.Workload, models.Page, error) {
	filter = policy.ScopeWorkloadFilter(id, filter)
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	items, total, err := s.repomanager.Workloads(s.db).List(ctx, filter)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("error listing workloads: %w", err)
	}
	return items, models.NewPage(filter.Page, filter.Limit, total), nil
}

// Mine is List restricted to the caller's own workloads, admin or not.
func (s *WorkloadService) Mine(ctx context.Context, id auth.Identity, filter models.WorkloadFilter) ([]models.Workload, models.Page, error) {
	filter.UserID = id.ID
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	items, total, err := s.repomanager.Workloads(s.db).List(ctx, filter)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("error listing workloads: %w", err)
	}
	return items, models.NewPage(filter.Page, filter.Limit, total), nil
}

func (s *WorkloadService) Get(ctx context.Context, id auth.Identity, workloadID int64) (*models.Workload, error) {
	w, err := s.load(ctx, s.db, workloadID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadWorkload(id, w); err != nil {
		return nil, policy.Conceal(err, s.hideForeign)
	}
	return w, nil
}

// Create stores a workload built from a validated patch. Non-admins always
// own what they create; an admin may name another existing owner.
func (s *WorkloadService) Create(ctx context.Context, id auth.Identity, p models.WorkloadPatch) (*models.Workload, error) {
	var requested int64
	if p.UserID != nil {
		requested = *p.UserID
	}
	owner := policy.CanCreateWorkload(id, requested)

	var created *models.Workload
	err := s.db.Transaction(ctx, func(ctx context.Context, q database.Querier) error {
		if owner != id.ID {
			if err := s.ownerExists(ctx, q, owner); err != nil {
				return err
			}
		}

		w := &models.Workload{
			UserID:      owner,
			Nama:        deref(p.Nama),
			Type:        deref(p.Type),
			Deskripsi:   p.Deskripsi,
			TglDiterima: p.TglDiterima,
			Fungsi:      p.Fungsi,
		}
		if p.Status != nil {
			w.Status = *p.Status
		}

		var err error
		created, err = s.repomanager.Workloads(q).Create(ctx, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "workload created", "by", id.ID, "workload_id", created.ID, "owner", owner)
	return created, nil
}

func (s *WorkloadService) Update(ctx context.Context, id auth.Identity, workloadID int64, p models.WorkloadPatch) (*models.Workload, error) {
	p = policy.WorkloadPatchFor(id, p)

	var updated *models.Workload
	err := s.db.Transaction(ctx, func(ctx context.Context, q database.Querier) error {
		w, err := s.load(ctx, q, workloadID)
		if err != nil {
			return err
		}
		if err := policy.CanModifyWorkload(id, w); err != nil {
			return policy.Conceal(err, s.hideForeign)
		}
		if p.UserID != nil && *p.UserID != w.UserID {
			if err := s.ownerExists(ctx, q, *p.UserID); err != nil {
				return err
			}
		}

		repo := s.repomanager.Workloads(q)
		if err := repo.Update(ctx, workloadID, p); err != nil {
			return err
		}
		updated, err = s.load(ctx, q, workloadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *WorkloadService) Delete(ctx context.Context, id auth.Identity, workloadID int64) error {
	return s.db.Transaction(ctx, func(ctx context.Context, q database.Querier) error {
		w, err := s.load(ctx, q, workloadID)
		if err != nil {
			return err
		}
		if err := policy.CanModifyWorkload(id, w); err != nil {
			return policy.Conceal(err, s.hideForeign)
		}
		if err := s.repomanager.Workloads(q).Delete(ctx, workloadID); err != nil {
			return err
		}

		s.logger.Info(ctx, "workload deleted", "by", id.ID, "workload_id", workloadID)
		return nil
	})
}

// Options returns the distinct types, statuses and fungsi in the caller's
// scope.
func (s *WorkloadService) Options(ctx context.Context, id auth.Identity) (models.WorkloadOptions, error) {
	opts, err := s.repomanager.Workloads(s.db).Options(ctx, policy.ScopeOwner(id))
	if err != nil {
		return models.WorkloadOptions{}, fmt.Errorf("error loading options: %w", err)
	}
	return opts, nil
}

// Statistics counts workloads by status. Admins see everything unless they
// name a userID; everybody else sees their own.
func (s *WorkloadService) Statistics(ctx context.Context, id auth.Identity, userID int64) (models.WorkloadStatistics, error) {
	owner := policy.ScopeOwner(id)
	if id.IsAdmin() && userID > 0 {
		owner = userID
	}

	stats, err := s.repomanager.Workloads(s.db).Statistics(ctx, owner)
	if err != nil {
		return models.WorkloadStatistics{}, fmt.Errorf("error loading statistics: %w", err)
	}
	return stats, nil
}

func (s *WorkloadService) load(ctx context.Context, q database.Querier, workloadID int64) (*models.Workload, error) {
	w, err := s.repomanager.Workloads(q).GetByID(ctx, workloadID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("workload not found")
		}
		return nil, err
	}
	return w, nil
}

func (s *WorkloadService) ownerExists(ctx context.Context, q database.Querier, userID int64) error {
	if _, err := s.repomanager.Users(q).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			v := common.NewValidationError()
			v.Add("user_id", "User not found")
			return v
		}
		return err
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return page, limit
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
